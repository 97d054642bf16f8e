package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/config"
	"github.com/Fato07/knowledge-base/internal/daemon"
	"github.com/Fato07/knowledge-base/internal/ui"
)

var (
	dataDir    string
	jsonOutput bool
	noColor    bool
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

func defaultReviewer() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}
	return "unknown"
}

var rootCmd = &cobra.Command{
	Use:   "kb",
	Short: "Capture development activity and curate it into a knowledge base",
	Long: `kb observes shell commands, git operations, and filesystem changes,
scores them for significance, and walks you through turning the notable
ones into knowledge entries.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDir != "" {
			os.Setenv("KB_DATA_DIR", dataDir)
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		return nil
	},
}

// openApp opens the full pipeline (log, store, bus). Callers must Close it.
func openApp() (*daemon.App, error) {
	app, err := daemon.NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open data dir %s: %w", cfg.DataDir, err)
	}
	return app, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default $KB_DATA_DIR or ~/.local/state/kb)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(rulesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
