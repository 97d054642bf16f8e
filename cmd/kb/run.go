package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/daemon"
)

var runCmd = &cobra.Command{
	Use:   "run [root-dir...]",
	Short: "Run the capture daemon (filesystem watcher and archiver)",
	Long: `Run watches the given directories (default: cwd) for file changes,
recording them in the event log, and periodically archives the event store.
Only one daemon may run per data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roots := args
		if len(roots) == 0 {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			roots = []string{cwd}
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return daemon.New(app, roots).Run(ctx)
	},
}
