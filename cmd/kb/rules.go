package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/config"
	"github.com/Fato07/knowledge-base/internal/ui"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the classification rules file",
}

// starterRules is written by `kb rules init` as a commented starting point.
const starterRules = `# Classification rules for kb.
# Commands whose first word is listed under allow score as significant;
# trivial commands score zero and are never queued for review.

min_importance = 1

[commands]
allow = ["docker", "go", "make", "npm", "cargo", "kubectl", "terraform"]
trivial = ["ls", "cd", "pwd", "cat", "clear"]

[paths]
source = ["**.go", "**.py", "**.ts", "**.rs"]
generated = ["**/node_modules/**", "**/dist/**", "**/*.lock"]

[patterns]
error = ["error", "fatal", "panic"]
file = ["**/Dockerfile", "**/Makefile", "**/*.sql"]

# Expected wall-clock seconds per command head; runs taking 10x longer
# get an outlier bonus.
[baseline]
docker = 30.0
go = 5.0
`

var rulesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter rules file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.RulesPath); err == nil {
			return fmt.Errorf("rules file already exists at %s", cfg.RulesPath)
		}
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}
		if err := os.WriteFile(cfg.RulesPath, []byte(starterRules), 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", ui.RenderAccent(cfg.RulesPath))
		return nil
	},
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse and validate the rules file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := config.LoadRules(cfg.RulesPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s OK (min importance %d)\n", cfg.RulesPath, rules.MinImportance)
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesInitCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
}
