package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/capture"
	"github.com/Fato07/knowledge-base/internal/eventlog"
	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/model"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record one observed action in the event log",
	Long: `Capture subcommands are invoked from shell wrappers and git hooks.
They always exit 0: a capture failure is logged, never propagated into the
command or hook that triggered it.`,
}

// captureRecorder opens just the log and bus; capture paths skip the store
// to stay cheap enough for a shell hook.
func captureRecorder() (*capture.Recorder, func(), error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	log, err := eventlog.New(cfg.LogDir(), logger)
	if err != nil {
		return nil, nil, err
	}

	var bus events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		if p, err := events.NewNATSPublisher(cfg.NATSURL); err == nil {
			bus = p
		}
	}
	return capture.NewRecorder(log, bus, logger), func() { bus.Close() }, nil
}

// record runs the adapter and recorder, reporting failures on stderr only.
func record(build func() (model.RawEvent, error)) {
	raw, err := build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kb capture: %v\n", err)
		return
	}
	recorder, closeBus, err := captureRecorder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kb capture: %v\n", err)
		return
	}
	defer closeBus()
	recorder.Record(context.Background(), raw)
}

var captureCommandCmd = &cobra.Command{
	Use:   "command <command-line>",
	Short: "Record a completed shell command",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitCode, _ := cmd.Flags().GetInt("exit-code")
		duration, _ := cmd.Flags().GetDuration("duration")
		dir, _ := cmd.Flags().GetString("dir")
		output, _ := cmd.Flags().GetString("output")
		if dir == "" {
			dir, _ = os.Getwd()
		}

		record(func() (model.RawEvent, error) {
			return capture.NewShellAdapter().Observe(capture.Invocation{
				At: time.Now().UTC(),
				Command: &capture.CommandInvocation{
					Command:  args[0],
					ExitCode: exitCode,
					Duration: duration,
					Dir:      dir,
					Output:   output,
				},
			})
		})
	},
}

var captureCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record the repository HEAD commit (post-commit hook)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repo, _ := cmd.Flags().GetString("repo")
		record(func() (model.RawEvent, error) {
			adapter := capture.NewGitAdapter()
			op, err := adapter.HeadCommit(repo)
			if err != nil {
				return model.RawEvent{}, err
			}
			return adapter.Observe(capture.Invocation{At: time.Now().UTC(), Git: &op})
		})
	},
}

var captureBranchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Record the checked-out branch (post-checkout hook)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repo, _ := cmd.Flags().GetString("repo")
		record(func() (model.RawEvent, error) {
			adapter := capture.NewGitAdapter()
			op, err := adapter.CurrentBranch(repo)
			if err != nil {
				return model.RawEvent{}, err
			}
			return adapter.Observe(capture.Invocation{At: time.Now().UTC(), Git: &op})
		})
	},
}

var captureFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Record one filesystem change",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		change, _ := cmd.Flags().GetString("change")
		record(func() (model.RawEvent, error) {
			kind := model.ChangeKind(change)
			if !kind.IsValid() {
				return model.RawEvent{}, fmt.Errorf("unknown change kind %q", change)
			}
			return capture.NewFSAdapter().Observe(capture.Invocation{
				At:   time.Now().UTC(),
				File: &capture.FileChange{Path: args[0], Change: kind},
			})
		})
	},
}

func init() {
	captureCommandCmd.Flags().Int("exit-code", 0, "command exit code")
	captureCommandCmd.Flags().Duration("duration", 0, "command wall-clock duration")
	captureCommandCmd.Flags().String("dir", "", "working directory (default: cwd)")
	captureCommandCmd.Flags().String("output", "", "trailing command output")

	captureCommitCmd.Flags().String("repo", "", "repository directory (default: cwd)")
	captureBranchCmd.Flags().String("repo", "", "repository directory (default: cwd)")

	captureFileCmd.Flags().String("change", "modified", "change kind: created, modified, deleted")

	captureCmd.AddCommand(captureCommandCmd)
	captureCmd.AddCommand(captureCommitCmd)
	captureCmd.AddCommand(captureBranchCmd)
	captureCmd.AddCommand(captureFileCmd)
}
