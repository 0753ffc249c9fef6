package cmd

import (
	"fmt"

	"asset-merger/core/rewrite"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stagedYes bool

// stagedCmd is the parent command for staged rewrite operations.
var stagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Commit or roll back staged rewrites",
}

var stagedListCmd = &cobra.Command{
	Use:   "list ROOT",
	Short: "List staged rewrites below ROOT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		staged, err := rewrite.FindStaged(afero.NewOsFs(), args[0], cfg.Merge.Suffix())
		if err != nil {
			return err
		}
		for _, path := range staged {
			fmt.Println(path)
		}
		l.Info("Staged rewrites", zap.String("root", args[0]), zap.Int("count", len(staged)))
		return nil
	},
}

var stagedCommitCmd = &cobra.Command{
	Use:   "commit ROOT",
	Short: "Replace every original below ROOT with its staged rewrite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStaged(args[0], true)
	},
}

var stagedRollbackCmd = &cobra.Command{
	Use:   "rollback ROOT",
	Short: "Delete every staged rewrite below ROOT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStaged(args[0], false)
	},
}

func init() {
	stagedCommitCmd.Flags().BoolVar(&stagedYes, "yes", false, "Auto-confirm (non-interactive)")
	stagedCmd.AddCommand(stagedListCmd, stagedCommitCmd, stagedRollbackCmd)
	RootCmd.AddCommand(stagedCmd)
}

func runStaged(root string, commit bool) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	fs := afero.NewOsFs()
	suffix := cfg.Merge.Suffix()
	staged, err := rewrite.FindStaged(fs, root, suffix)
	if err != nil {
		return err
	}
	if len(staged) == 0 {
		l.Info("No staged rewrites found", zap.String("root", root))
		return nil
	}

	if !commit {
		if err := rewrite.Rollback(fs, staged); err != nil {
			return fmt.Errorf("rollback incomplete: %w", err)
		}
		l.Info("Rolled back staged rewrites", zap.String("root", root), zap.Int("count", len(staged)))
		return nil
	}

	if !confirmDestructiveAction(stagedYes, fmt.Sprintf("Replace %d originals below %s?", len(staged), root)) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	if err := rewrite.Commit(fs, suffix, staged); err != nil {
		return fmt.Errorf("commit incomplete: %w", err)
	}
	successColor.Printf("Committed %d staged rewrites\n", len(staged))
	l.Info("Committed staged rewrites", zap.String("root", root), zap.Int("count", len(staged)))
	return nil
}
