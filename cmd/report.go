package cmd

import (
	"fmt"

	"asset-merger/core/storage"
	"asset-merger/feature/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportKeep int
	reportYes  bool
)

// reportCmd is the parent command for the report archive.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage merge reports archived in object storage",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := newReportStore()
		if err != nil {
			return err
		}
		objects, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, obj := range objects {
			fmt.Printf("%s\t%d\t%s\n", obj.Name, obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var reportFetchCmd = &cobra.Command{
	Use:   "fetch NAME",
	Short: "Print an archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := newReportStore()
		if err != nil {
			return err
		}
		data, err := store.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var reportPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove all but the newest archived reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, l, err := newReportStore()
		if err != nil {
			return err
		}
		if !confirmDestructiveAction(reportYes, fmt.Sprintf("Remove all but the newest %d reports?", reportKeep)) {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		removed, err := store.Prune(cmd.Context(), reportKeep)
		if err != nil {
			return err
		}
		l.Info("Pruned reports", zap.Int("removed", len(removed)), zap.Int("kept", reportKeep))
		return nil
	},
}

func init() {
	reportPruneCmd.Flags().IntVar(&reportKeep, "keep", 20, "Number of newest reports to keep")
	reportPruneCmd.Flags().BoolVar(&reportYes, "yes", false, "Auto-confirm (non-interactive)")
	reportCmd.AddCommand(reportListCmd, reportFetchCmd, reportPruneCmd)
	RootCmd.AddCommand(reportCmd)
}

func newReportStore() (*report.Store, *zap.Logger, error) {
	cfg, l, err := setup()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Storage.Enabled {
		return nil, nil, fmt.Errorf("report storage is disabled (set STORAGE_ENABLED=true)")
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return report.NewStore(client, cfg.Storage, l), l, nil
}
