package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"asset-merger/core/config"
	"asset-merger/core/database"
	"asset-merger/core/reconcile"
	"asset-merger/feature/integrity"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	integritySource  string
	integrityTargets []string
	integrityJSON    bool
)

// integrityCmd is the parent command for integrity checks.
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on trees and the run journal",
	Long:  `Checks for references a merge would leave dangling, staged rewrites left behind, and journal schema drift.`,
}

var referencesCmd = &cobra.Command{
	Use:   "references",
	Short: "Report references a merge would leave dangling",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, l, err := newIntegrityService(false)
		if err != nil {
			return err
		}
		report, err := svc.CheckReferences(cmd.Context(), reconcile.Request{Source: integritySource, Targets: integrityTargets})
		if err != nil {
			return fmt.Errorf("reference check failed: %w", err)
		}

		fmt.Println("\n=== Reference Integrity ===")
		fmt.Printf("Checked: %d\n", report.Checked)
		fmt.Printf("Rewritten: %d\n", report.Rewritten)
		if len(report.Dangling) == 0 {
			successColor.Println("Dangling: 0")
		} else {
			errorColor.Printf("Dangling: %d\n", len(report.Dangling))
			for i, d := range report.Dangling {
				if i == maxSamples {
					fmt.Printf("  ... %d more\n", len(report.Dangling)-maxSamples)
					break
				}
				fmt.Printf("  %s (object %s) -> %s\n", d.Path, d.Object, d.Resolved)
			}
		}
		return saveIntegrityJSON(l, cfg.Merge.OutputDir, "references", report)
	},
}

var stagedCheckCmd = &cobra.Command{
	Use:   "staged ROOT",
	Short: "Report staged rewrites left below ROOT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, l, err := newIntegrityService(false)
		if err != nil {
			return err
		}
		report, err := svc.CheckStaged(args[0])
		if err != nil {
			return err
		}

		fmt.Println("\n=== Staged Integrity ===")
		if report.Clean() {
			successColor.Println("No staged rewrites")
		} else {
			warnColor.Printf("Staged: %d\n", len(report.Staged))
			for _, p := range report.Orphaned {
				errorColor.Printf("  orphaned %s\n", p)
			}
		}
		return saveIntegrityJSON(l, cfg.Merge.OutputDir, "staged", report)
	},
}

var journalCheckCmd = &cobra.Command{
	Use:   "journal",
	Short: "Validate the journal schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, l, err := newIntegrityService(true)
		if err != nil {
			return err
		}
		report, err := svc.CheckJournal()
		if err != nil {
			return err
		}

		fmt.Println("\n=== Journal Integrity ===")
		for _, name := range sortedKeys(report.Tables) {
			tbl := report.Tables[name]
			if tbl.Status == "ok" {
				successColor.Printf("%s: ok\n", name)
				continue
			}
			errorColor.Printf("%s: %s\n", name, tbl.Status)
			for _, c := range tbl.MissingColumns {
				fmt.Printf("  missing %s\n", c)
			}
			for _, m := range tbl.TypeMismatches {
				fmt.Printf("  %s\n", m)
			}
		}
		for _, e := range report.Errors {
			errorColor.Println(e)
		}
		return saveIntegrityJSON(l, cfg.Merge.OutputDir, "journal", report)
	},
}

func init() {
	referencesCmd.Flags().StringVar(&integritySource, "source", "", "Source tree root")
	referencesCmd.Flags().StringArrayVar(&integrityTargets, "target", nil, "Target tree root (repeatable)")
	_ = referencesCmd.MarkFlagRequired("source")
	_ = referencesCmd.MarkFlagRequired("target")
	integrityCmd.PersistentFlags().BoolVar(&integrityJSON, "json", false, "Save the detailed JSON report")

	integrityCmd.AddCommand(referencesCmd, stagedCheckCmd, journalCheckCmd)
	RootCmd.AddCommand(integrityCmd)
}

func newIntegrityService(withJournal bool) (*integrity.Service, *config.Config, *zap.Logger, error) {
	cfg, l, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}

	fs := afero.NewOsFs()
	engine, err := reconcile.NewEngine(fs, cfg.Merge.EngineOptions(l))
	if err != nil {
		return nil, nil, nil, err
	}

	var db *gorm.DB
	if withJournal {
		db, err = database.Connect(cfg.Journal)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("database connection required: %w", err)
		}
	}
	return integrity.NewService(fs, engine, db, cfg.Merge.Suffix(), l), cfg, l, nil
}

func saveIntegrityJSON(l *zap.Logger, dir, name string, report any) error {
	if !integrityJSON {
		return nil
	}
	filename := filepath.Join(dir, fmt.Sprintf("integrity_%s_%d.json", name, time.Now().Unix()))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := afero.WriteFile(afero.NewOsFs(), filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to save JSON file: %w", err)
	}
	l.Info("Detailed JSON report saved", zap.String("file", filename))
	return nil
}
