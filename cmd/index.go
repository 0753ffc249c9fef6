package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"asset-merger/core/identity"
	"asset-merger/core/reconcile"
	"asset-merger/core/typeindex"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexJSON bool

// indexCmd prints the identity and type index of one tree.
var indexCmd = &cobra.Command{
	Use:   "index ROOT",
	Short: "Index a tree and print its statistics",
	Long:  `Builds the identity and type indices of ROOT and prints counts, type name collisions and skipped files. Use --json to save the full index.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startTime := time.Now()
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()

		fs := afero.NewOsFs()
		engine, err := reconcile.NewEngine(fs, cfg.Merge.EngineOptions(l))
		if err != nil {
			return err
		}
		t, err := engine.Index(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", args[0], err)
		}

		stats := t.IDs.Stats()
		headerColor.Println("\n=== Index ===")
		fmt.Printf("Root: %s\n", t.Root)
		fmt.Printf("Assets: %d  Objects: %d  References: %d\n", stats.Assets, stats.Objects, stats.References)
		fmt.Printf("Types: %d  Shaders: %d\n", len(t.Types.Types), len(t.Types.Shaders))
		for _, c := range t.Types.Collisions {
			warnColor.Printf("  collision %s: kept %s, rejected %s\n", c.Name, c.Kept, c.Rejected)
		}
		if skipped := stats.Skipped + len(t.Types.Skipped); skipped > 0 {
			warnColor.Printf("Skipped files: %d\n", skipped)
		}
		fmt.Printf("Execution Time: %s\n", time.Since(startTime))

		if indexJSON {
			out := struct {
				Identity *identity.Database  `json:"identity"`
				Types    *typeindex.Database `json:"types"`
			}{t.IDs, t.Types}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			filename := filepath.Join(cfg.Merge.OutputDir, fmt.Sprintf("merge_index_%d.json", startTime.Unix()))
			if err := afero.WriteFile(fs, filename, data, 0o644); err != nil {
				return fmt.Errorf("failed to save JSON file: %w", err)
			}
			l.Info("Detailed JSON index saved", zap.String("file", filename))
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "Save the full index as JSON")
	RootCmd.AddCommand(indexCmd)
}
