package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"asset-merger/core/reconcile"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// maxSamples bounds how many entries of a list are printed.
const maxSamples = 5

// printPlanReport prints a formatted plan summary and logs it.
func printPlanReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	headerColor.Println("\n=== Merge Plan ===")
	fmt.Printf("Run: %s\n", plan.RunID)
	fmt.Printf("Source: %s\n", plan.Source)
	fmt.Printf("Targets: %s\n", strings.Join(plan.Targets, ", "))
	fmt.Printf("Candidates: %d  Supplied: %d\n", s.Candidates, s.Supplied)
	successColor.Printf("Accepted: %d\n", s.Accepted)
	if s.Collapsed > 0 {
		fmt.Printf("Collapsed chains: %d\n", s.Collapsed)
	}
	dropped := s.Unresolved + s.SelfMerges + s.Conflicts + s.Cycles
	if dropped > 0 {
		warnColor.Printf("Dropped: %d (unresolved %d, self %d, conflicts %d, cycles %d)\n",
			dropped, s.Unresolved, s.SelfMerges, s.Conflicts, s.Cycles)
	}
	if len(plan.Skipped) > 0 {
		warnColor.Printf("Skipped files: %d\n", len(plan.Skipped))
	}

	for i, d := range plan.Decisions {
		if i == maxSamples {
			fmt.Printf("  ... %d more\n", len(plan.Decisions)-maxSamples)
			break
		}
		fmt.Printf("  %s -> %s [%s] %s\n", d.From, d.To, d.Origin, d.Reason)
	}

	l.Info("Merge plan",
		zap.String("run_id", plan.RunID),
		zap.Int("candidates", s.Candidates),
		zap.Int("supplied", s.Supplied),
		zap.Int("accepted", s.Accepted),
		zap.Int("collapsed", s.Collapsed),
		zap.Int("unresolved", s.Unresolved),
		zap.Int("self_merges", s.SelfMerges),
		zap.Int("conflicts", s.Conflicts),
		zap.Int("cycles", s.Cycles),
		zap.Int("skipped", len(plan.Skipped)),
	)
}

// printApplyReport prints the staged rewrites and exclusions of an applied run.
func printApplyReport(result *reconcile.Result) {
	headerColor.Println("\n=== Staged Rewrites ===")
	for _, root := range sortedKeys(result.Rewrites) {
		rep := result.Rewrites[root]
		fmt.Printf("%s: rewritten %d, unchanged %d, no-ops %d\n", root, len(rep.Rewritten), rep.Unchanged, len(rep.NoOps))
		for _, s := range rep.Refused {
			warnColor.Printf("  refused %s: %s\n", s.Path, s.Reason)
		}
		for _, s := range rep.Failed {
			errorColor.Printf("  failed %s: %s\n", s.Path, s.Reason)
		}
	}
	if result.Exclusions != nil {
		fmt.Printf("Excluded files: %d  folders: %d\n", len(result.Exclusions.Files), len(result.Exclusions.Folders))
	}
	if result.Complete() {
		successColor.Println("All rewrites staged. Review them, then run 'staged commit' on each root.")
	} else {
		errorColor.Println("Some rewrites failed. Do not commit; run 'staged rollback' and retry.")
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses the --yes flag.
func confirmDestructiveAction(yes bool, prompt string) bool {
	if yes {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	warnColor.Printf("\n⚠️  %s Type 'yes' to confirm: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
