package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ctma/internal/analysis"
	"ctma/internal/report"
	"ctma/internal/scenario"
)

var (
	batchParallel int
	batchOutDir   string
)

// batchCmd analyzes several scenarios with bounded parallelism
var batchCmd = &cobra.Command{
	Use:   "batch [scenario-id...]",
	Short: "Analyze several scenarios (default: all) and summarize the results",
	Long: `Runs one analysis per scenario, each with its own session, at most
--parallel at a time. A failed scenario does not stop the others.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "p", 2, "Maximum concurrent analyses")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Write one Markdown dossier per scenario into this directory")
}

type batchResult struct {
	bundle scenario.Bundle
	report *analysis.Report
	err    error
}

func runBatch(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	var bundles []scenario.Bundle
	if len(args) == 0 {
		bundles = cat.List()
	} else {
		for _, id := range args {
			b, err := lookupScenario(cat, id)
			if err != nil {
				return err
			}
			bundles = append(bundles, b)
		}
	}

	an, err := buildAnalyzer()
	if err != nil {
		return err
	}
	if batchOutDir != "" {
		if err := os.MkdirAll(batchOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	limit := batchParallel
	if limit < 1 {
		limit = 1
	}
	cf := counterfactuals()
	results := make([]batchResult, len(bundles))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, b := range bundles {
		g.Go(func() error {
			rep, err := newController(an).Run(ctx, b, cf)
			results[i] = batchResult{bundle: b, report: rep, err: err}
			if err != nil {
				currentLogger().Warn("batch scenario failed", zap.String("scenario", b.ID), zap.Error(err))
				return nil
			}
			logTrace(rep.RunID)
			if batchOutDir != "" {
				path := filepath.Join(batchOutDir, b.ID+".md")
				if err := os.WriteFile(path, []byte(report.Markdown(rep, b)), 0644); err != nil {
					results[i].err = fmt.Errorf("failed to write dossier: %w", err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	failed := 0
	fmt.Fprintf(out, "%-34s %-8s %-8s %s\n", "ID", "EXPECTED", "INFERRED", "FAILURE MODE")
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "%-34s %-8s %-8s %s\n", r.bundle.ID, r.bundle.ExpectedRiskLevel, "ERROR", r.err)
			continue
		}
		fmt.Fprintf(out, "%-34s %-8s %-8s %s\n", r.bundle.ID, r.bundle.ExpectedRiskLevel,
			r.report.Summary.Risk(), r.report.Summary.FailureMode)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}
