package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/readygate/internal/config"
	"github.com/hazz-dev/readygate/internal/readiness"
)

func executeCheck(cmd *cobra.Command, cfg *config.Config) error {
	return runEvaluation(cmd.OutOrStdout(), cfg)
}

func runEvaluation(out io.Writer, cfg *config.Config) error {
	evaluator, err := buildEvaluator(cfg, slog.Default())
	if err != nil {
		return err
	}

	report := evaluator.Evaluate(context.Background())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPENDENCY\tCATEGORY\tSTATUS\tRESPONSE\tERROR")
	for _, dep := range report.Dependencies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fms\t%s\n",
			dep.Name,
			dep.Category,
			dep.Status,
			dep.ResponseTimeMS,
			dep.Error,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%s: %s (%d/%d healthy, %.1fms)\n",
		report.Name,
		report.Status,
		report.Details.HealthyDependencies,
		report.Details.DependencyCount,
		report.CheckDurationMS,
	)

	if report.Status == readiness.StatusDown {
		return fmt.Errorf("service group %q is down", report.Name)
	}
	return nil
}
