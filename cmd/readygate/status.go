package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/readygate/internal/readiness"
)

type statusStore interface {
	LatestReport(ctx context.Context) (*readiness.Report, error)
}

func executeStatus(cmd *cobra.Command, db statusStore) error {
	out := cmd.OutOrStdout()
	report, err := db.LatestReport(context.Background())
	if err != nil {
		return fmt.Errorf("querying status: %w", err)
	}

	if report == nil {
		fmt.Fprintln(out, "No evaluation history. Run 'readygate serve' or 'readygate check' first.")
		return nil
	}

	fmt.Fprintf(out, "%s: %s (checked %s)\n\n",
		report.Name,
		report.Status,
		report.CheckedAt.Local().Format("2006-01-02 15:04:05"),
	)

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
	return nil
}
