package main

import (
	"context"
	"fmt"

	"github.com/redbco/redb-datasync/pkg/health"
	"github.com/spf13/cobra"
)

// pingCmd connects to the configured datasource and runs its health checks
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured datasource is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		checker := health.NewChecker()

		ds, err := openDataSource(ctx)
		if err != nil {
			checker.RunCheck(ctx, "connect", func(context.Context) error { return err })
		} else {
			defer ds.Close()
			checker.RunCheck(ctx, "connect", health.ConnectedCheck(ds))
			if ds.Collection() != "" {
				checker.RunCheck(ctx, "query", health.QueryCheck(ds))
			}
		}

		for _, c := range checker.GetAllChecks() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-10s %s\n", c.Name, c.Status, c.Message)
		}

		status := checker.GetOverallStatus()
		fmt.Fprintf(cmd.OutOrStdout(), "overall  %s\n", status)
		if status == health.StatusUnhealthy {
			exitUnhealthy()
		}
		return nil
	},
}
