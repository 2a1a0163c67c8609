package main

import (
	"fmt"
	"time"

	"github.com/jonathan/job-tracker/internal/observability"
	"github.com/jonathan/job-tracker/internal/view"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show every field of one application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			a.controller.Start(cmd.Context())
			rec, ok := a.controller.Get(args[0])
			if !ok {
				return fmt.Errorf("application not found: %s", args[0])
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintApplication(rec)
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the pipeline by stage, verdict and due date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			a.controller.Start(cmd.Context())
			apps := a.controller.Applications()

			p := observability.NewPrinter(cmd.OutOrStdout())
			p.PrintGroups("BY STAGE", view.GroupByStage(apps))
			p.PrintGroups("BY VERDICT", view.GroupByVerdict(apps))
			p.PrintGroups("BY DUE DATE", view.GroupByDue(apps, time.Now()))
			p.PrintState(a.controller.State())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(summaryCmd)
}
