package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jonathan/job-tracker/internal/types"
	"github.com/jonathan/job-tracker/internal/view"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked applications",
	Long:  "Lists applications after syncing with Drive when connected. Supports search, column sort, and grouping by stage, verdict or due date.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listQuery string
	listSort  string
	listDir   string
	listGroup string
	listJSON  bool
)

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search company, position, stage and verdict")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort column: company, currentStage, roundType, appliedDate, offeredDate, finalVerdict")
	listCmd.Flags().StringVar(&listDir, "dir", "asc", "Sort direction: asc or desc")
	listCmd.Flags().StringVar(&listGroup, "group", "", "Group by: stage, verdict or due")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		a.controller.Start(cmd.Context())

		apps := view.Filter(a.controller.Applications(), listQuery)
		if listSort != "" {
			column, err := view.ParseColumn(listSort)
			if err != nil {
				return err
			}
			dir, err := view.ParseDirection(listDir)
			if err != nil {
				return err
			}
			apps = view.Sort(apps, column, dir)
		}

		var groups []view.Group
		switch listGroup {
		case "":
		case "stage":
			groups = view.GroupByStage(apps)
		case "verdict":
			groups = view.GroupByVerdict(apps)
		case "due":
			groups = view.GroupByDue(apps, time.Now())
		default:
			return fmt.Errorf("unknown grouping %q (want stage, verdict or due)", listGroup)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if groups != nil {
				return enc.Encode(groups)
			}
			return enc.Encode(apps)
		}

		if groups != nil {
			for _, g := range groups {
				fmt.Fprintf(out, "\n%s (%d)\n", g.Key, len(g.Applications))
				if err := printApplications(out, g.Applications); err != nil {
					return err
				}
			}
		} else if err := printApplications(out, apps); err != nil {
			return err
		}

		fmt.Fprintln(out)
		printStatus(out, a.controller.State())
		return nil
	})
}

// printApplications writes apps as an aligned table.
func printApplications(out io.Writer, apps []types.Application) error {
	if len(apps) == 0 {
		fmt.Fprintln(out, "No applications.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tPOSITION\tSTAGE\tROUND\tAPPLIED\tDUE\tVERDICT")
	for _, a := range apps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID,
			dash(a.Emoji+" "+a.Company),
			dash(a.Position),
			dash(string(a.CurrentStage)),
			dash(string(a.RoundType)),
			dash(a.AppliedDate),
			dash(a.DueDate),
			a.FinalVerdict.Display(),
		)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}
