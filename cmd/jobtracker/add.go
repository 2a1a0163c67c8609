package main

import (
	"fmt"

	"github.com/jonathan/job-tracker/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// recordFlags holds the per-field flags shared by add and edit.
type recordFlags struct {
	id       string
	company  string
	emoji    string
	stage    string
	round    string
	position string
	team     string
	applied  string
	offered  string
	due      string
	verdict  string
	notes    string
}

func (f *recordFlags) register(fs *pflag.FlagSet, withID bool) {
	if withID {
		fs.StringVar(&f.id, "id", "", "Record id (default: derived from the company)")
	}
	fs.StringVar(&f.company, "company", "", "Company name")
	fs.StringVar(&f.emoji, "emoji", "", "Emoji shown next to the company")
	fs.StringVar(&f.stage, "stage", string(types.StageApplied), "Current stage")
	fs.StringVar(&f.round, "round", "", "Round type (DSA, HLD, LLD, HR, ...)")
	fs.StringVar(&f.position, "position", "", "Position title")
	fs.StringVar(&f.team, "team", "", "Team")
	fs.StringVar(&f.applied, "applied", "", "Applied date (YYYY-MM-DD)")
	fs.StringVar(&f.offered, "offered", "", "Offered date (YYYY-MM-DD)")
	fs.StringVar(&f.due, "due", "", "Due date of the next step (YYYY-MM-DD)")
	fs.StringVar(&f.verdict, "verdict", "", "Final verdict (Offered, Rejected, Declined Offer)")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
}

// apply copies the flags onto req. With onlyChanged set, flags the user did
// not pass leave the request untouched.
func (f *recordFlags) apply(fs *pflag.FlagSet, req *types.ApplicationRequest, onlyChanged bool) {
	set := func(name string, dst *string, value string) {
		if !onlyChanged || fs.Changed(name) {
			*dst = value
		}
	}

	set("company", &req.Company, f.company)
	set("emoji", &req.Emoji, f.emoji)
	set("position", &req.Position, f.position)
	set("team", &req.Team, f.team)
	set("applied", &req.AppliedDate, f.applied)
	set("offered", &req.OfferedDate, f.offered)
	set("due", &req.DueDate, f.due)
	set("notes", &req.Notes, f.notes)

	stage, round, verdict := string(req.CurrentStage), string(req.RoundType), string(req.FinalVerdict)
	set("stage", &stage, f.stage)
	set("round", &round, f.round)
	set("verdict", &verdict, f.verdict)
	req.CurrentStage = types.Stage(stage)
	req.RoundType = types.RoundType(round)
	req.FinalVerdict = types.Verdict(verdict)
}

// requestFrom builds an editable request from an existing record.
func requestFrom(rec types.Application) types.ApplicationRequest {
	return types.ApplicationRequest{
		ID:           rec.ID,
		Company:      rec.Company,
		Emoji:        rec.Emoji,
		CurrentStage: rec.CurrentStage,
		RoundType:    rec.RoundType,
		Position:     rec.Position,
		Team:         rec.Team,
		AppliedDate:  rec.AppliedDate,
		OfferedDate:  rec.OfferedDate,
		DueDate:      rec.DueDate,
		FinalVerdict: rec.FinalVerdict,
		Notes:        rec.Notes,
	}
}

var (
	addFlags  recordFlags
	editFlags recordFlags
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an application",
	Example: `  jobtracker add --company Stripe --position "Backend Engineer" --applied 2025-01-10
  jobtracker add --company Acme --stage OA --due 2025-02-03`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Update fields of an application",
	Long:    "Updates an application in place. Only the flags you pass are changed.",
	Example: `  jobtracker edit stripe-1 --stage First-Round --round DSA --due 2025-02-12`,
	Args:    cobra.ExactArgs(1),
	RunE:    runEdit,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an application",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	addFlags.register(addCmd.Flags(), true)
	_ = addCmd.MarkFlagRequired("company")
	editFlags.register(editCmd.Flags(), false)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	req := types.ApplicationRequest{ID: addFlags.id}
	addFlags.apply(cmd.Flags(), &req, false)
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid application: %w", err)
	}
	id := req.ID
	if id == "" {
		id = types.NewApplicationID(req.Company)
	}
	record := req.Application(id)

	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		a.controller.Start(ctx)

		sync, err := a.controller.Add(ctx, record)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %s (%s)\n", record.Title(), record.ID)
		waitSync(ctx, out, sync)
		printStatus(out, a.controller.State())
		return nil
	})
}

func runEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		a.controller.Start(ctx)

		existing, ok := a.controller.Get(id)
		if !ok {
			return fmt.Errorf("application not found: %s", id)
		}
		req := requestFrom(existing)
		editFlags.apply(cmd.Flags(), &req, true)
		if err := req.Validate(); err != nil {
			return fmt.Errorf("invalid application: %w", err)
		}
		record := req.Application(id)

		sync, err := a.controller.Update(ctx, record)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Updated %s (%s)\n", record.Title(), record.ID)
		waitSync(ctx, out, sync)
		printStatus(out, a.controller.State())
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		a.controller.Start(ctx)

		sync, err := a.controller.Delete(ctx, id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Deleted %s\n", id)
		waitSync(ctx, out, sync)
		printStatus(out, a.controller.State())
		return nil
	})
}
