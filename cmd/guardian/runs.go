package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/revenue-guardian/internal/cli"
	"github.com/Veraticus/revenue-guardian/internal/common"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/Veraticus/revenue-guardian/internal/service"
	"github.com/Veraticus/revenue-guardian/internal/storage"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse the reconciliation run history",
		Long: `Every reconcile invocation is recorded with its settings, summary and rows
unless --no-save was given. Runs can be referenced by their full ID or by a
unique prefix of at least four characters.`,
	}

	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsShowCmd())
	cmd.AddCommand(runsDeleteCmd())

	return cmd
}

func runsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  runRunsList,
	}

	cmd.Flags().String("since", "", "Only runs created on or after this date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")

	return cmd
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sinceFlag, _ := cmd.Flags().GetString("since")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.RunFilter{Limit: limit}
	if sinceFlag != "" {
		since, err := parseDate(sinceFlag, today())
		if err != nil {
			return err
		}
		filter.Since = &since
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	runs, err := store.ListRuns(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No runs recorded yet. Use 'guardian reconcile' to create one."))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle("Reconciliation Runs"))
	fmt.Fprintln(out, cli.RunsTable(runs))
	return nil
}

func runsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	}

	cmd.Flags().String("filter", string(report.FilterAll), "Rows to display (all, high, medium, low)")
	cmd.Flags().Int("limit", 50, "Maximum rows to display (0 for all)")
	cmd.Flags().String("export-dir", "", "Write the CSV bundle to this directory")
	cmd.Flags().Bool("sheets", false, "Export the run to Google Sheets")

	return cmd
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	filterName, _ := cmd.Flags().GetString("filter")
	limit, _ := cmd.Flags().GetInt("limit")
	exportDir, _ := cmd.Flags().GetString("export-dir")
	toSheets, _ := cmd.Flags().GetBool("sheets")

	filter, err := report.ParseFilter(filterName)
	if err != nil {
		return common.NewUserError("invalid --filter", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return runLookupError(args[0], err)
	}
	rows, err := store.GetRunRows(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load run rows: %w", err)
	}
	r := reportFromRun(run, rows)

	fmt.Fprintln(out, cli.FormatTitle("Run "+run.ID))
	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%s · invoices %s · clinical %s · %s threshold %d, window %d days",
		run.CreatedAt.Local().Format("2006-01-02 15:04"), run.InvoiceSource, run.ClinicalSource,
		run.Settings.Algorithm, run.Settings.MatchThreshold, run.Settings.DateWindowDays)))
	if err := printRows(out, r, filter, limit); err != nil {
		return err
	}

	return finishRun(ctx, cmd, r, runOutputs{exportDir: exportDir, sheets: toSheets})
}

func runsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsDelete,
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	force, _ := cmd.Flags().GetBool("force")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return runLookupError(args[0], err)
	}

	if !force {
		question := fmt.Sprintf("Delete run %s from %s?", run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04"))
		ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, cli.InfoStyle.Render("Deletion canceled"))
			return nil
		}
	}

	if err := store.DeleteRun(ctx, run.ID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Deleted run "+run.ID))
	return nil
}

func runLookupError(id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return common.NewUserError(fmt.Sprintf("no run matches %q", id), err)
	case errors.Is(err, storage.ErrAmbiguous):
		return common.NewUserError(fmt.Sprintf("%q matches more than one run; use a longer prefix", id), err)
	default:
		return fmt.Errorf("failed to load run: %w", err)
	}
}
