package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/revenue-guardian/internal/cli"
	"github.com/Veraticus/revenue-guardian/internal/common"
	"github.com/Veraticus/revenue-guardian/internal/config"
	"github.com/Veraticus/revenue-guardian/internal/engine"
	"github.com/Veraticus/revenue-guardian/internal/loader"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/Veraticus/revenue-guardian/internal/sample"
	"github.com/Veraticus/revenue-guardian/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const demoSource = "demo"

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [invoices.csv clinical.csv]",
		Short: "Match invoice lines against the clinical log",
		Long: `Reconcile vendor invoices for bill-only implants against clinical documentation.

Each invoice line is compared with every clinical entry charted within the date
window. Lines whose best match scores below the threshold are flagged as
revenue leakage. Results are printed, saved to the run history and optionally
exported as a CSV bundle or to Google Sheets.

Use --demo to run against the built-in sample dataset.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runReconcile,
	}

	defaults := engine.DefaultConfig()
	cmd.Flags().Bool("demo", false, "Use the built-in sample dataset")
	cmd.Flags().Int("threshold", defaults.MatchThreshold, "Minimum match score (0-100)")
	cmd.Flags().Int("window", defaults.DateWindowDays, "Maximum days between invoice and procedure")
	cmd.Flags().String("algorithm", string(defaults.Algorithm), "Similarity algorithm (jaro-winkler, indel, levenshtein)")
	cmd.Flags().Bool("stem", defaults.StemTokens, "Stem tokens before comparing descriptions")
	cmd.Flags().Int("workers", defaults.Workers, "Parallel matching workers")
	cmd.Flags().String("filter", string(report.FilterAll), "Rows to display (all, high, medium, low)")
	cmd.Flags().Int("limit", 50, "Maximum rows to display (0 for all)")
	cmd.Flags().String("export-dir", "", "Write the CSV bundle to this directory")
	cmd.Flags().Bool("no-save", false, "Do not record the run in the history database")
	cmd.Flags().Bool("sheets", false, "Export the report to Google Sheets")
	cmd.Flags().BoolP("interactive", "i", false, "Review the results interactively")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyMatchThreshold, cmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag(config.KeyDateWindowDays, cmd.Flags().Lookup("window"))
	_ = viper.BindPFlag(config.KeyAlgorithm, cmd.Flags().Lookup("algorithm"))
	_ = viper.BindPFlag(config.KeyStemTokens, cmd.Flags().Lookup("stem"))
	_ = viper.BindPFlag(config.KeyWorkers, cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("reconcile.export_dir", cmd.Flags().Lookup("export-dir"))

	return cmd
}

type reconcileInputs struct {
	invoiceSource  string
	clinicalSource string
	invoices       []model.InvoiceLine
	clinical       []model.ClinicalLogEntry
}

func loadReconcileInputs(demo bool, args []string) (*reconcileInputs, error) {
	if demo {
		if len(args) > 0 {
			return nil, common.NewUserError("--demo cannot be combined with input files", nil)
		}
		invoices, clinical, err := sample.Load()
		if err != nil {
			return nil, err
		}
		return &reconcileInputs{
			invoiceSource:  demoSource,
			clinicalSource: demoSource,
			invoices:       invoices,
			clinical:       clinical,
		}, nil
	}

	if len(args) != 2 {
		return nil, common.NewUserError("reconcile needs an invoice CSV and a clinical log CSV (or --demo)", nil)
	}

	invoices, err := loader.LoadInvoicesFile(args[0])
	if err != nil {
		return nil, common.NewUserError("could not load invoices", err)
	}
	clinical, err := loader.LoadClinicalFile(args[1])
	if err != nil {
		return nil, common.NewUserError("could not load clinical log", err)
	}

	common.LogDebug("Loaded reconciliation inputs", common.Fields{
		"invoices": len(invoices),
		"clinical": len(clinical),
	})

	return &reconcileInputs{
		invoiceSource:  args[0],
		clinicalSource: args[1],
		invoices:       invoices,
		clinical:       clinical,
	}, nil
}

// engineConfig resolves engine settings from flags, config file and defaults.
func engineConfig() (engine.Config, error) {
	config.SetEngineDefaults(viper.GetViper())
	cfg, err := config.EngineConfigFromViper(viper.GetViper())
	if err != nil {
		return engine.Config{}, common.NewUserError("invalid engine settings", err)
	}
	return cfg, nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	demo, _ := cmd.Flags().GetBool("demo")
	filterName, _ := cmd.Flags().GetString("filter")
	limit, _ := cmd.Flags().GetInt("limit")
	noSave, _ := cmd.Flags().GetBool("no-save")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	interactive, _ := cmd.Flags().GetBool("interactive")
	exportDir := viper.GetString("reconcile.export_dir")

	filter, err := report.ParseFilter(filterName)
	if err != nil {
		return common.NewUserError("invalid --filter", err)
	}

	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	inputs, err := loadReconcileInputs(demo, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	ctx = cli.NewInterruptHandler(cmd.ErrOrStderr()).HandleInterrupts(ctx, "Reconciliation", "No run was saved.")

	progress := cli.NewProgress(cmd.ErrOrStderr(), len(inputs.invoices), "Matching invoices...")
	eng, err := engine.New(cfg, engine.WithProgress(progress), engine.WithLogger(slog.Default()))
	if err != nil {
		return common.NewUserError("invalid engine settings", err)
	}

	r, err := eng.Reconcile(ctx, inputs.invoices, inputs.clinical)
	progress.Finish()
	if err != nil {
		return err
	}
	r.InvoiceSource = inputs.invoiceSource
	r.ClinicalSource = inputs.clinicalSource

	if interactive {
		reviewDir := exportDir
		if reviewDir == "" {
			reviewDir = "."
		}
		r, err = tui.Run(ctx, r, inputs.invoices, inputs.clinical, cfg, tui.WithExportDir(reviewDir))
		if err != nil {
			return err
		}
	}

	if err := printRows(out, r, filter, limit); err != nil {
		return err
	}

	return finishRun(ctx, cmd, r, runOutputs{
		save:      !noSave,
		exportDir: exportDir,
		sheets:    toSheets,
	})
}

type runOutputs struct {
	exportDir string
	save      bool
	sheets    bool
}

// finishRun persists and exports a completed report.
func finishRun(ctx context.Context, cmd *cobra.Command, r *model.Report, outputs runOutputs) error {
	out := cmd.OutOrStdout()

	if outputs.save {
		store, err := initStorage(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer closeStorage(store)

		if err := store.SaveRun(ctx, r); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		common.LogInfo("Run saved", common.Fields{"run_id": r.RunID, "rows": len(r.Rows)})
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved run %s", r.RunID)))
	}

	if outputs.exportDir != "" {
		if err := exportBundle(out, outputs.exportDir, r); err != nil {
			return err
		}
	}

	if outputs.sheets {
		if err := writeSheets(ctx, r); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Exported report to Google Sheets"))
	}

	return nil
}
