package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/revenue-guardian/internal/cli"
	"github.com/Veraticus/revenue-guardian/internal/common"
	"github.com/Veraticus/revenue-guardian/internal/inventory"
	"github.com/Veraticus/revenue-guardian/internal/loader"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/Veraticus/revenue-guardian/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Track implant lots for expiration and recalls",
		Long: `Manage the local implant inventory.

Import an inventory snapshot, classify lots by whether usage will consume them
before they expire, and check them against manufacturer recall lists.`,
	}

	cmd.AddCommand(inventoryImportCmd())
	cmd.AddCommand(inventoryExpiryCmd())
	cmd.AddCommand(inventoryRecallCmd())
	cmd.AddCommand(inventoryAlertsCmd())

	return cmd
}

func inventoryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <inventory.csv>",
		Short: "Import or update inventory lots from a CSV file",
		Long: `Import inventory lots. Required columns: Item_ID, Item_Description,
Lot_Number, On_Hand, Unit_Cost, Expiration_Date. Optional columns:
Manufacturer, Location, Avg_Daily_Usage.

Lots already on record (same item and lot) are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: runInventoryImport,
	}
}

func runInventoryImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	items, err := loader.LoadInventoryFile(args[0])
	if err != nil {
		return common.NewUserError("could not load inventory", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	if err := store.SaveInventoryItems(ctx, items); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}

	total := decimalSum(items)
	common.LogInfo("Inventory imported", common.Fields{"file": args[0], "lots": len(items)})
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d lots (%s on hand)", len(items), report.FormatCurrency(total))))
	return nil
}

func inventoryExpiryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expiry",
		Short: "Classify lots by expiration and burn rate",
		Long: `Classify every lot on record:

  EXPIRED        expiration date on or before the as-of date
  AT_RISK        average daily usage will not consume the lot before it expires
  EXPIRING_SOON  expires within the warning window
  OK             everything else

Units at risk are the on-hand units left over after ceil(ADU × days to expiry);
with no recorded usage every unit is at risk.`,
		Args: cobra.NoArgs,
		RunE: runInventoryExpiry,
	}

	cmd.Flags().String("as-of", "", "Assess as of this date (YYYY-MM-DD, default today)")
	cmd.Flags().Int("warning-days", inventory.DefaultWarningDays, "Days before expiry that count as expiring soon")
	cmd.Flags().Bool("all", false, "Include lots with status OK")

	_ = viper.BindPFlag("inventory.warning_days", cmd.Flags().Lookup("warning-days"))

	return cmd
}

func runInventoryExpiry(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	asOfFlag, _ := cmd.Flags().GetString("as-of")
	showAll, _ := cmd.Flags().GetBool("all")
	warningDays := viper.GetInt("inventory.warning_days")
	if warningDays < 0 {
		return common.NewUserError("--warning-days cannot be negative", nil)
	}

	asOf, err := parseDate(asOfFlag, today())
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	items, err := requireInventory(ctx, store)
	if err != nil {
		return err
	}

	assessments := inventory.AssessAll(items, asOf, warningDays)
	totals := inventory.Summarize(assessments)

	shown := assessments
	if !showAll {
		shown = make([]model.ExpirationAssessment, 0, len(assessments))
		for _, a := range assessments {
			if a.Status != model.ExpirationOK {
				shown = append(shown, a)
			}
		}
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Expiration outlook as of %s", asOf.Format(dateLayout))))
	fmt.Fprintln(out, cli.RenderBox(cli.ClockIcon+" Totals", cli.ExpirySummary(totals)))
	if len(shown) == 0 {
		fmt.Fprintln(out, cli.FormatSuccess("No lots need attention"))
		return nil
	}
	fmt.Fprintln(out, cli.ExpiryTable(shown))
	return nil
}

func inventoryRecallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recall <recall-list.csv>",
		Short: "Check inventory against a recall list",
		Long: `Check the inventory on record against a recall list. The list needs a
Lot_Number column and may carry Recall_ID and Reason columns.

Matching lots are recorded as recall alerts; re-running the same list does not
duplicate alerts.`,
		Args: cobra.ExactArgs(1),
		RunE: runInventoryRecall,
	}
}

func runInventoryRecall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	recalls, err := loader.LoadRecallsFile(args[0])
	if err != nil {
		return common.NewUserError("could not load recall list", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	ctx = cli.NewInterruptHandler(cmd.ErrOrStderr()).HandleInterrupts(ctx, "Recall check", "")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	if _, err := requireInventory(ctx, store); err != nil {
		return err
	}

	result, err := inventory.NewRecallChecker(store, slog.Default()).Check(ctx, recalls)
	if err != nil {
		return err
	}

	if len(result.Alerts) == 0 {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("None of %d recalled lots are in inventory", len(recalls))))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle(cli.RecallIcon+" Recalled lots in inventory"))
	fmt.Fprintln(out, cli.RecallTable(result.Alerts))
	fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d lots affected, %s at risk (%d new alerts)",
		len(result.Alerts), report.FormatCurrency(result.TotalValue), result.New)))
	return nil
}

func inventoryAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List recorded recall alerts, newest first",
		Args:  cobra.NoArgs,
		RunE:  runInventoryAlerts,
	}

	cmd.Flags().Int("limit", 50, "Maximum alerts to list (0 for all)")

	return cmd
}

func runInventoryAlerts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	alerts, err := store.ListRecallAlerts(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list recall alerts: %w", err)
	}

	if len(alerts) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No recall alerts recorded."))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle(cli.RecallIcon+" Recall alerts"))
	fmt.Fprintln(out, cli.RecallTable(alerts))
	return nil
}

// requireInventory loads the inventory, failing with a hint when none is on record.
func requireInventory(ctx context.Context, store service.Storage) ([]model.InventoryItem, error) {
	items, err := store.GetInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if len(items) == 0 {
		return nil, common.NewUserError("no inventory on record; run 'guardian inventory import' first", common.ErrNoInventory)
	}
	return items, nil
}

func decimalSum(items []model.InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Value())
	}
	return total
}
