package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"saldo/internal/cli"
	"saldo/internal/core"
	"saldo/internal/export"
)

var (
	flagYear   int
	flagMonth  int
	flagTarget string
	flagOutput string
)

var quickCmd = &cobra.Command{
	Use:   "quick [LINE...]",
	Short: `Add "<amount> <description>" entries dated today`,
	Long: `Each argument, or each line on stdin when no argument is given, is one entry.
Negative amounts are outflows, the rest variable income.`,
	Example: `  saldoctl quick "-50 lunch" "120 freelance"
  printf -- "-12 bus\n-30 groceries\n" | saldoctl quick`,
	RunE: runQuick,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the daily net totals of a month",
	Args:  cobra.NoArgs,
	RunE:  runCalendar,
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project the balance to month end or to --target",
	Args:  cobra.NoArgs,
	RunE:  runForecast,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the ledger to an xlsx workbook, one sheet per month",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	calendarCmd.Flags().IntVarP(&flagYear, "year", "y", 0, "Year (default current)")
	calendarCmd.Flags().IntVarP(&flagMonth, "month", "m", 0, "Month 1-12 (default current)")
	forecastCmd.Flags().StringVarP(&flagTarget, "target", "t", "", "Target date YYYY-MM-DD (default month end)")
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", export.Filename, `Output file, "-" for stdout`)

	rootCmd.AddCommand(quickCmd, calendarCmd, forecastCmd, exportCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.Ledger.Dashboard(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SALDO  " + snap.Today.String()))
	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   "Balance",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Balance", cli.FormatMoney(snap.Balance)},
			{"Days remaining", fmt.Sprintf("%d", snap.DaysRemaining)},
			{"Daily spend", cli.FormatDecimal(snap.DailySpend)},
			{"Month-end forecast", cli.FormatMoney(snap.Forecast)},
			{"Expected at month end", cli.FormatMoney(snap.ExpectedMonthEnd)},
			{"Roll-forward mode", string(snap.Mode)},
		},
	}))
	fmt.Println()
	fmt.Println(cli.RenderCalendar(snap.Calendar))
	fmt.Println(cli.Muted(fmt.Sprintf("In %s  Out %s  Net %s",
		cli.FormatMoney(snap.Totals.Inflow),
		cli.FormatMoney(snap.Totals.Outflow),
		cli.FormatMoney(snap.Totals.Net))))
	fmt.Println()
	return nil
}

func runQuick(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, "\n")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to add")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Ledger.QuickAdd(ctx, text)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d entries\n", len(res.IDs))
	for _, r := range res.Rejected {
		fmt.Println(cli.Muted("skipped " + r.Error()))
	}
	if len(res.IDs) == 0 && len(res.Rejected) > 0 {
		return fmt.Errorf("no valid lines")
	}
	return nil
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	today := s.Ledger.Today()
	year, month := flagYear, flagMonth
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}
	days, err := s.Ledger.Calendar(ctx, year, month)
	if err != nil {
		return err
	}
	totals, err := s.Ledger.MonthTotals(ctx, year, month)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s %d", time.Month(month), year)))
	fmt.Println()
	fmt.Println(cli.RenderCalendar(days))
	fmt.Println(cli.Muted(fmt.Sprintf("In %s  Out %s  Net %s",
		cli.FormatMoney(totals.Inflow), cli.FormatMoney(totals.Outflow), cli.FormatMoney(totals.Net))))
	return nil
}

func runForecast(cmd *cobra.Command, _ []string) error {
	var target core.Date
	if flagTarget != "" {
		d, err := core.ParseDate(flagTarget)
		if err != nil {
			return err
		}
		target = d
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.Ledger.Project(ctx, target)
	if err != nil {
		return err
	}
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   "Projections",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Today", p.Today.String()},
			{"Balance", cli.FormatMoney(p.Balance)},
			{"Days remaining", fmt.Sprintf("%d", p.DaysRemaining)},
			{"Daily spend", cli.FormatDecimal(p.DailySpend)},
			{"Month-end forecast", cli.FormatMoney(p.Forecast)},
			{"Expected on " + p.Target.String(), cli.FormatMoney(p.Expected)},
		},
	}))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	txs, err := s.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}
	if flagOutput == "-" {
		return export.WriteXLSX(cmd.OutOrStdout(), txs)
	}

	if dir := filepath.Dir(flagOutput); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return fmt.Errorf("create %s: %w", flagOutput, err)
	}
	if err := export.WriteXLSX(f, txs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d transactions in %d sheets to %s\n",
		len(txs), len(export.GroupByMonth(txs)), flagOutput)
	return nil
}
