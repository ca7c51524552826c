package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"saldo/internal/cli"
	"saldo/internal/core"
	"saldo/internal/services"
)

var (
	flagTxDate     []string
	flagTxFrom     string
	flagTxTo       string
	flagTxCategory string
	flagTxMisc     bool
)

var txCmd = &cobra.Command{
	Use:     "tx",
	Aliases: []string{"transaction"},
	Short:   "Add, edit, remove and list transactions",
}

var txAddCmd = &cobra.Command{
	Use:   "add DESCRIPTION AMOUNT",
	Short: "Add a transaction on up to 5 consecutive days",
	Example: `  saldoctl tx add Rent 1200 --category outflow --date 2024-03-05
  saldoctl tx add Gym 15 -c outflow --from 2024-03-04 --to 2024-03-08`,
	Args: cobra.ExactArgs(2),
	RunE: runTxAdd,
}

var txEditCmd = &cobra.Command{
	Use:   "edit ID DESCRIPTION AMOUNT",
	Short: "Rewrite description, amount and category of a transaction",
	Args:  cobra.ExactArgs(3),
	RunE:  runTxEdit,
}

var txRemoveCmd = &cobra.Command{
	Use:     "rm ID...",
	Aliases: []string{"delete"},
	Short:   "Delete transactions",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTxRemove,
}

var txListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List transactions",
	Args:    cobra.NoArgs,
	RunE:    runTxList,
}

func init() {
	txAddCmd.Flags().StringSliceVar(&flagTxDate, "date", nil, "Date(s) as YYYY-MM-DD (default today)")
	txAddCmd.Flags().StringVar(&flagTxFrom, "from", "", "First day of a range")
	txAddCmd.Flags().StringVar(&flagTxTo, "to", "", "Last day of a range")
	for _, c := range []*cobra.Command{txAddCmd, txEditCmd} {
		c.Flags().StringVarP(&flagTxCategory, "category", "c", string(core.Outflow), "fixed_income, variable_income or outflow")
	}
	txListCmd.Flags().BoolVar(&flagTxMisc, "misc", false, "Only quick-entry rows")

	txCmd.AddCommand(txAddCmd, txEditCmd, txRemoveCmd, txListCmd)
	rootCmd.AddCommand(txCmd)
}

// selectedDates turns the date flags into a list; no flag means today.
func selectedDates(today core.Date) ([]core.Date, error) {
	if flagTxFrom != "" {
		from, err := core.ParseDate(flagTxFrom)
		if err != nil {
			return nil, err
		}
		to := from
		if flagTxTo != "" {
			if to, err = core.ParseDate(flagTxTo); err != nil {
				return nil, err
			}
		}
		if to.Before(from) {
			return nil, fmt.Errorf("%w: --to before --from", core.ErrInvalidDate)
		}
		return core.DateRange(from, to), nil
	}
	if len(flagTxDate) == 0 {
		return []core.Date{today}, nil
	}
	dates := make([]core.Date, 0, len(flagTxDate))
	for _, v := range flagTxDate {
		d, err := core.ParseDate(v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func runTxAdd(cmd *cobra.Command, args []string) error {
	amount, err := core.ParseAmount(args[1])
	if err != nil {
		return err
	}
	cat, err := core.ParseCategory(flagTxCategory)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	dates, err := selectedDates(s.Ledger.Today())
	if err != nil {
		return err
	}
	res, err := s.Ledger.AddTransaction(ctx, services.Draft{
		Description: args[0],
		Amount:      amount,
		Category:    cat,
	}, dates)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		fmt.Println(cli.Muted("warning: " + res.Warning))
	}
	for i, id := range res.IDs {
		fmt.Printf("#%d  %s\n", id, res.Dates[i])
	}
	return nil
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", s)
	}
	return id, nil
}

func runTxEdit(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg(args[0])
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(args[2])
	if err != nil {
		return err
	}
	cat, err := core.ParseCategory(flagTxCategory)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Ledger.EditTransaction(ctx, id, args[1], amount, cat); err != nil {
		return err
	}
	fmt.Printf("Transaction #%d updated\n", id)
	return nil
}

func runTxRemove(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseIDArg(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, id := range ids {
		if err := s.Ledger.DeleteTransaction(ctx, id); err != nil {
			return fmt.Errorf("#%d: %w", id, err)
		}
		fmt.Printf("Transaction #%d deleted\n", id)
	}
	return nil
}

func runTxList(cmd *cobra.Command, _ []string) error {
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
	var regular, misc []core.Transaction
	for _, t := range txs {
		if t.IsMisc() {
			misc = append(misc, t)
		} else {
			regular = append(regular, t)
		}
	}
	if !flagTxMisc {
		fmt.Println(cli.RenderTransactions("Transactions", regular))
	}
	if len(misc) > 0 || flagTxMisc {
		fmt.Println(cli.RenderTransactions("Miscellaneous", misc))
	}
	return nil
}
