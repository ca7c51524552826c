package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saldo/internal/cli"
	"saldo/internal/core"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the stored balance",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

var balanceSetCmd = &cobra.Command{
	Use:   "set AMOUNT",
	Short: "Overwrite the stored balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBalanceSet,
}

var rollForwardCmd = &cobra.Command{
	Use:   "roll-forward",
	Short: "Fold income dated up to today into the balance",
	Args:  cobra.NoArgs,
	RunE:  runRollForward,
}

func init() {
	balanceCmd.AddCommand(balanceSetCmd, rollForwardCmd)
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	b, err := s.Ledger.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Println(cli.FormatMoney(b))
	return nil
}

func runBalanceSet(cmd *cobra.Command, args []string) error {
	amount, err := core.ParseAmount(args[0])
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

	if err := s.Ledger.SetBalance(ctx, amount); err != nil {
		return err
	}
	fmt.Printf("Balance set to %s\n", cli.FormatMoney(amount))
	return nil
}

func runRollForward(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Ledger.RollForward(ctx)
	if err != nil {
		return err
	}
	if res.Added.IsZero() {
		fmt.Printf("No income to roll forward (%s mode). Balance %s\n", res.Mode, cli.FormatMoney(res.Balance))
		return nil
	}
	fmt.Printf("Added %s (%s mode). Balance %s\n",
		cli.FormatMoney(res.Added), res.Mode, cli.FormatMoney(res.Balance))
	return nil
}
