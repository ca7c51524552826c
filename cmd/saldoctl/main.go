// Command saldoctl manages the ledger from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"saldo/internal/amqp"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/log"
	"saldo/internal/services"
)

var (
	flagLogLevel string
	flagBackend  string
)

var rootCmd = &cobra.Command{
	Use:           "saldoctl",
	Short:         "Personal finance ledger",
	Long:          "Record transactions, keep the balance and project it to the end of the month.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Override DATA_BACKEND (memory, sqlite, postgres)")
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session is an opened ledger plus whatever must be closed after the command.
type session struct {
	*cli.App
	amqp *amqp.Client
}

func (s *session) Close() {
	if s.amqp != nil {
		_ = s.amqp.Close()
	}
	_ = s.App.Close()
}

// openLedger loads configuration and opens the ledger. Writes are announced
// on AMQP when it is configured, so a running worker re-exports.
func openLedger(ctx context.Context) (*session, error) {
	logger := cli.SetupLogger(flagLogLevel, "saldoctl")

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{}
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err)
		} else {
			s.amqp = client
			publisher = client
		}
	}

	app, err := cli.OpenLedger(ctx, cfg, logger, publisher)
	if err != nil {
		if s.amqp != nil {
			_ = s.amqp.Close()
		}
		return nil, err
	}
	s.App = app
	return s, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 30*time.Second)
}
