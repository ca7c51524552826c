package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cli"
	apphttp "saldo/internal/http"
	"saldo/internal/log"
	"saldo/internal/services"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	// The publisher stays a nil interface when AMQP is off.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	}

	app, err := cli.OpenLedger(context.Background(), cfg, logger, publisher)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	if cfg.RollForwardOnStart {
		res, err := app.Ledger.RollForward(context.Background())
		if err != nil {
			logger.Error("Roll-forward on start failed", log.FieldError, err)
		} else {
			logger.Info("Roll-forward on start",
				log.FieldMode, string(res.Mode),
				log.FieldAmountCents, res.Added.Cents,
				log.FieldBalanceCents, res.Balance.Cents)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, app.Ledger, apphttp.Options{
		Logger: logger,
		Ping:   apphttp.PingFunc(app.Backend.Ping),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Stopping server", log.FieldOperation, log.OpShutdown)
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := app.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting saldo server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldMode, string(app.Ledger.Mode()),
		"config_file", cfg.ConfigFile)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
