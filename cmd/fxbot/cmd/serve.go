package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxbot/broker/oanda"
	"github.com/rustyeddy/fxbot/config"
	"github.com/rustyeddy/fxbot/engine"
	"github.com/rustyeddy/fxbot/journal"
	"github.com/rustyeddy/fxbot/logging"
	"github.com/rustyeddy/fxbot/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the trading bot: webhook receiver, dashboard API, execution engine",
	Long: `Start the bot against the configured OANDA account.

The webhook receiver and dashboard API listen on webhook.addr; every incoming
signal runs through the full sizing and risk-gate pipeline before any order
is placed.

Example:
  fxbot serve -f config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	if cfg.Oanda.AccountID == "" || cfg.Oanda.APIKey == "" {
		return fmt.Errorf("OANDA credentials not configured: set OANDA_ACCOUNT_ID and OANDA_API_KEY")
	}

	limits, err := cfg.Limits()
	if err != nil {
		return fmt.Errorf("build limits: %w", err)
	}

	jnl, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	brk := oanda.NewClient(cfg.Oanda.AccountID, cfg.Oanda.APIKey, cfg.Oanda.Environment == "practice")

	eng, err := engine.New(engine.Options{
		Broker:            brk,
		Catalog:           cfg.Catalog(),
		Limits:            limits,
		Journal:           jnl,
		Logger:            logger,
		DefaultStopPips:   cfg.Trading.DefaultStopPips,
		DefaultTargetPips: cfg.Trading.DefaultTargetPips,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	logger.WithField("environment", cfg.Oanda.Environment).Info("fxbot starting")

	if !cfg.Webhook.Enabled {
		logger.Info("webhook disabled, nothing to serve")
		return nil
	}

	srv := webhook.NewServer(webhook.Options{
		Addr:       cfg.Webhook.Addr,
		Engine:     eng,
		History:    jnl,
		Secret:     cfg.Webhook.Secret,
		AllowedIPs: cfg.Webhook.AllowedIPs,
		Logger:     logger,
	})

	// Serve until interrupted, then drain.
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-stop:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
