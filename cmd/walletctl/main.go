package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wallet/internal/backend"
	"wallet/internal/cli"
	"wallet/internal/config"
	applog "wallet/internal/log"
	"wallet/internal/report"
	"wallet/internal/services"
)

var (
	logger  *applog.Logger
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "walletctl",
		Short: "Administer the wallet ledger",
		Long: `walletctl seeds, exports and maintains the wallet ledger using the
same environment configuration as the wallet server.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().String("backend", "", "data backend override (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path override")

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(migrateCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	logger = cli.SetupLogger(applog.ComponentCLI)

	cfg = config.Load()
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.DataBackend = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.SQLiteDBPath = v
	}
	// One-shot commands never benefit from a shared feed cache.
	cfg.CacheBackend = "none"
	return cfg.Validate()
}

// app bundles the services a command works with.
type app struct {
	backend *backend.BackendResult
	reports *report.Service
	ledger  *services.LedgerService
}

func openApp(ctx context.Context) (*app, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return &app{
		backend: res,
		reports: cli.NewReportService(res, cfg, logger),
		ledger:  services.NewLedgerService(res.Store, nil, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Cleanup(); err != nil {
		logger.Warn("Backend cleanup error", applog.FieldError, err)
	}
}
