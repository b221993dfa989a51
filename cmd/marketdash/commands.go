package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"MarketDash/internal/calculator"
	"MarketDash/internal/collector"
	"MarketDash/internal/config"
	"MarketDash/internal/recorder"
	"MarketDash/internal/scheduler"
	"MarketDash/internal/server"
	"MarketDash/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	configPath string
	symbol     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "marketdash",
		Short:        "MarketDash - live single-symbol market data dashboard backend",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file path (default $CONFIG_PATH or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&flags.symbol, "symbol", "", "ticker symbol, overrides config")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level, overrides config")

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newFetchCmd(flags))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the provider and serve the snapshot over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			return a.run()
		},
	}
}

func newFetchCmd(flags *globalFlags) *cobra.Command {
	var (
		timeout   time.Duration
		withStats bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every kind once, print the snapshot as JSON and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			return a.fetchOnce(cmd.Context(), timeout, withStats)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "how long to wait for every kind to arrive")
	cmd.Flags().BoolVar(&withStats, "stats", false, "print derived stats instead of the raw snapshot")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marketdash %s\n", version)
		},
	}
}

type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	rec    recorder.Recorder
	store  *store.Store
	sched  *scheduler.Scheduler
}

func newApp(flags *globalFlags) (*app, error) {
	cfgPath := flags.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			cfgPath = v
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.symbol != "" {
		cfg.DataSource.Symbol = flags.symbol
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	var market collector.MarketSource
	switch cfg.DataSource.Provider {
	case config.ProviderYahoo:
		market = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	default:
		market = collector.NewAlphaVantageFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	sources := collector.NewSources(market, collector.NewSimulatedFetcher())
	logger.WithFields(logrus.Fields{
		"quote":     collector.Name(sources.Quote),
		"ownership": collector.Name(sources.Ownership),
	}).Info("data sources configured")

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	st := store.New(store.WithLogger(logger))
	sched := scheduler.NewScheduler(st, sources,
		scheduler.WithLogger(logger),
		scheduler.WithRecorder(rec),
	)
	return &app{cfg: cfg, logger: logger, rec: rec, store: st, sched: sched}, nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func (a *app) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.WithField("symbol", a.cfg.DataSource.Symbol).Info("MarketDash starting")

	srv := server.NewServer(a.store, a.sched, a.logger)
	if err := a.sched.Start(a.cfg.DataSource.Symbol, a.cfg.Scheduler()); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.sched.Stop()

	go func() {
		select {
		case <-a.store.Ready():
			a.logger.Info("all data kinds received, dashboard ready")
		case <-ctx.Done():
		}
	}()

	if err := srv.Run(ctx, a.cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.logger.Info("shutdown signal received, stopping")
	return nil
}

func (a *app) fetchOnce(ctx context.Context, timeout time.Duration, withStats bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.sched.Start(a.cfg.DataSource.Symbol, a.cfg.Scheduler()); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.sched.Stop()

	select {
	case <-a.store.Ready():
	case <-time.After(timeout):
		return fmt.Errorf("not every data kind arrived within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	var out any = a.store.Snapshot()
	if withStats {
		out = calculator.Compute(a.store.Snapshot())
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *app) close() {
	if err := a.rec.Close(); err != nil {
		a.logger.WithError(err).Warn("close recorder")
	}
}
