package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsHarvester/internal/app"
	"NewsHarvester/internal/config"
	"NewsHarvester/internal/logging"
)

var (
	cfgPath   string
	sourceURL string
	pattern   string
	dbPath    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "newsharvester",
		Short:        "Scans a news index page and posts new articles to Telegram",
		Long:         "newsharvester extracts article links from a configured index page, stores new ones in a local SQLite database, and notifies a Telegram channel about each article exactly once. Without a subcommand it runs as a daemon triggering a daily ingestion cycle.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), false)
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&sourceURL, "url", "", "index page URL or local HTML path")
	root.PersistentFlags().StringVar(&pattern, "pattern", "", "glob pattern for article links (e.g. */2025/*)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database file")

	root.AddCommand(&cobra.Command{
		Use:   "once",
		Short: "Run a single ingestion cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), true)
		},
	})

	return root
}

func run(ctx context.Context, once bool) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load(cfgPath)
	applyFlags(&cfg)

	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}

	if once {
		return application.RunOnce(ctx)
	}
	return application.Run(ctx)
}

// Flags win over config file and environment.
func applyFlags(cfg *config.Config) {
	if sourceURL != "" {
		cfg.Source.URL = sourceURL
	}
	if pattern != "" {
		cfg.Source.Pattern = pattern
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
}
