package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"NewsHarvester/internal/config"
	"NewsHarvester/internal/infrastructure/parser"
	"NewsHarvester/internal/infrastructure/scheduler"
	"NewsHarvester/internal/infrastructure/storage"
	"NewsHarvester/internal/infrastructure/telegram"
	"NewsHarvester/internal/logging"
	"NewsHarvester/internal/usecase"
)

const stopTimeout = 30 * time.Second

// Application wires configuration to use cases and owns the database
// handle for its lifetime.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sqlx.DB
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
}

// New validates configuration and builds a runnable application
// instance. A missing credential fails here, before any pipeline work.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}

	repository, err := storage.New(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	source, err := parser.NewIndexSource(
		cfg.Source.URL,
		cfg.Source.Pattern,
		nil,
		baseLogger.With("component", "source"),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Notifications.Telegram.BotToken)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	notifier, err := telegram.New(
		botAPI,
		cfg.Notifications.Telegram.ChatID,
		baseLogger.With("component", "telegram"),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Fetcher:    parser.NewTextFetcher(nil),
		Repository: repository,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	driver, err := scheduler.NewCronScheduler(
		cfg.Scheduler.Time,
		cfg.Scheduler.Location(),
		baseLogger.With("component", "scheduler"),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		pipeline:  pipeline,
		scheduler: usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler")),
	}, nil
}

// RunOnce performs a single ingestion cycle and exits.
func (a *Application) RunOnce(ctx context.Context) error {
	defer a.Close()

	report, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("run complete", "summary", report.String())
	return nil
}

// Run starts the daily scheduler and blocks until the context is
// cancelled, then waits for an in-flight run to finish.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("scheduler started",
		"time", a.cfg.Scheduler.Time,
		"timezone", a.cfg.Scheduler.Location().String(),
	)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases the database handle.
func (a *Application) Close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}
