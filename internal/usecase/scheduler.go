package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsHarvester/internal/ports"
)

// Scheduler wires the cron driver with the ingestion pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler. A failed
// run is logged and the scheduler keeps waiting for the next trigger.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.log().Info("scheduled run triggered", "at", trigger.Format(time.RFC3339))

		report, err := s.pipeline.Run(ctx)
		if err != nil {
			s.log().Error("scheduled run failed", "error", err)
			return
		}

		s.log().Info("scheduled run finished", "summary", report.String())
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
