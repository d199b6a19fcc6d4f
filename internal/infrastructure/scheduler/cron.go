package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"NewsHarvester/internal/ports"
)

// CronScheduler triggers a job once a day at a wall-clock time in a
// fixed timezone. Overlapping triggers are skipped, and a panicking job
// is recovered and logged so the process keeps waiting for the next
// trigger.
type CronScheduler struct {
	spec   string
	loc    *time.Location
	logger *slog.Logger
	cron   *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler from an "HH:MM" time of day.
func NewCronScheduler(timeOfDay string, loc *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	spec, err := cronSpec(timeOfDay)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, loc: loc, logger: logger}, nil
}

// Start registers the job and begins waiting for triggers. Calling
// Start on an already started scheduler is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || c.cron != nil {
		return nil
	}

	cronLog := &cronLogger{logger: c.logger}
	runner := cron.New(
		cron.WithLocation(c.loc),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := runner.AddFunc(c.spec, func() {
		job(time.Now().In(c.loc))
	}); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	runner.Start()
	c.cron = runner
	return nil
}

// Stop halts triggering and waits for an in-flight job to complete, so
// a notification in progress is never cut off mid-send.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	done := c.cron.Stop().Done()
	c.cron = nil

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronSpec converts "07:00" into the standard five-field "0 7 * * *".
func cronSpec(timeOfDay string) (string, error) {
	parts := strings.Split(timeOfDay, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, want HH:MM", timeOfDay)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeOfDay)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeOfDay)
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Debug(msg, keysAndValues...)
	}
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		args := append([]interface{}{}, keysAndValues...)
		args = append(args, "error", err)
		l.logger.Error(msg, args...)
	}
}
