package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

// Schedule wires the cron driver to the run controller.
type Schedule struct {
	driver     ports.Scheduler
	runner     *Runner
	runOnStart bool
	logger     *slog.Logger
}

// NewSchedule returns a helper to start and stop recurring runs.
func NewSchedule(driver ports.Scheduler, runner *Runner, runOnStart bool, logger *slog.Logger) *Schedule {
	return &Schedule{driver: driver, runner: runner, runOnStart: runOnStart, logger: logger}
}

// Start registers the runner with the scheduler. With runOnStart the first
// pass executes before the cron loop begins, so it cannot overlap a tick.
func (s *Schedule) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if s.logger != nil {
			s.logger.Info("scheduled run starting", "trigger", trigger.Format(time.RFC3339))
		}
		s.runner.Run(ctx)
	}

	if s.runOnStart {
		job(time.Now())
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Schedule) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
