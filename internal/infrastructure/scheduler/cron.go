package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
	"github.com/cancaonovachor/nova-internal-tools/pkg/logger"
)

// CronScheduler drives recurring runs from a cron expression. A tick that
// fires while the previous run is still going is skipped, so runs never
// overlap and the history store keeps a single writer.
type CronScheduler struct {
	spec string
	loc  *time.Location
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler from expression and timezone.
func NewCronScheduler(spec string, loc *time.Location) *CronScheduler {
	return &CronScheduler{spec: spec, loc: loc}
}

// Start registers the job and launches the cron loop.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	cronLog := cron.PrintfLogger(logger.New("cron"))
	opts := []cron.Option{
		cron.WithLogger(cronLog),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
	}
	if c.loc != nil {
		opts = append(opts, cron.WithLocation(c.loc))
	}

	runner := cron.New(opts...)
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now()) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	runner.Start()
	c.cron = runner
	return nil
}

// Stop halts scheduling and waits for an in-flight job to finish, bounded by
// the context.
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
