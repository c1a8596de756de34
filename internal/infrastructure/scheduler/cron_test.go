package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestStartRejectsInvalidExpression(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler("not a cron line", nil)
	err := c.Start(context.Background(), func(time.Time) {})
	if err == nil {
		t.Fatal("expected error for a malformed cron expression")
	}
	if !strings.Contains(err.Error(), "invalid cron expression") {
		t.Errorf("error %q does not name the expression", err)
	}
}

func TestStartThenStop(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler("0 8 * * *", time.UTC)
	if err := c.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler("0 8 * * *", nil)
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

func TestStartWithoutJobIsInert(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler("0 8 * * *", nil)
	if err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if c.cron != nil {
		t.Fatal("cron loop started without a job")
	}
}
