// Package dispatch renders enriched items into chat messages and delivers
// them through the configured notifier, one transport attempt per item.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

// timeFormat is the publish-date layout readers of the notifications expect.
const timeFormat = "2006/01/02 15:04"

// primaryLanguage is the audience's language. Items already in it get a
// single title line instead of the bilingual pair.
const primaryLanguage = "ja"

// Dispatcher sends one message per enriched item and paces consecutive
// sends so the webhook is not hammered.
type Dispatcher struct {
	notifier ports.Notifier
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher builds a dispatcher. sendInterval throttles consecutive
// sends; zero or negative disables pacing.
func NewDispatcher(notifier ports.Notifier, sendInterval time.Duration, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{notifier: notifier, logger: logger, now: time.Now}
	if sendInterval > 0 {
		d.limiter = rate.NewLimiter(rate.Every(sendInterval), 1)
	}
	return d
}

// Dispatch formats and sends one item. The notifier is called exactly once;
// a failed send is reported in the outcome and retried only on a later run,
// never within this one.
func (d *Dispatcher) Dispatch(ctx context.Context, item domain.EnrichedItem) domain.Outcome {
	if d.notifier == nil {
		return domain.Outcome{Status: domain.StatusFailed, Reason: "no notifier configured"}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return domain.Outcome{Status: domain.StatusFailed, Reason: err.Error()}
		}
	}

	if err := d.notifier.Send(ctx, d.Format(item)); err != nil {
		d.warn("send failed", "url", item.Candidate.URL, "error", err)
		return domain.Outcome{Status: domain.StatusFailed, Reason: err.Error()}
	}

	return domain.Outcome{Status: domain.StatusSent}
}

// Format renders the notification text for one item. Items without a publish
// date show the current time; empty summary and annotation sections are
// omitted entirely rather than rendered as bare headers.
func (d *Dispatcher) Format(item domain.EnrichedItem) string {
	published := item.Candidate.PublishedAt
	if published.IsZero() {
		published = d.now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 『%s』の新着記事です！\n", item.Candidate.Source)
	fmt.Fprintf(&b, "📆公開日時: %s\n", published.Format(timeFormat))

	if lang := item.Candidate.Language; lang != "" && lang != primaryLanguage {
		fmt.Fprintf(&b, "🇺🇸英語タイトル: %s\n", item.Candidate.Title)
		fmt.Fprintf(&b, "🇯🇵日本語タイトル: %s\n", item.DisplayTitle)
	} else {
		fmt.Fprintf(&b, "📄タイトル: %s\n", item.DisplayTitle)
	}

	fmt.Fprintf(&b, "🔗リンク: %s", item.Candidate.URL)

	if item.Summary != "" {
		fmt.Fprintf(&b, "\n\n📝 要約\n\n%s", item.Summary)
	}
	if item.Annotations != "" {
		fmt.Fprintf(&b, "\n\n📚 用語解説\n\n%s", item.Annotations)
	}

	return b.String()
}

func (d *Dispatcher) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
