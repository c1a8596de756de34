package ports

import (
	"context"
	"time"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
)

// CandidateSource discovers fresh article candidates for one configured source.
// An empty result is a valid fetch, not an error.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, src domain.Source) ([]domain.Candidate, error)
}

// ContentFetcher retrieves the readable content behind a candidate URL.
type ContentFetcher interface {
	FetchContent(ctx context.Context, pageURL string) (domain.PageContent, error)
}

// TextEnricher produces summaries, translations, and term annotations.
// Callers treat every failure as a degraded stage, never as a run failure.
type TextEnricher interface {
	Summarize(ctx context.Context, title, body string) (string, error)
	Translate(ctx context.Context, title string) (string, error)
	ExtractKeyTerms(ctx context.Context, title string) ([]string, error)
	ExplainTerms(ctx context.Context, terms []string) (string, error)
}

// Notifier delivers one formatted message to the configured channel. A send
// error is the expected failure path and maps to a failed outcome upstream.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// HistoryStore keeps identifiers of already-notified items across runs.
// Load returns an empty history when the backing store is missing or
// unreadable, and Save swallows write failures; both log instead of
// returning errors. A run must never stop because history is unavailable.
type HistoryStore interface {
	Load(ctx context.Context) []string
	Save(ctx context.Context, history []string, maxItems int)
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
