package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/filter"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

// CommitPolicy decides when the working history reaches the store.
type CommitPolicy string

const (
	// CommitBatch writes once at the end of the run, and only when at least
	// one notification succeeded.
	CommitBatch CommitPolicy = "batch"
	// CommitPerItem writes after every successful notification, so an
	// interrupted run loses at most the in-flight item.
	CommitPerItem CommitPolicy = "perItem"
)

// Enricher turns one candidate into a notification-ready item.
type Enricher interface {
	Enrich(ctx context.Context, candidate domain.Candidate) domain.EnrichedItem
}

// Dispatcher delivers one enriched item and reports what happened.
type Dispatcher interface {
	Dispatch(ctx context.Context, item domain.EnrichedItem) domain.Outcome
}

// RunnerDeps wires collaborators and run policies into the controller.
type RunnerDeps struct {
	Sources    []domain.Source
	Source     ports.CandidateSource
	Enricher   Enricher
	Dispatcher Dispatcher
	History    ports.HistoryStore

	MaxHistoryItems int
	CommitPolicy    CommitPolicy
	// IgnoreHistory skips both the load and every save: the run treats all
	// candidates as new and leaves no trace.
	IgnoreHistory bool
	// ReadOnlyHistory still loads (so duplicates are skipped) but never
	// saves. Preview runs use it so a later real run still sends the items.
	ReadOnlyHistory bool

	Logger *slog.Logger
}

// Runner drives one pass of the pipeline: load history, process each source
// in configured order, commit history per the configured policy. A failing
// source or item never aborts the pass.
type Runner struct {
	sources    []domain.Source
	source     ports.CandidateSource
	enricher   Enricher
	dispatcher Dispatcher
	history    ports.HistoryStore

	maxHistoryItems int
	commitPolicy    CommitPolicy
	ignoreHistory   bool
	readOnlyHistory bool

	logger *slog.Logger
	now    func() time.Time
}

// NewRunner constructs the run controller.
func NewRunner(deps RunnerDeps) *Runner {
	policy := deps.CommitPolicy
	if policy == "" {
		policy = CommitBatch
	}

	return &Runner{
		sources:         deps.Sources,
		source:          deps.Source,
		enricher:        deps.Enricher,
		dispatcher:      deps.Dispatcher,
		history:         deps.History,
		maxHistoryItems: deps.MaxHistoryItems,
		commitPolicy:    policy,
		ignoreHistory:   deps.IgnoreHistory,
		readOnlyHistory: deps.ReadOnlyHistory,
		logger:          deps.Logger,
		now:             time.Now,
	}
}

// Run executes one complete pass and returns its report. Cancellation cuts
// the pass short, but identifiers of already-acknowledged notifications stay
// in the working history and the final commit is still attempted.
func (r *Runner) Run(ctx context.Context) domain.RunReport {
	report := domain.RunReport{StartedAt: r.now()}

	var working []string
	if r.usesHistory() {
		working = r.history.Load(ctx)
	} else {
		r.info("running without history; every candidate counts as new")
	}
	seen := filter.HistorySet(working)

	r.info("run started", "sources", len(r.sources), "history_size", len(working))

	for _, src := range r.sources {
		if ctx.Err() != nil {
			r.warn("run cancelled", "error", ctx.Err())
			break
		}
		report.Sources = append(report.Sources, r.processSource(ctx, src, &working, seen))
	}

	if r.commits() && r.commitPolicy == CommitBatch && report.TotalSent() > 0 {
		// Acknowledged sends must survive cancellation, so the commit runs
		// even when ctx is already done.
		r.history.Save(context.WithoutCancel(ctx), working, r.maxHistoryItems)
	}

	report.FinishedAt = r.now()
	r.logSummary(report)
	return report
}

// processSource fetches, filters, enriches, and dispatches one source's
// candidates. Fetch failures are recorded on the report and skip the source;
// item failures are recorded and skip the item.
func (r *Runner) processSource(ctx context.Context, src domain.Source, working *[]string, seen map[string]struct{}) domain.SourceReport {
	srcReport := domain.SourceReport{Source: src.Name}

	if r.source == nil {
		srcReport.FetchError = "no candidate source configured"
		return srcReport
	}

	candidates, err := r.source.FetchCandidates(ctx, src)
	if err != nil {
		r.warn("fetch source failed", "source", src.ID, "error", err)
		srcReport.FetchError = err.Error()
		return srcReport
	}

	r.debug("source fetched", "source", src.ID, "candidates", len(candidates))

	kept := 0
	for _, candidate := range filter.OldestFirst(candidates) {
		if ctx.Err() != nil {
			r.warn("source processing cancelled", "source", src.ID, "error", ctx.Err())
			break
		}

		switch filter.Classify(candidate, seen, src.RecencyWindowDays, r.now()) {
		case filter.NoIdentity:
			r.debug("candidate without url dropped", "source", src.ID, "title", candidate.Title)
			continue
		case filter.Duplicate:
			srcReport.Record(domain.Outcome{Status: domain.StatusDuplicate})
			continue
		case filter.Stale:
			r.debug("stale candidate skipped", "source", src.ID, "url", candidate.URL)
			srcReport.Record(domain.Outcome{Status: domain.StatusStale})
			continue
		}

		if src.MaxItemsPerRun > 0 && kept == src.MaxItemsPerRun {
			r.info("per-run cap reached", "source", src.ID, "cap", src.MaxItemsPerRun)
			break
		}
		kept++

		item := r.enrich(ctx, candidate)
		outcome := r.dispatch(ctx, item)
		srcReport.Record(outcome)

		if outcome.Status != domain.StatusSent {
			continue
		}

		r.info("notified", "source", src.ID, "title", item.DisplayTitle, "url", candidate.URL)
		seen[candidate.URL] = struct{}{}
		*working = append(*working, candidate.URL)

		if r.commits() && r.commitPolicy == CommitPerItem {
			r.history.Save(ctx, *working, r.maxHistoryItems)
		}
	}

	return srcReport
}

func (r *Runner) enrich(ctx context.Context, candidate domain.Candidate) domain.EnrichedItem {
	if r.enricher == nil {
		return domain.EnrichedItem{Candidate: candidate, DisplayTitle: candidate.Title}
	}
	return r.enricher.Enrich(ctx, candidate)
}

func (r *Runner) dispatch(ctx context.Context, item domain.EnrichedItem) domain.Outcome {
	if r.dispatcher == nil {
		return domain.Outcome{Status: domain.StatusFailed, Reason: "no dispatcher configured"}
	}
	return r.dispatcher.Dispatch(ctx, item)
}

// usesHistory reports whether this run reads the store at all.
func (r *Runner) usesHistory() bool {
	return !r.ignoreHistory && r.history != nil
}

// commits reports whether this run is allowed to write the store.
func (r *Runner) commits() bool {
	return r.usesHistory() && !r.readOnlyHistory
}

func (r *Runner) logSummary(report domain.RunReport) {
	for _, src := range report.Sources {
		args := []any{
			"source", src.Source,
			"sent", src.Sent,
			"duplicates", src.Duplicates,
			"stale", src.Stale,
			"failed", src.Failed,
		}
		if src.FetchError != "" {
			args = append(args, "fetch_error", src.FetchError)
		}
		r.info("source processed", args...)
	}
	r.info("run finished",
		"sent", report.TotalSent(),
		"failed", report.TotalFailed(),
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}

func (r *Runner) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
