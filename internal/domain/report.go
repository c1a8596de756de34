package domain

import "time"

// Status enumerates per-item notification outcomes.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDuplicate Status = "duplicate"
	StatusStale     Status = "stale"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to a single candidate during a run. Outcomes
// live only for the duration of the run; history persists identifiers alone.
type Outcome struct {
	Status Status
	Reason string
}

// SourceReport aggregates outcomes for one source within a run.
type SourceReport struct {
	Source     string
	Sent       int
	Duplicates int
	Stale      int
	Failed     int
	FetchError string
}

// Record counts an outcome into the matching bucket.
func (r *SourceReport) Record(o Outcome) {
	switch o.Status {
	case StatusSent:
		r.Sent++
	case StatusDuplicate:
		r.Duplicates++
	case StatusStale:
		r.Stale++
	case StatusFailed:
		r.Failed++
	}
}

// RunReport summarizes a full pipeline run across all sources.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []SourceReport
}

// TotalSent sums successful notifications across sources.
func (r RunReport) TotalSent() int {
	total := 0
	for _, src := range r.Sources {
		total += src.Sent
	}
	return total
}

// TotalFailed sums failed notifications across sources.
func (r RunReport) TotalFailed() int {
	total := 0
	for _, src := range r.Sources {
		total += src.Failed
	}
	return total
}
