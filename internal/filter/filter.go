// Package filter holds the pure decision logic of the pipeline: duplicate
// detection, recency windows, and processing order. It performs no I/O.
package filter

import (
	"time"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
)

// Decision classifies one candidate against the run's history snapshot.
type Decision int

const (
	Keep Decision = iota
	NoIdentity
	Duplicate
	Stale
)

// HistorySet builds the membership index used by Classify.
func HistorySet(history []string) map[string]struct{} {
	set := make(map[string]struct{}, len(history))
	for _, url := range history {
		set[url] = struct{}{}
	}
	return set
}

// IsDuplicate reports whether the URL was already notified. Identity is the
// exact string; no normalization is applied, so trailing-slash or query
// variants count as distinct items.
func IsDuplicate(url string, history map[string]struct{}) bool {
	_, ok := history[url]
	return ok
}

// WithinWindow reports whether publishedAt falls inside the recency window
// ending at now. A zero timestamp is always within the window, and the
// window boundary itself is inclusive.
func WithinWindow(publishedAt time.Time, windowDays int, now time.Time) bool {
	if publishedAt.IsZero() {
		return true
	}
	cutoff := now.AddDate(0, 0, -windowDays)
	return !publishedAt.Before(cutoff)
}

// OldestFirst returns the candidates in reverse fetch order. Sources list
// newest entries first, so reversing sends notifications chronologically and
// lets an interrupted run retry the oldest unsent items on the next pass.
func OldestFirst(candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		out[len(candidates)-1-i] = c
	}
	return out
}

// Classify decides what happens to a single candidate. Candidates without a
// URL cannot be deduplicated and are discarded outright.
func Classify(c domain.Candidate, history map[string]struct{}, windowDays int, now time.Time) Decision {
	if c.URL == "" {
		return NoIdentity
	}
	if IsDuplicate(c.URL, history) {
		return Duplicate
	}
	if !WithinWindow(c.PublishedAt, windowDays, now) {
		return Stale
	}
	return Keep
}
