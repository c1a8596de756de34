package domain

import "time"

// Candidate is a single article reference discovered at a source. The URL is
// the deduplication identity and must be non-empty; candidates without one
// are dropped at the fetch boundary.
type Candidate struct {
	Title       string
	URL         string
	PublishedAt time.Time // zero when the source carries no date
	Excerpt     string    // body text already carried by the feed entry, if any
	Source      string
	Language    string
}

// HasDate reports whether the source provided a publication timestamp.
func (c Candidate) HasDate() bool {
	return !c.PublishedAt.IsZero()
}

// PageContent is the readable part of a fetched article page.
type PageContent struct {
	Title string
	Body  string
}

// EnrichedItem is a candidate prepared for notification. DisplayTitle is
// always non-empty; when translation is unavailable it falls back to the
// candidate title. Empty Summary or Annotations means the section is absent.
type EnrichedItem struct {
	Candidate    Candidate
	DisplayTitle string
	Summary      string
	Annotations  string
}

// Source describes one configured news origin and its scan policy.
// Instances are immutable for the duration of a run.
type Source struct {
	ID                string
	Name              string
	Fetcher           string
	URL               string
	Language          string
	RecencyWindowDays int
	MaxItemsPerRun    int
	Options           map[string]string
}
