// Package feed implements the RSS/Atom fetch strategy.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/scanner"
)

// RSSScanner pulls article candidates from RSS and Atom feeds. The feed's
// own summary travels along as the candidate excerpt so enrichment can skip
// a page fetch.
type RSSScanner struct {
	parser *gofeed.Parser
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client and user agent into the feed parser.
func NewRSSScanner(client *http.Client, userAgent string) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	fp := gofeed.NewParser()
	fp.Client = client
	fp.UserAgent = userAgent

	return &RSSScanner{parser: fp}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan parses the feed and maps entries to candidates in feed order.
func (r *RSSScanner) Scan(ctx context.Context, src domain.Source) ([]domain.Candidate, error) {
	parsed, err := r.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Title:       strings.TrimSpace(item.Title),
			URL:         item.Link,
			PublishedAt: itemTime(item),
			Excerpt:     itemExcerpt(item),
			Source:      src.Name,
			Language:    src.Language,
		})
	}

	return candidates, nil
}

// itemTime prefers the parsed timestamps and falls back to lenient parsing of
// the raw date strings for feeds with exotic formats.
func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}

	return time.Time{}
}

func itemExcerpt(item *gofeed.Item) string {
	if s := strings.TrimSpace(item.Description); s != "" {
		return s
	}
	return strings.TrimSpace(item.Content)
}
