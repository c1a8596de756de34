// Package enrich turns raw candidates into notification-ready items. Every
// step is best-effort: a failed stage leaves its section empty and the item
// still goes out.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

// minSummaryBodyRunes is the shortest body worth sending to the summarizer.
// Below this the page is usually a stub or a listing fragment.
const minSummaryBodyRunes = 50

// Pipeline assembles the display title, summary, and term annotations for a
// candidate. A nil enricher or content fetcher disables the matching stages.
type Pipeline struct {
	content  ports.ContentFetcher
	enricher ports.TextEnricher
	logger   *slog.Logger
}

// NewPipeline constructs the enrichment pipeline.
func NewPipeline(content ports.ContentFetcher, enricher ports.TextEnricher, logger *slog.Logger) *Pipeline {
	return &Pipeline{content: content, enricher: enricher, logger: logger}
}

// Enrich builds the outgoing item for one candidate. It never fails; the
// zero-value sections of the result mark the stages that were skipped or
// errored.
func (p *Pipeline) Enrich(ctx context.Context, candidate domain.Candidate) domain.EnrichedItem {
	item := domain.EnrichedItem{
		Candidate:    candidate,
		DisplayTitle: candidate.Title,
	}

	if p.enricher == nil {
		return item
	}

	body := p.resolveBody(ctx, candidate)
	if utf8.RuneCountInString(body) >= minSummaryBodyRunes {
		summary, err := p.enricher.Summarize(ctx, candidate.Title, body)
		if err != nil {
			p.warn("summarize failed", "url", candidate.URL, "error", err)
		} else {
			item.Summary = strings.TrimSpace(summary)
		}
	}

	if candidate.Language != "" && candidate.Language != "ja" {
		translated, err := p.enricher.Translate(ctx, candidate.Title)
		if err != nil {
			p.warn("translate failed", "url", candidate.URL, "error", err)
		} else if translated = strings.TrimSpace(translated); translated != "" {
			item.DisplayTitle = translated
		}
	}

	item.Annotations = p.annotate(ctx, candidate)

	return item
}

// resolveBody prefers the excerpt the source already carried and falls back
// to fetching the page.
func (p *Pipeline) resolveBody(ctx context.Context, candidate domain.Candidate) string {
	if excerpt := strings.TrimSpace(candidate.Excerpt); excerpt != "" {
		return excerpt
	}
	if p.content == nil || candidate.URL == "" {
		return ""
	}

	page, err := p.content.FetchContent(ctx, candidate.URL)
	if err != nil {
		p.warn("content fetch failed", "url", candidate.URL, "error", err)
		return ""
	}
	return page.Body
}

// annotate extracts key terms from the title, then asks for explanations.
// No terms means no annotation section.
func (p *Pipeline) annotate(ctx context.Context, candidate domain.Candidate) string {
	terms, err := p.enricher.ExtractKeyTerms(ctx, candidate.Title)
	if err != nil {
		p.warn("extract key terms failed", "url", candidate.URL, "error", err)
		return ""
	}
	if len(terms) == 0 {
		return ""
	}

	explained, err := p.enricher.ExplainTerms(ctx, terms)
	if err != nil {
		p.warn("explain terms failed", "url", candidate.URL, "error", err)
		return ""
	}
	return strings.TrimSpace(explained)
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
