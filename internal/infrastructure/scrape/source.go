package scrape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
	"github.com/cancaonovachor/nova-internal-tools/internal/scanner"
)

// StrategySource implements CandidateSource via registered scanner strategies.
// It is also the fetch boundary that discards candidates without a URL: those
// have no deduplication identity and can never be tracked.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.CandidateSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// FetchCandidates resolves the source's strategy and executes it.
func (s *StrategySource) FetchCandidates(ctx context.Context, src domain.Source) ([]domain.Candidate, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(src.Fetcher)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}

	s.debug("scan source", "source", src.ID, "fetcher", src.Fetcher, "url", src.URL)

	results, err := strategy.Scan(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", src.ID, err)
	}

	candidates := make([]domain.Candidate, 0, len(results))
	for _, c := range results {
		if c.URL == "" {
			s.debug("drop candidate without url", "source", src.ID, "title", c.Title)
			continue
		}
		if c.Source == "" {
			c.Source = src.Name
		}
		if c.Language == "" {
			c.Language = src.Language
		}
		candidates = append(candidates, c)
	}

	s.debug("source produced candidates", "source", src.ID, "count", len(candidates))
	return candidates, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
