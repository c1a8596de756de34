package scanner

import (
	"context"
	"fmt"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
)

// Scanner captures a single fetch strategy (RSS feed, HTML link listing, ...).
// Implementations read the source URL and per-source options and return raw
// candidates in the order the site lists them.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, src domain.Source) ([]domain.Candidate, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
