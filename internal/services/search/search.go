// Package search finds tradable symbols in the exchange's ticker catalog.
package search

import (
	"context"

	"github.com/vadiminshakov/coinwatch/internal/domain"
)

const (
	// MinTermLength is the shortest term that triggers a catalog lookup;
	// anything shorter returns no results.
	MinTermLength = 2
	// DefaultLimit caps results by provider ranking.
	DefaultLimit = 10
)

// Searcher returns catalog matches for a user-entered term.
type Searcher interface {
	Search(ctx context.Context, term string) ([]domain.Coin, error)
}
