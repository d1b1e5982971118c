package collector

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means no live price could be confidently extracted.
	ErrUnavailable = errors.New("price unavailable")
	// ErrNotFound means a symbol lookup produced no candidate.
	ErrNotFound = errors.New("symbol not found")
)

// PriceSource reads the latest price for a canonical symbol.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// SymbolResolver maps a free-text company name or ticker to a canonical
// symbol. It returns at most one candidate.
type SymbolResolver interface {
	ResolveSymbol(ctx context.Context, query string) (string, error)
}
