// Package delivery models store-configured delivery options referenced by
// id at checkout time.
package delivery

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no active delivery option matches the id.
var ErrNotFound = errors.New("delivery option not found")

// Option is a shipping method offered at checkout.
type Option struct {
	ID        string
	Label     string
	Amount    decimal.Decimal
	IsActive  bool
	IsDefault bool
	SortOrder int
}

// Repository provides lookup of delivery options.
type Repository interface {
	// ListActive returns all active options ordered by SortOrder.
	ListActive(ctx context.Context) ([]Option, error)
	// GetActive returns the active option with the given id, or ErrNotFound.
	GetActive(ctx context.Context, id string) (*Option, error)
}
