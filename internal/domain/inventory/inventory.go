// Package inventory models per-product stock records. Quantities are never
// negative: decrements clamp at zero.
package inventory

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no inventory record exists for a
// (product, variant) pair. Items without a record do not track stock.
var ErrNotFound = errors.New("inventory record not found")

// Record holds the stock level for a (product, variant) pair. An empty
// VariantID means product-level stock. At most one record exists per pair.
type Record struct {
	ID        string
	ProductID string
	VariantID string
	Quantity  int
	Unit      string
}

// Adjustment is the outcome of a single atomic stock mutation. Previous is
// recorded so a failed multi-item adjustment sequence can be compensated.
type Adjustment struct {
	RecordID string
	Previous int
	Current  int
}

// Repository provides stock lookups and mutations.
type Repository interface {
	// Get returns the record for a (product, variant) pair, or ErrNotFound.
	Get(ctx context.Context, productID, variantID string) (*Record, error)

	// Adjust atomically adds delta to the matching record's quantity,
	// clamping the result at zero, and returns the previous and resulting
	// quantities. Returns ErrNotFound when no record exists for the pair.
	Adjust(ctx context.Context, productID, variantID string, delta int) (*Adjustment, error)

	// SetQuantity overwrites a record's quantity. Used to revert a
	// previously applied adjustment during compensation.
	SetQuantity(ctx context.Context, recordID string, quantity int) error
}
