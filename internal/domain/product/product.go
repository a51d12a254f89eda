package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID         string
	Name       string
	SKU        string
	Price      decimal.Decimal
	CategoryID string
	IsActive   bool
}

// Variant is a purchasable variation of a product (size, color, etc.).
// A variant price of zero means the product price applies.
type Variant struct {
	ID        string
	ProductID string
	Title     string
	SKU       string
	Price     decimal.Decimal
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	GetVariantsByIDs(ctx context.Context, ids []string) ([]Variant, error)
}
