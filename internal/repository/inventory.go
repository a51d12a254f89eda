package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/inventory"
)

const (
	getInventorySQL = `SELECT id, product_id, COALESCE(variant_id, ''), quantity, unit
		FROM inventory
		WHERE product_id = $1 AND COALESCE(variant_id, '') = $2`

	// The row lock taken by FOR UPDATE makes read-modify-write safe under
	// concurrent adjustments; GREATEST enforces the non-negative invariant
	// at the same place the quantity changes.
	adjustInventorySQL = `WITH target AS (
		SELECT id, quantity FROM inventory
		WHERE product_id = $1 AND COALESCE(variant_id, '') = $2
		FOR UPDATE
	)
	UPDATE inventory i SET quantity = GREATEST(0, target.quantity + $3)
	FROM target WHERE i.id = target.id
	RETURNING i.id, target.quantity, i.quantity`

	setInventoryQuantitySQL = `UPDATE inventory SET quantity = GREATEST(0, $2) WHERE id = $1`
)

var _ inventory.Repository = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Repository backed by PostgreSQL.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Get returns the stock record for a (product, variant) pair.
func (r *InventoryRepository) Get(ctx context.Context, productID, variantID string) (*inventory.Record, error) {
	var rec inventory.Record
	err := r.pool.QueryRow(ctx, getInventorySQL, productID, variantID).Scan(
		&rec.ID, &rec.ProductID, &rec.VariantID, &rec.Quantity, &rec.Unit,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, fmt.Errorf("getting inventory for product %q variant %q: %w", productID, variantID, err)
	}
	return &rec, nil
}

// Adjust atomically adds delta to the record's quantity, clamped at zero,
// and reports the previous and resulting quantities.
func (r *InventoryRepository) Adjust(ctx context.Context, productID, variantID string, delta int) (*inventory.Adjustment, error) {
	var adj inventory.Adjustment
	err := r.pool.QueryRow(ctx, adjustInventorySQL, productID, variantID, delta).Scan(
		&adj.RecordID, &adj.Previous, &adj.Current,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, fmt.Errorf("adjusting inventory for product %q variant %q: %w", productID, variantID, err)
	}
	return &adj, nil
}

// SetQuantity overwrites a record's quantity, clamped at zero.
func (r *InventoryRepository) SetQuantity(ctx context.Context, recordID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, setInventoryQuantitySQL, recordID, quantity)
	if err != nil {
		return fmt.Errorf("setting inventory quantity for record %q: %w", recordID, err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrNotFound
	}
	return nil
}
