package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/delivery"
)

const (
	listActiveDeliverySQL = `SELECT id, label, amount, is_active, is_default, sort_order
		FROM delivery WHERE is_active = TRUE ORDER BY sort_order, label`

	getActiveDeliverySQL = `SELECT id, label, amount, is_active, is_default, sort_order
		FROM delivery WHERE id = $1 AND is_active = TRUE`
)

var _ delivery.Repository = (*DeliveryRepository)(nil)

// DeliveryRepository implements delivery.Repository backed by PostgreSQL.
type DeliveryRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRepository returns a DeliveryRepository that uses the given pool.
func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// ListActive returns all active delivery options in display order.
func (r *DeliveryRepository) ListActive(ctx context.Context) ([]delivery.Option, error) {
	rows, err := r.pool.Query(ctx, listActiveDeliverySQL)
	if err != nil {
		return nil, fmt.Errorf("listing delivery options: %w", err)
	}
	return pgx.CollectRows(rows, scanDeliveryOption)
}

// GetActive returns the active delivery option with the given id.
// Returns delivery.ErrNotFound when the id is unknown or inactive.
func (r *DeliveryRepository) GetActive(ctx context.Context, id string) (*delivery.Option, error) {
	rows, err := r.pool.Query(ctx, getActiveDeliverySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting delivery option %q: %w", id, err)
	}

	opt, err := pgx.CollectExactlyOneRow(rows, scanDeliveryOption)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, delivery.ErrNotFound
		}
		return nil, fmt.Errorf("getting delivery option %q: %w", id, err)
	}
	return &opt, nil
}

func scanDeliveryOption(row pgx.CollectableRow) (delivery.Option, error) {
	var opt delivery.Option
	err := row.Scan(&opt.ID, &opt.Label, &opt.Amount, &opt.IsActive, &opt.IsDefault, &opt.SortOrder)
	return opt, err
}
