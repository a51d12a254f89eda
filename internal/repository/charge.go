package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/charge"
)

const listActiveChargesSQL = `SELECT id, label, type, calc_type, amount, is_active, sort_order
	FROM charge_options WHERE is_active = TRUE ORDER BY sort_order, label`

var _ charge.Repository = (*ChargeRepository)(nil)

// ChargeRepository implements charge.Repository backed by PostgreSQL.
type ChargeRepository struct {
	pool *pgxpool.Pool
}

// NewChargeRepository returns a ChargeRepository that uses the given pool.
func NewChargeRepository(pool *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{pool: pool}
}

// ListActive returns all active charge rules in display order.
func (r *ChargeRepository) ListActive(ctx context.Context) ([]charge.Rule, error) {
	rows, err := r.pool.Query(ctx, listActiveChargesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing charge rules: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (charge.Rule, error) {
		var (
			rule     charge.Rule
			typ      string
			calcType string
		)
		err := row.Scan(&rule.ID, &rule.Label, &typ, &calcType, &rule.Amount, &rule.IsActive, &rule.SortOrder)
		rule.Type = charge.Type(typ)
		rule.CalcType = charge.CalcType(calcType)
		return rule, err
	})
}
