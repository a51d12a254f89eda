package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/dashboard"
)

const (
	countProductsSQL   = `SELECT COUNT(*) FROM products WHERE is_active = TRUE`
	countCategoriesSQL = `SELECT COUNT(*) FROM categories`
	countOrdersSQL     = `SELECT COUNT(*) FROM orders`

	countOrdersByStatusSQL = `SELECT COUNT(*) FROM orders WHERE status = $1`

	countLowStockSQL = `SELECT COUNT(*) FROM inventory WHERE quantity <= $1`

	salesByDaySQL = `SELECT date_trunc('day', created_at) AS day,
		COUNT(*), COALESCE(SUM(total_amount), 0)
	FROM orders
	WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2 + INTERVAL '1 day'
	GROUP BY day ORDER BY day`
)

var _ dashboard.Repository = (*DashboardRepository)(nil)

// DashboardRepository implements dashboard.Repository backed by PostgreSQL.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository returns a DashboardRepository that uses the given pool.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

func (r *DashboardRepository) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, countProductsSQL)
}

func (r *DashboardRepository) CountCategories(ctx context.Context) (int, error) {
	return r.count(ctx, countCategoriesSQL)
}

func (r *DashboardRepository) CountOrders(ctx context.Context) (int, error) {
	return r.count(ctx, countOrdersSQL)
}

func (r *DashboardRepository) CountOrdersByStatus(ctx context.Context, status string) (int, error) {
	return r.count(ctx, countOrdersByStatusSQL, status)
}

func (r *DashboardRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	return r.count(ctx, countLowStockSQL, threshold)
}

// SalesByDay returns daily order count and revenue buckets for
// non-cancelled orders inside the range, oldest first.
func (r *DashboardRepository) SalesByDay(ctx context.Context, sr dashboard.SalesRange) ([]dashboard.SalesPoint, error) {
	rows, err := r.pool.Query(ctx, salesByDaySQL, sr.From, sr.To)
	if err != nil {
		return nil, fmt.Errorf("querying daily sales: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dashboard.SalesPoint, error) {
		var p dashboard.SalesPoint
		err := row.Scan(&p.Day, &p.Orders, &p.Revenue)
		return p, err
	})
}

func (r *DashboardRepository) count(ctx context.Context, sql string, args ...any) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}
