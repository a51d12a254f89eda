// Package dashboard aggregates storefront statistics for the admin UI.
package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Stats is the headline counters block.
type Stats struct {
	Products      int
	Categories    int
	Orders        int
	PendingOrders int
	LowStockItems int
}

// SalesPoint is revenue and order volume for one calendar day.
type SalesPoint struct {
	Day     time.Time
	Orders  int
	Revenue decimal.Decimal
}

// SalesRange bounds a sales query. Zero bounds are open.
type SalesRange struct {
	From time.Time
	To   time.Time
}

// Repository defines the read queries backing the dashboard.
type Repository interface {
	CountProducts(ctx context.Context) (int, error)
	CountCategories(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	CountOrdersByStatus(ctx context.Context, status string) (int, error)

	// CountLowStock counts inventory records at or below threshold.
	CountLowStock(ctx context.Context, threshold int) (int, error)

	// SalesByDay returns daily buckets for non-cancelled orders within the
	// range, oldest first. Days with no orders are absent.
	SalesByDay(ctx context.Context, r SalesRange) ([]SalesPoint, error)
}
