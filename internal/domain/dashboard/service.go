package dashboard

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultLowStockThreshold flags inventory records needing replenishment.
const DefaultLowStockThreshold = 5

// Service computes dashboard views from repository aggregates.
type Service struct {
	repo              Repository
	lowStockThreshold int
}

// NewService creates a dashboard Service. A non-positive threshold falls
// back to DefaultLowStockThreshold.
func NewService(repo Repository, lowStockThreshold int) *Service {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &Service{repo: repo, lowStockThreshold: lowStockThreshold}
}

// GetStats gathers the headline counters. The independent counts run
// concurrently and the first failure cancels the rest.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Products, err = s.repo.CountProducts(gctx)
		return errors.Wrap(err, "count products")
	})
	g.Go(func() (err error) {
		stats.Categories, err = s.repo.CountCategories(gctx)
		return errors.Wrap(err, "count categories")
	})
	g.Go(func() (err error) {
		stats.Orders, err = s.repo.CountOrders(gctx)
		return errors.Wrap(err, "count orders")
	})
	g.Go(func() (err error) {
		stats.PendingOrders, err = s.repo.CountOrdersByStatus(gctx, "pending")
		return errors.Wrap(err, "count pending orders")
	})
	g.Go(func() (err error) {
		stats.LowStockItems, err = s.repo.CountLowStock(gctx, s.lowStockThreshold)
		return errors.Wrap(err, "count low stock")
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetSales returns one point per day over the range, including empty days,
// so charts render a continuous axis. An unbounded range defaults to the
// trailing 30 days ending today.
func (s *Service) GetSales(ctx context.Context, r SalesRange) ([]SalesPoint, error) {
	now := time.Now().UTC()
	if r.To.IsZero() {
		r.To = now
	}
	if r.From.IsZero() {
		r.From = r.To.AddDate(0, 0, -29)
	}
	r.From = truncateDay(r.From)
	r.To = truncateDay(r.To)
	if r.To.Before(r.From) {
		return nil, errors.New("sales range end precedes start")
	}

	points, err := s.repo.SalesByDay(ctx, r)
	if err != nil {
		return nil, errors.Wrap(err, "load sales")
	}

	byDay := make(map[time.Time]SalesPoint, len(points))
	for _, p := range points {
		byDay[truncateDay(p.Day)] = p
	}

	days := int(r.To.Sub(r.From).Hours()/24) + 1
	out := make([]SalesPoint, 0, days)
	for day := r.From; !day.After(r.To); day = day.AddDate(0, 0, 1) {
		if p, ok := byDay[day]; ok {
			p.Day = day
			out = append(out, p)
			continue
		}
		out = append(out, SalesPoint{Day: day})
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
