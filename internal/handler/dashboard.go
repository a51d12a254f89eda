package handler

import (
	"net/http"
	"time"

	"github.com/xenking/storefront-api/internal/domain/dashboard"
)

// DashboardStats returns the headline admin counters.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.GetStats(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":      stats.Products,
		"categories":    stats.Categories,
		"orders":        stats.Orders,
		"pendingOrders": stats.PendingOrders,
		"lowStockItems": stats.LowStockItems,
	})
}

// DashboardSales returns daily sales buckets. Optional "from" and "to"
// query parameters accept YYYY-MM-DD dates.
func (h *Handler) DashboardSales(w http.ResponseWriter, r *http.Request) {
	var sr dashboard.SalesRange

	q := r.URL.Query()
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		sr.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		sr.To = t
	}

	if !sr.From.IsZero() && !sr.To.IsZero() && sr.To.Before(sr.From) {
		writeError(w, http.StatusBadRequest, "to date precedes from date")
		return
	}

	points, err := h.dashboard.GetSales(r.Context(), sr)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(points))
	for _, p := range points {
		out = append(out, map[string]any{
			"day":     p.Day.Format("2006-01-02"),
			"orders":  p.Orders,
			"revenue": p.Revenue.InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
