package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the admin list view of an order: charge sums and customer
// contact derived from the stored rows.
type Summary struct {
	ID             string
	CreatedAt      time.Time
	Status         Status
	SubtotalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       string
	CurrencySymbol string
	Notes          string
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	ItemsCount     int
}

// ChargeDetail is one charge row as presented on the order detail view.
type ChargeDetail struct {
	ID            string
	Type          string
	CalcType      string
	BaseAmount    decimal.Decimal
	AppliedAmount decimal.Decimal
	Label         string
}

// Detail extends Summary with raw address payloads, normalized contacts,
// and the full item and charge lists.
type Detail struct {
	Summary
	ShippingAddress map[string]any
	BillingAddress  map[string]any
	ShippingContact Contact
	BillingContact  Contact
	Items           []Item
	Charges         []ChargeDetail
}

// Filters narrows the admin order list. A zero value matches everything.
type Filters struct {
	Status Status // empty or "all" means no status filter
	Search string // case-insensitive substring over id, contact, notes, addresses
}

// ListResult pairs the filtered summaries with status counts computed over
// the UNFILTERED set, so displayed counts always reflect the whole dataset.
type ListResult struct {
	Orders []Summary
	Counts map[string]int
}

// ListSummaries loads all orders, derives per-order summaries, counts
// statuses across the full set, and only then applies the filters.
func (s *Service) ListSummaries(ctx context.Context, f Filters) (*ListResult, error) {
	rows, err := s.orders.ListSummaryRows(ctx)
	if err != nil {
		return nil, err
	}

	type enriched struct {
		Summary
		shipping Contact
		billing  Contact
	}

	summaries := make([]enriched, 0, len(rows))
	for _, row := range rows {
		shipping := ExtractContact(row.ShippingAddress)
		billing := ExtractContact(row.BillingAddress)

		summaries = append(summaries, enriched{
			Summary: Summary{
				ID:             row.ID,
				CreatedAt:      row.CreatedAt,
				Status:         row.Status,
				SubtotalAmount: row.SubtotalAmount,
				DiscountAmount: row.DiscountAmount,
				ShippingAmount: row.ShippingAmount,
				TotalAmount:    row.TotalAmount,
				Currency:       row.Currency,
				CurrencySymbol: s.cfg.CurrencySymbol,
				Notes:          row.Notes,
				CustomerName:   shipping.Name,
				CustomerEmail:  shipping.Email,
				CustomerPhone:  shipping.Phone,
				ItemsCount:     row.ItemsCount,
			},
			shipping: shipping,
			billing:  billing,
		})
	}

	// Counts are computed before filtering, over the whole dataset.
	counts := map[string]int{"all": 0}
	for _, status := range Statuses {
		counts[string(status)] = 0
	}
	for _, sum := range summaries {
		counts[string(sum.Status)]++
		counts["all"]++
	}

	filtered := summaries
	if f.Status != "" && f.Status != "all" {
		kept := filtered[:0:0]
		for _, sum := range filtered {
			if sum.Status == f.Status {
				kept = append(kept, sum)
			}
		}
		filtered = kept
	}

	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		kept := filtered[:0:0]
		for _, sum := range filtered {
			haystack := strings.Join([]string{
				sum.ID,
				sum.CustomerName,
				sum.CustomerEmail,
				sum.CustomerPhone,
				sum.Notes,
				strings.Join(sum.shipping.AddressLines, " "),
				strings.Join(sum.billing.AddressLines, " "),
			}, " ")
			if containsFold(haystack, term) {
				kept = append(kept, sum)
			}
		}
		filtered = kept
	}

	result := &ListResult{Counts: counts, Orders: make([]Summary, len(filtered))}
	for i, sum := range filtered {
		result.Orders[i] = sum.Summary
	}
	return result, nil
}

// GetDetail loads a single order with contacts, items, and charges.
func (s *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	shipping := ExtractContact(o.ShippingAddress)
	billing := ExtractContact(o.BillingAddress)

	discountAmount := decimal.Zero
	shippingAmount := decimal.Zero
	charges := make([]ChargeDetail, 0, len(o.Charges))
	for i := range o.Charges {
		c := &o.Charges[i]
		switch c.Type {
		case "discount":
			discountAmount = discountAmount.Add(c.AppliedAmount)
		case "charge":
			shippingAmount = shippingAmount.Add(c.AppliedAmount)
		}
		charges = append(charges, ChargeDetail{
			ID:            c.ID,
			Type:          c.Type,
			CalcType:      c.CalcType,
			BaseAmount:    c.BaseAmount,
			AppliedAmount: c.AppliedAmount,
			Label:         c.Label(),
		})
	}

	return &Detail{
		Summary: Summary{
			ID:             o.ID,
			CreatedAt:      o.CreatedAt,
			Status:         o.Status,
			SubtotalAmount: o.SubtotalAmount,
			DiscountAmount: discountAmount,
			ShippingAmount: shippingAmount,
			TotalAmount:    o.TotalAmount,
			Currency:       o.Currency,
			CurrencySymbol: s.cfg.CurrencySymbol,
			Notes:          o.Notes,
			CustomerName:   shipping.Name,
			CustomerEmail:  shipping.Email,
			CustomerPhone:  shipping.Phone,
			ItemsCount:     len(o.Items),
		},
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		ShippingContact: shipping,
		BillingContact:  billing,
		Items:           o.Items,
		Charges:         charges,
	}, nil
}
