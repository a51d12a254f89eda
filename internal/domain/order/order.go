// Package order manages the order lifecycle: placement, status transitions,
// and the inventory reconciliation that status changes drive.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", errors.Errorf("unknown order status: %q", s)
}

// HoldsInventory reports whether stock is considered deducted while an
// order sits in this status. Transitions across this boundary trigger
// inventory adjustment.
func (s Status) HoldsInventory() bool {
	switch s {
	case StatusPaid, StatusShipped, StatusCompleted:
		return true
	default:
		return false
	}
}

var (
	// ErrNotFound is returned when a referenced order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStatusConflict is returned when a status transition loses a race
	// against a concurrent transition on the same order.
	ErrStatusConflict = errors.New("order status changed concurrently")
	// ErrEmptyItems is returned when an order is placed with no items.
	ErrEmptyItems = errors.New("items required")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return "quantity must be greater than 0 for product " + e.ProductID
}

// Order is a placed customer order. Items and Charges are immutable
// snapshots taken at creation time; status (and notes) are the only
// permitted mutation paths afterwards.
type Order struct {
	ID              string
	Status          Status
	SubtotalAmount  decimal.Decimal
	TotalAmount     decimal.Decimal
	Currency        string
	ShippingAddress map[string]any
	BillingAddress  map[string]any
	Notes           string
	CustomerID      string
	CreatedAt       time.Time
	Items           []Item
	Charges         []Charge
}

// Item is an order line. Product name, variant title, and SKU are copied
// at creation so historical orders are unaffected by later catalog edits.
type Item struct {
	ID           string
	OrderID      string
	ProductID    string
	VariantID    string
	ProductName  string
	VariantTitle string
	SKU          string
	Quantity     int
	UnitPrice    decimal.Decimal
	LineTotal    decimal.Decimal
}

// Charge is a snapshot of a delivery option or charge rule applied to an
// order. Immutable once written.
type Charge struct {
	ID            string
	OrderID       string
	Type          string // "charge" | "discount"
	CalcType      string // "percent" | "amount"
	BaseAmount    decimal.Decimal
	AppliedAmount decimal.Decimal
	DeliveryID    string
	Metadata      map[string]any
}

// Label returns the display label for a charge, falling back on its type.
func (c *Charge) Label() string {
	if l, ok := c.Metadata["label"].(string); ok && l != "" {
		return l
	}
	if c.Type == "charge" {
		return "Delivery"
	}
	return "Discount"
}

// SummaryRow is one order as loaded for the admin list view, with charge
// and item aggregates already folded in by the repository.
type SummaryRow struct {
	ID              string
	CreatedAt       time.Time
	Status          Status
	SubtotalAmount  decimal.Decimal
	TotalAmount     decimal.Decimal
	Currency        string
	Notes           string
	ShippingAddress map[string]any
	BillingAddress  map[string]any
	ItemsCount      int
	DiscountAmount  decimal.Decimal
	ShippingAmount  decimal.Decimal
}

// ItemQuantity is the minimal projection of a line item needed for
// inventory adjustment.
type ItemQuantity struct {
	ProductID string
	VariantID string
	Quantity  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists an order together with its item and charge snapshots
	// in a single transaction.
	Create(ctx context.Context, o *Order) error

	// Get loads an order with its items and charges, or ErrNotFound.
	Get(ctx context.Context, id string) (*Order, error)

	// GetStatus returns only the current status, or ErrNotFound.
	GetStatus(ctx context.Context, id string) (Status, error)

	// UpdateStatusCAS sets the status to next only if it still equals
	// expected. Returns ErrStatusConflict when the guard fails and
	// ErrNotFound when the order does not exist.
	UpdateStatusCAS(ctx context.Context, id string, expected, next Status) error

	// SetStatus unconditionally overwrites the status. Used to revert a
	// transition during compensation.
	SetStatus(ctx context.Context, id string, status Status) error

	// ListItemQuantities returns the line quantities for an order.
	ListItemQuantities(ctx context.Context, orderID string) ([]ItemQuantity, error)

	// ListSummaryRows returns all orders newest-first with item counts and
	// charge sums folded in.
	ListSummaryRows(ctx context.Context) ([]SummaryRow, error)

	// UpdateNotes overwrites the order's notes.
	UpdateNotes(ctx context.Context, id, notes string) error

	// Delete removes an order and its dependent rows.
	Delete(ctx context.Context, id string) error
}
