package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, status, subtotal_amount, total_amount, currency, shipping_address, billing_address, notes, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))`

	insertOrderItemSQL = `INSERT INTO order_items
		(id, order_id, product_id, variant_id, product_name, variant_title, sku, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)`

	insertOrderChargeSQL = `INSERT INTO order_charges
		(id, order_id, type, calc_type, base_amount, applied_amount, delivery_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`

	getOrderSQL = `SELECT id, status, subtotal_amount, total_amount, currency,
		shipping_address, billing_address, COALESCE(notes, ''), COALESCE(customer_id, ''), created_at
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT id, order_id, COALESCE(product_id, ''), COALESCE(variant_id, ''),
		COALESCE(product_name, ''), COALESCE(variant_title, ''), COALESCE(sku, ''),
		quantity, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`

	getOrderChargesSQL = `SELECT id, order_id, type, calc_type, base_amount, applied_amount,
		COALESCE(delivery_id, ''), metadata
		FROM order_charges WHERE order_id = $1 ORDER BY id`

	getOrderStatusSQL = `SELECT status FROM orders WHERE id = $1`

	updateStatusCASSQL = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`

	setStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	listItemQuantitiesSQL = `SELECT COALESCE(product_id, ''), COALESCE(variant_id, ''), quantity
		FROM order_items WHERE order_id = $1 ORDER BY id`

	listSummaryRowsSQL = `SELECT o.id, o.created_at, o.status, o.subtotal_amount, o.total_amount,
		o.currency, COALESCE(o.notes, ''), o.shipping_address, o.billing_address,
		COALESCE(i.items_count, 0), COALESCE(c.discount_amount, 0), COALESCE(c.shipping_amount, 0)
	FROM orders o
	LEFT JOIN (
		SELECT order_id, COUNT(*) AS items_count
		FROM order_items GROUP BY order_id
	) i ON i.order_id = o.id
	LEFT JOIN (
		SELECT order_id,
			SUM(applied_amount) FILTER (WHERE type = 'discount') AS discount_amount,
			SUM(applied_amount) FILTER (WHERE type = 'charge') AS shipping_amount
		FROM order_charges GROUP BY order_id
	) c ON c.order_id = o.id
	ORDER BY o.created_at DESC`

	updateOrderNotesSQL = `UPDATE orders SET notes = $2 WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order with its item and charge snapshots in a single
// transaction, so a half-written order can never be observed.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	shipping, err := marshalAddress(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}
	billing, err := marshalAddress(o.BillingAddress)
	if err != nil {
		return fmt.Errorf("marshaling billing address: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.Status, o.SubtotalAmount, o.TotalAmount, o.Currency,
		shipping, billing, o.Notes, o.CustomerID,
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			item.ID, o.ID, item.ProductID, item.VariantID,
			item.ProductName, item.VariantTitle, item.SKU,
			item.Quantity, item.UnitPrice, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("inserting order item %q: %w", item.ID, err)
		}
	}

	for _, c := range o.Charges {
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling charge metadata: %w", err)
		}
		_, err = tx.Exec(ctx, insertOrderChargeSQL,
			c.ID, o.ID, c.Type, c.CalcType,
			c.BaseAmount, c.AppliedAmount, c.DeliveryID, metadata,
		)
		if err != nil {
			return fmt.Errorf("inserting order charge %q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads an order with its items and charges.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.Status, &o.SubtotalAmount, &o.TotalAmount, &o.Currency,
		&o.ShippingAddress, &o.BillingAddress, &o.Notes, &o.CustomerID, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order items for %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting order items for %q: %w", id, err)
	}

	rows, err = r.pool.Query(ctx, getOrderChargesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order charges for %q: %w", id, err)
	}
	o.Charges, err = pgx.CollectRows(rows, scanOrderCharge)
	if err != nil {
		return nil, fmt.Errorf("getting order charges for %q: %w", id, err)
	}

	return &o, nil
}

// GetStatus returns the order's current status.
func (r *OrderRepository) GetStatus(ctx context.Context, id string) (order.Status, error) {
	var status order.Status
	err := r.pool.QueryRow(ctx, getOrderStatusSQL, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", order.ErrNotFound
		}
		return "", fmt.Errorf("getting status of order %q: %w", id, err)
	}
	return status, nil
}

// UpdateStatusCAS sets the status only while it still equals expected. A
// zero-row update means either a lost race or a missing order; the follow-up
// existence check tells the two apart.
func (r *OrderRepository) UpdateStatusCAS(ctx context.Context, id string, expected, next order.Status) error {
	tag, err := r.pool.Exec(ctx, updateStatusCASSQL, id, expected, next)
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetStatus(ctx, id); err != nil {
			return err
		}
		return order.ErrStatusConflict
	}
	return nil
}

// SetStatus unconditionally overwrites the order's status.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, setStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("setting status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListItemQuantities returns the line quantities for an order.
func (r *OrderRepository) ListItemQuantities(ctx context.Context, orderID string) ([]order.ItemQuantity, error) {
	rows, err := r.pool.Query(ctx, listItemQuantitiesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing item quantities for %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.ItemQuantity, error) {
		var q order.ItemQuantity
		err := row.Scan(&q.ProductID, &q.VariantID, &q.Quantity)
		return q, err
	})
}

// ListSummaryRows returns all orders newest-first with item counts and
// charge sums folded in by the database.
func (r *OrderRepository) ListSummaryRows(ctx context.Context) ([]order.SummaryRow, error) {
	rows, err := r.pool.Query(ctx, listSummaryRowsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing order summaries: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.SummaryRow, error) {
		var s order.SummaryRow
		err := row.Scan(
			&s.ID, &s.CreatedAt, &s.Status, &s.SubtotalAmount, &s.TotalAmount,
			&s.Currency, &s.Notes, &s.ShippingAddress, &s.BillingAddress,
			&s.ItemsCount, &s.DiscountAmount, &s.ShippingAmount,
		)
		return s, err
	})
}

// UpdateNotes overwrites the order's notes.
func (r *OrderRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	tag, err := r.pool.Exec(ctx, updateOrderNotesSQL, id, notes)
	if err != nil {
		return fmt.Errorf("updating notes of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order; dependent item and charge rows cascade.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
		&item.ProductName, &item.VariantTitle, &item.SKU,
		&item.Quantity, &item.UnitPrice, &item.LineTotal,
	)
	return item, err
}

func scanOrderCharge(row pgx.CollectableRow) (order.Charge, error) {
	var c order.Charge
	err := row.Scan(
		&c.ID, &c.OrderID, &c.Type, &c.CalcType,
		&c.BaseAmount, &c.AppliedAmount, &c.DeliveryID, &c.Metadata,
	)
	return c, err
}

// marshalAddress serializes an address payload for a JSONB column. A nil
// payload stays NULL rather than becoming the JSON literal "null".
func marshalAddress(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	return json.Marshal(payload)
}
