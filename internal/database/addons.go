package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const addonItemColumns = `id, name, category, price, is_active, created_at, updated_at`

func scanAddonItem(row interface{ Scan(...interface{}) error }) (AddonItem, error) {
	var a AddonItem
	err := row.Scan(&a.ID, &a.Name, &a.Category, &a.Price, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const createAddonItem = `
INSERT INTO addon_items (name, category, price)
VALUES ($1, $2, $3)
RETURNING ` + addonItemColumns

type CreateAddonItemParams struct {
	Name     string
	Category string
	Price    pgtype.Numeric
}

func (q *Queries) CreateAddonItem(ctx context.Context, arg CreateAddonItemParams) (AddonItem, error) {
	return scanAddonItem(q.db.QueryRow(ctx, createAddonItem, arg.Name, arg.Category, arg.Price))
}

const getAddonItem = `
SELECT ` + addonItemColumns + `
FROM addon_items
WHERE id = $1`

func (q *Queries) GetAddonItem(ctx context.Context, id uuid.UUID) (AddonItem, error) {
	return scanAddonItem(q.db.QueryRow(ctx, getAddonItem, id))
}

const listAddonItems = `
SELECT ` + addonItemColumns + `
FROM addon_items
WHERE is_active = true
ORDER BY category, name`

func (q *Queries) ListAddonItems(ctx context.Context) ([]AddonItem, error) {
	rows, err := q.db.Query(ctx, listAddonItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AddonItem
	for rows.Next() {
		a, err := scanAddonItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const updateAddonItem = `
UPDATE addon_items SET
	name = $2,
	category = $3,
	price = $4,
	is_active = $5,
	updated_at = now()
WHERE id = $1
RETURNING ` + addonItemColumns

type UpdateAddonItemParams struct {
	ID       uuid.UUID
	Name     string
	Category string
	Price    pgtype.Numeric
	IsActive bool
}

func (q *Queries) UpdateAddonItem(ctx context.Context, arg UpdateAddonItemParams) (AddonItem, error) {
	row := q.db.QueryRow(ctx, updateAddonItem, arg.ID, arg.Name, arg.Category, arg.Price, arg.IsActive)
	return scanAddonItem(row)
}

const addonOrderColumns = `id, customer_name, seat_id, item_id, item_name, qty,
	unit_price, line_total, cash_paid, gcash_paid, paid, voided, ordered_at, created_at`

func scanAddonOrder(row interface{ Scan(...interface{}) error }) (AddonOrder, error) {
	var a AddonOrder
	err := row.Scan(
		&a.ID, &a.CustomerName, &a.SeatID, &a.ItemID, &a.ItemName, &a.Qty,
		&a.UnitPrice, &a.LineTotal, &a.CashPaid, &a.GcashPaid, &a.Paid, &a.Voided,
		&a.OrderedAt, &a.CreatedAt,
	)
	return a, err
}

const createAddonOrder = `
INSERT INTO addon_orders (
	customer_name, seat_id, item_id, item_name, qty,
	unit_price, line_total, ordered_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + addonOrderColumns

type CreateAddonOrderParams struct {
	CustomerName string
	SeatID       string
	ItemID       uuid.UUID
	ItemName     string
	Qty          int32
	UnitPrice    pgtype.Numeric
	LineTotal    pgtype.Numeric
	OrderedAt    time.Time
}

func (q *Queries) CreateAddonOrder(ctx context.Context, arg CreateAddonOrderParams) (AddonOrder, error) {
	row := q.db.QueryRow(ctx, createAddonOrder,
		arg.CustomerName, arg.SeatID, arg.ItemID, arg.ItemName, arg.Qty,
		arg.UnitPrice, arg.LineTotal, arg.OrderedAt,
	)
	return scanAddonOrder(row)
}

const listAddonOrdersByRange = `
SELECT ` + addonOrderColumns + `
FROM addon_orders
WHERE ordered_at >= $1 AND ordered_at < $2
ORDER BY ordered_at`

type ListAddonOrdersByRangeParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListAddonOrdersByRange(ctx context.Context, arg ListAddonOrdersByRangeParams) ([]AddonOrder, error) {
	rows, err := q.db.Query(ctx, listAddonOrdersByRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AddonOrder
	for rows.Next() {
		a, err := scanAddonOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Logical orders have no ID, so payment and void updates address the
// same (name, seat, time span) key the grouping heuristic uses. The
// payment amounts land on the earliest line only; grouping sums lines,
// so spreading the full amount across every line would overcount.
const setAddonOrderPayment = `
WITH span AS (
	SELECT id, row_number() OVER (ORDER BY ordered_at, id) AS rn
	FROM addon_orders
	WHERE lower(customer_name) = lower($1)
	  AND lower(seat_id) = lower($2)
	  AND ordered_at >= $3 AND ordered_at <= $4
	  AND voided = false
)
UPDATE addon_orders a SET
	cash_paid = CASE WHEN span.rn = 1 THEN $5 ELSE 0 END,
	gcash_paid = CASE WHEN span.rn = 1 THEN $6 ELSE 0 END,
	paid = $7
FROM span
WHERE a.id = span.id`

type SetAddonOrderPaymentParams struct {
	CustomerName string
	SeatID       string
	From         time.Time
	To           time.Time
	CashPaid     pgtype.Numeric
	GcashPaid    pgtype.Numeric
	Paid         bool
}

func (q *Queries) SetAddonOrderPayment(ctx context.Context, arg SetAddonOrderPaymentParams) (int64, error) {
	tag, err := q.db.Exec(ctx, setAddonOrderPayment,
		arg.CustomerName, arg.SeatID, arg.From, arg.To,
		arg.CashPaid, arg.GcashPaid, arg.Paid,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const voidAddonOrders = `
UPDATE addon_orders SET voided = true
WHERE lower(customer_name) = lower($1)
  AND lower(seat_id) = lower($2)
  AND ordered_at >= $3 AND ordered_at <= $4
  AND voided = false`

type VoidAddonOrdersParams struct {
	CustomerName string
	SeatID       string
	From         time.Time
	To           time.Time
}

func (q *Queries) VoidAddonOrders(ctx context.Context, arg VoidAddonOrdersParams) (int64, error) {
	tag, err := q.db.Exec(ctx, voidAddonOrders, arg.CustomerName, arg.SeatID, arg.From, arg.To)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
