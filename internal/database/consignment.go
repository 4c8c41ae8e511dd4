package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const consignorColumns = `id, name, contact, created_at`

func scanConsignor(row interface{ Scan(...interface{}) error }) (Consignor, error) {
	var c Consignor
	err := row.Scan(&c.ID, &c.Name, &c.Contact, &c.CreatedAt)
	return c, err
}

const createConsignor = `
INSERT INTO consignors (name, contact)
VALUES ($1, $2)
RETURNING ` + consignorColumns

type CreateConsignorParams struct {
	Name    string
	Contact pgtype.Text
}

func (q *Queries) CreateConsignor(ctx context.Context, arg CreateConsignorParams) (Consignor, error) {
	return scanConsignor(q.db.QueryRow(ctx, createConsignor, arg.Name, arg.Contact))
}

const listConsignors = `
SELECT ` + consignorColumns + `
FROM consignors
ORDER BY name`

func (q *Queries) ListConsignors(ctx context.Context) ([]Consignor, error) {
	rows, err := q.db.Query(ctx, listConsignors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Consignor
	for rows.Next() {
		c, err := scanConsignor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const consignmentItemColumns = `id, consignor_id, name, category, price, restocked, sold,
	photo_key, created_at, updated_at`

func scanConsignmentItem(row interface{ Scan(...interface{}) error }) (ConsignmentItem, error) {
	var c ConsignmentItem
	err := row.Scan(
		&c.ID, &c.ConsignorID, &c.Name, &c.Category, &c.Price, &c.Restocked, &c.Sold,
		&c.PhotoKey, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const createConsignmentItem = `
INSERT INTO consignment_items (consignor_id, name, category, price, photo_key)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + consignmentItemColumns

type CreateConsignmentItemParams struct {
	ConsignorID uuid.UUID
	Name        string
	Category    pgtype.Text
	Price       pgtype.Numeric
	PhotoKey    pgtype.Text
}

func (q *Queries) CreateConsignmentItem(ctx context.Context, arg CreateConsignmentItemParams) (ConsignmentItem, error) {
	row := q.db.QueryRow(ctx, createConsignmentItem,
		arg.ConsignorID, arg.Name, arg.Category, arg.Price, arg.PhotoKey,
	)
	return scanConsignmentItem(row)
}

const getConsignmentItem = `
SELECT ` + consignmentItemColumns + `
FROM consignment_items
WHERE id = $1`

func (q *Queries) GetConsignmentItem(ctx context.Context, id uuid.UUID) (ConsignmentItem, error) {
	return scanConsignmentItem(q.db.QueryRow(ctx, getConsignmentItem, id))
}

const listConsignmentItems = `
SELECT ` + consignmentItemColumns + `
FROM consignment_items
ORDER BY name`

func (q *Queries) ListConsignmentItems(ctx context.Context) ([]ConsignmentItem, error) {
	rows, err := q.db.Query(ctx, listConsignmentItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ConsignmentItem
	for rows.Next() {
		c, err := scanConsignmentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const setConsignmentItemPhoto = `
UPDATE consignment_items SET
	photo_key = $2,
	updated_at = now()
WHERE id = $1
RETURNING ` + consignmentItemColumns

type SetConsignmentItemPhotoParams struct {
	ID       uuid.UUID
	PhotoKey pgtype.Text
}

func (q *Queries) SetConsignmentItemPhoto(ctx context.Context, arg SetConsignmentItemPhotoParams) (ConsignmentItem, error) {
	row := q.db.QueryRow(ctx, setConsignmentItemPhoto, arg.ID, arg.PhotoKey)
	return scanConsignmentItem(row)
}

const updateConsignmentItem = `
UPDATE consignment_items SET
	name = $2,
	category = $3,
	price = $4,
	updated_at = now()
WHERE id = $1
RETURNING ` + consignmentItemColumns

type UpdateConsignmentItemParams struct {
	ID       uuid.UUID
	Name     string
	Category pgtype.Text
	Price    pgtype.Numeric
}

func (q *Queries) UpdateConsignmentItem(ctx context.Context, arg UpdateConsignmentItemParams) (ConsignmentItem, error) {
	row := q.db.QueryRow(ctx, updateConsignmentItem, arg.ID, arg.Name, arg.Category, arg.Price)
	return scanConsignmentItem(row)
}

const adjustConsignmentStock = `
UPDATE consignment_items SET
	restocked = restocked + $2,
	sold = sold + $3,
	updated_at = now()
WHERE id = $1
RETURNING ` + consignmentItemColumns

type AdjustConsignmentStockParams struct {
	ID           uuid.UUID
	RestockDelta int32
	SoldDelta    int32
}

func (q *Queries) AdjustConsignmentStock(ctx context.Context, arg AdjustConsignmentStockParams) (ConsignmentItem, error) {
	row := q.db.QueryRow(ctx, adjustConsignmentStock, arg.ID, arg.RestockDelta, arg.SoldDelta)
	return scanConsignmentItem(row)
}

const createConsignmentMove = `
INSERT INTO consignment_moves (item_id, restock_delta, sold_delta, moved_at)
VALUES ($1, $2, $3, $4)
RETURNING id, item_id, restock_delta, sold_delta, moved_at`

type CreateConsignmentMoveParams struct {
	ItemID       uuid.UUID
	RestockDelta int32
	SoldDelta    int32
	MovedAt      time.Time
}

func (q *Queries) CreateConsignmentMove(ctx context.Context, arg CreateConsignmentMoveParams) (ConsignmentMove, error) {
	var m ConsignmentMove
	err := q.db.QueryRow(ctx, createConsignmentMove,
		arg.ItemID, arg.RestockDelta, arg.SoldDelta, arg.MovedAt,
	).Scan(&m.ID, &m.ItemID, &m.RestockDelta, &m.SoldDelta, &m.MovedAt)
	return m, err
}

// GetConsignmentDailyTotals is the compound read the report screen
// used to call as a backend RPC: per-consignor units sold and net
// amount for a time window, from the movement log. Deltas are summed
// signed, so a correcting negative move subtracts from its own day.
const getConsignmentDailyTotals = `
SELECT c.id, c.name,
	COALESCE(SUM(m.sold_delta), 0)::bigint AS units_sold,
	COALESCE(SUM(m.sold_delta * i.price), 0)::numeric AS net_amount
FROM consignment_moves m
JOIN consignment_items i ON i.id = m.item_id
JOIN consignors c ON c.id = i.consignor_id
WHERE m.moved_at >= $1 AND m.moved_at < $2 AND m.sold_delta <> 0
GROUP BY c.id, c.name
ORDER BY c.name`

type GetConsignmentDailyTotalsParams struct {
	Start time.Time
	End   time.Time
}

type GetConsignmentDailyTotalsRow struct {
	ConsignorID   uuid.UUID
	ConsignorName string
	UnitsSold     int64
	NetAmount     pgtype.Numeric
}

func (q *Queries) GetConsignmentDailyTotals(ctx context.Context, arg GetConsignmentDailyTotalsParams) ([]GetConsignmentDailyTotalsRow, error) {
	rows, err := q.db.Query(ctx, getConsignmentDailyTotals, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetConsignmentDailyTotalsRow
	for rows.Next() {
		var r GetConsignmentDailyTotalsRow
		if err := rows.Scan(&r.ConsignorID, &r.ConsignorName, &r.UnitsSold, &r.NetAmount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const cashoutColumns = `id, consignor_id, amount, note, paid_at, paid_by`

func scanCashout(row interface{ Scan(...interface{}) error }) (ConsignmentCashout, error) {
	var c ConsignmentCashout
	err := row.Scan(&c.ID, &c.ConsignorID, &c.Amount, &c.Note, &c.PaidAt, &c.PaidBy)
	return c, err
}

const createConsignmentCashout = `
INSERT INTO consignment_cashouts (consignor_id, amount, note, paid_at, paid_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + cashoutColumns

type CreateConsignmentCashoutParams struct {
	ConsignorID uuid.UUID
	Amount      pgtype.Numeric
	Note        pgtype.Text
	PaidAt      time.Time
	PaidBy      uuid.UUID
}

func (q *Queries) CreateConsignmentCashout(ctx context.Context, arg CreateConsignmentCashoutParams) (ConsignmentCashout, error) {
	row := q.db.QueryRow(ctx, createConsignmentCashout,
		arg.ConsignorID, arg.Amount, arg.Note, arg.PaidAt, arg.PaidBy,
	)
	return scanCashout(row)
}

const listConsignmentCashoutsByRange = `
SELECT ` + cashoutColumns + `
FROM consignment_cashouts
WHERE paid_at >= $1 AND paid_at < $2
ORDER BY paid_at`

type ListConsignmentCashoutsByRangeParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListConsignmentCashoutsByRange(ctx context.Context, arg ListConsignmentCashoutsByRangeParams) ([]ConsignmentCashout, error) {
	rows, err := q.db.Query(ctx, listConsignmentCashoutsByRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ConsignmentCashout
	for rows.Next() {
		c, err := scanCashout(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
