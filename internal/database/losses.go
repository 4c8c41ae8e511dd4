package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const lossColumns = `id, description, amount, method, voided, lost_at, created_at`

func scanLoss(row interface{ Scan(...interface{}) error }) (InventoryLoss, error) {
	var l InventoryLoss
	err := row.Scan(&l.ID, &l.Description, &l.Amount, &l.Method, &l.Voided, &l.LostAt, &l.CreatedAt)
	return l, err
}

const createInventoryLoss = `
INSERT INTO inventory_losses (description, amount, method, lost_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + lossColumns

type CreateInventoryLossParams struct {
	Description string
	Amount      pgtype.Numeric
	Method      string
	LostAt      time.Time
}

func (q *Queries) CreateInventoryLoss(ctx context.Context, arg CreateInventoryLossParams) (InventoryLoss, error) {
	row := q.db.QueryRow(ctx, createInventoryLoss, arg.Description, arg.Amount, arg.Method, arg.LostAt)
	return scanLoss(row)
}

const voidInventoryLoss = `
UPDATE inventory_losses SET voided = true
WHERE id = $1
RETURNING ` + lossColumns

func (q *Queries) VoidInventoryLoss(ctx context.Context, id uuid.UUID) (InventoryLoss, error) {
	return scanLoss(q.db.QueryRow(ctx, voidInventoryLoss, id))
}

const listInventoryLossesByRange = `
SELECT ` + lossColumns + `
FROM inventory_losses
WHERE lost_at >= $1 AND lost_at < $2
ORDER BY lost_at`

type ListInventoryLossesByRangeParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListInventoryLossesByRange(ctx context.Context, arg ListInventoryLossesByRangeParams) ([]InventoryLoss, error) {
	rows, err := q.db.Query(ctx, listInventoryLossesByRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryLoss
	for rows.Next() {
		l, err := scanLoss(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
