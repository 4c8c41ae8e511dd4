package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const seatColumns = `id, label, zone, map_x, map_y, is_active`

func scanSeat(row interface{ Scan(...interface{}) error }) (Seat, error) {
	var s Seat
	err := row.Scan(&s.ID, &s.Label, &s.Zone, &s.MapX, &s.MapY, &s.IsActive)
	return s, err
}

const listSeats = `
SELECT ` + seatColumns + `
FROM seats
WHERE is_active = true
ORDER BY id`

func (q *Queries) ListSeats(ctx context.Context) ([]Seat, error) {
	rows, err := q.db.Query(ctx, listSeats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const upsertSeat = `
INSERT INTO seats (id, label, zone, map_x, map_y)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	label = EXCLUDED.label,
	zone = EXCLUDED.zone,
	map_x = EXCLUDED.map_x,
	map_y = EXCLUDED.map_y
RETURNING ` + seatColumns

type UpsertSeatParams struct {
	ID    string
	Label string
	Zone  string
	MapX  float64
	MapY  float64
}

func (q *Queries) UpsertSeat(ctx context.Context, arg UpsertSeatParams) (Seat, error) {
	row := q.db.QueryRow(ctx, upsertSeat, arg.ID, arg.Label, arg.Zone, arg.MapX, arg.MapY)
	return scanSeat(row)
}

const seatBlockColumns = `id, seat_id, reason, starts_at, ends_at, created_at`

func scanSeatBlock(row interface{ Scan(...interface{}) error }) (SeatBlock, error) {
	var b SeatBlock
	err := row.Scan(&b.ID, &b.SeatID, &b.Reason, &b.StartsAt, &b.EndsAt, &b.CreatedAt)
	return b, err
}

const createSeatBlock = `
INSERT INTO seat_blocks (seat_id, reason, starts_at, ends_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + seatBlockColumns

type CreateSeatBlockParams struct {
	SeatID   string
	Reason   pgtype.Text
	StartsAt time.Time
	EndsAt   time.Time
}

func (q *Queries) CreateSeatBlock(ctx context.Context, arg CreateSeatBlockParams) (SeatBlock, error) {
	row := q.db.QueryRow(ctx, createSeatBlock, arg.SeatID, arg.Reason, arg.StartsAt, arg.EndsAt)
	return scanSeatBlock(row)
}

const deleteSeatBlock = `
DELETE FROM seat_blocks WHERE id = $1`

func (q *Queries) DeleteSeatBlock(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteSeatBlock, id)
	return err
}

const listSeatBlocksAt = `
SELECT ` + seatBlockColumns + `
FROM seat_blocks
WHERE starts_at <= $1 AND ends_at > $1
ORDER BY seat_id`

func (q *Queries) ListSeatBlocksAt(ctx context.Context, at time.Time) ([]SeatBlock, error) {
	rows, err := q.db.Query(ctx, listSeatBlocksAt, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SeatBlock
	for rows.Next() {
		b, err := scanSeatBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
