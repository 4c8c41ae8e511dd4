package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, customer_name, seat_id, started_at, ended_at, reserved,
	hourly_rate, free_minutes, discount_kind, discount_value,
	cash_paid, gcash_paid, paid, notes, created_at, updated_at`

func scanSession(row interface{ Scan(...interface{}) error }) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID, &s.CustomerName, &s.SeatID, &s.StartedAt, &s.EndedAt, &s.Reserved,
		&s.HourlyRate, &s.FreeMinutes, &s.DiscountKind, &s.DiscountValue,
		&s.CashPaid, &s.GcashPaid, &s.Paid, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

const createSession = `
INSERT INTO sessions (
	customer_name, seat_id, started_at, reserved,
	hourly_rate, free_minutes, discount_kind, discount_value, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	CustomerName  string
	SeatID        string
	StartedAt     time.Time
	Reserved      bool
	HourlyRate    pgtype.Numeric
	FreeMinutes   int32
	DiscountKind  string
	DiscountValue pgtype.Numeric
	Notes         pgtype.Text
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession,
		arg.CustomerName, arg.SeatID, arg.StartedAt, arg.Reserved,
		arg.HourlyRate, arg.FreeMinutes, arg.DiscountKind, arg.DiscountValue, arg.Notes,
	)
	return scanSession(row)
}

const getSession = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE id = $1`

func (q *Queries) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, getSession, id))
}

const listSessionsByRange = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE started_at >= $1 AND started_at < $2
ORDER BY started_at`

type ListSessionsByRangeParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListSessionsByRange(ctx context.Context, arg ListSessionsByRangeParams) ([]Session, error) {
	rows, err := q.db.Query(ctx, listSessionsByRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const listOpenSessions = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE ended_at IS NULL OR ended_at >= '2100-01-01'
ORDER BY started_at`

func (q *Queries) ListOpenSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.Query(ctx, listOpenSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const updateSession = `
UPDATE sessions SET
	customer_name = $2,
	seat_id = $3,
	started_at = $4,
	reserved = $5,
	hourly_rate = $6,
	free_minutes = $7,
	discount_kind = $8,
	discount_value = $9,
	notes = $10,
	updated_at = now()
WHERE id = $1
RETURNING ` + sessionColumns

type UpdateSessionParams struct {
	ID            uuid.UUID
	CustomerName  string
	SeatID        string
	StartedAt     time.Time
	Reserved      bool
	HourlyRate    pgtype.Numeric
	FreeMinutes   int32
	DiscountKind  string
	DiscountValue pgtype.Numeric
	Notes         pgtype.Text
}

func (q *Queries) UpdateSession(ctx context.Context, arg UpdateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, updateSession,
		arg.ID, arg.CustomerName, arg.SeatID, arg.StartedAt, arg.Reserved,
		arg.HourlyRate, arg.FreeMinutes, arg.DiscountKind, arg.DiscountValue, arg.Notes,
	)
	return scanSession(row)
}

const setSessionPayment = `
UPDATE sessions SET
	cash_paid = $2,
	gcash_paid = $3,
	paid = $4,
	updated_at = now()
WHERE id = $1
RETURNING ` + sessionColumns

type SetSessionPaymentParams struct {
	ID        uuid.UUID
	CashPaid  pgtype.Numeric
	GcashPaid pgtype.Numeric
	Paid      bool
}

func (q *Queries) SetSessionPayment(ctx context.Context, arg SetSessionPaymentParams) (Session, error) {
	row := q.db.QueryRow(ctx, setSessionPayment, arg.ID, arg.CashPaid, arg.GcashPaid, arg.Paid)
	return scanSession(row)
}

const closeSession = `
UPDATE sessions SET
	ended_at = $2,
	updated_at = now()
WHERE id = $1
RETURNING ` + sessionColumns

type CloseSessionParams struct {
	ID      uuid.UUID
	EndedAt time.Time
}

func (q *Queries) CloseSession(ctx context.Context, arg CloseSessionParams) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, closeSession, arg.ID, arg.EndedAt))
}

const deleteSession = `
DELETE FROM sessions WHERE id = $1`

func (q *Queries) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteSession, id)
	return err
}

const cancelledSessionColumns = `id, session_id, customer_name, seat_id, started_at, ended_at,
	hourly_rate, discount_kind, discount_value, cash_paid, gcash_paid, paid,
	description, cancelled_by, cancelled_at`

func scanCancelledSession(row interface{ Scan(...interface{}) error }) (CancelledSession, error) {
	var c CancelledSession
	err := row.Scan(
		&c.ID, &c.SessionID, &c.CustomerName, &c.SeatID, &c.StartedAt, &c.EndedAt,
		&c.HourlyRate, &c.DiscountKind, &c.DiscountValue, &c.CashPaid, &c.GcashPaid, &c.Paid,
		&c.Description, &c.CancelledBy, &c.CancelledAt,
	)
	return c, err
}

const createCancelledSession = `
INSERT INTO cancelled_sessions (
	session_id, customer_name, seat_id, started_at, ended_at,
	hourly_rate, discount_kind, discount_value, cash_paid, gcash_paid, paid,
	description, cancelled_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + cancelledSessionColumns

type CreateCancelledSessionParams struct {
	SessionID     uuid.UUID
	CustomerName  string
	SeatID        string
	StartedAt     time.Time
	EndedAt       pgtype.Timestamptz
	HourlyRate    pgtype.Numeric
	DiscountKind  string
	DiscountValue pgtype.Numeric
	CashPaid      pgtype.Numeric
	GcashPaid     pgtype.Numeric
	Paid          bool
	Description   string
	CancelledBy   uuid.UUID
}

func (q *Queries) CreateCancelledSession(ctx context.Context, arg CreateCancelledSessionParams) (CancelledSession, error) {
	row := q.db.QueryRow(ctx, createCancelledSession,
		arg.SessionID, arg.CustomerName, arg.SeatID, arg.StartedAt, arg.EndedAt,
		arg.HourlyRate, arg.DiscountKind, arg.DiscountValue, arg.CashPaid, arg.GcashPaid, arg.Paid,
		arg.Description, arg.CancelledBy,
	)
	return scanCancelledSession(row)
}

const listCancelledSessionsByRange = `
SELECT ` + cancelledSessionColumns + `
FROM cancelled_sessions
WHERE cancelled_at >= $1 AND cancelled_at < $2
ORDER BY cancelled_at`

type ListCancelledSessionsByRangeParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListCancelledSessionsByRange(ctx context.Context, arg ListCancelledSessionsByRangeParams) ([]CancelledSession, error) {
	rows, err := q.db.Query(ctx, listCancelledSessionsByRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CancelledSession
	for rows.Next() {
		c, err := scanCancelledSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
