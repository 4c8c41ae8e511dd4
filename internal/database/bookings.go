package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `id, customer_name, area, starts_at, ends_at, rate,
	discount_kind, discount_value, cash_paid, gcash_paid, paid, status, notes,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (PromoBooking, error) {
	var b PromoBooking
	err := row.Scan(
		&b.ID, &b.CustomerName, &b.Area, &b.StartsAt, &b.EndsAt, &b.Rate,
		&b.DiscountKind, &b.DiscountValue, &b.CashPaid, &b.GcashPaid, &b.Paid,
		&b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

const createBooking = `
INSERT INTO promo_bookings (
	customer_name, area, starts_at, ends_at, rate,
	discount_kind, discount_value, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + bookingColumns

type CreateBookingParams struct {
	CustomerName  string
	Area          string
	StartsAt      time.Time
	EndsAt        time.Time
	Rate          pgtype.Numeric
	DiscountKind  string
	DiscountValue pgtype.Numeric
	Notes         pgtype.Text
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (PromoBooking, error) {
	row := q.db.QueryRow(ctx, createBooking,
		arg.CustomerName, arg.Area, arg.StartsAt, arg.EndsAt, arg.Rate,
		arg.DiscountKind, arg.DiscountValue, arg.Notes,
	)
	return scanBooking(row)
}

const getBooking = `
SELECT ` + bookingColumns + `
FROM promo_bookings
WHERE id = $1`

func (q *Queries) GetBooking(ctx context.Context, id uuid.UUID) (PromoBooking, error) {
	return scanBooking(q.db.QueryRow(ctx, getBooking, id))
}

// Range listing matches bookings that overlap the window, not only
// those that start inside it.
const listBookingsByRange = `
SELECT ` + bookingColumns + `
FROM promo_bookings
WHERE starts_at < $2 AND ends_at > $1
ORDER BY starts_at`

type ListBookingsByRangeParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListBookingsByRange(ctx context.Context, arg ListBookingsByRangeParams) ([]PromoBooking, error) {
	rows, err := q.db.Query(ctx, listBookingsByRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PromoBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// Starts-in-range listing attributes each booking to exactly one
// window. The daily report uses this so a booking crossing midnight
// counts toward one day only; overlap listing stays for the seat map.
const listBookingsStartingInRange = `
SELECT ` + bookingColumns + `
FROM promo_bookings
WHERE starts_at >= $1 AND starts_at < $2
ORDER BY starts_at`

type ListBookingsStartingInRangeParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListBookingsStartingInRange(ctx context.Context, arg ListBookingsStartingInRangeParams) ([]PromoBooking, error) {
	rows, err := q.db.Query(ctx, listBookingsStartingInRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PromoBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const updateBooking = `
UPDATE promo_bookings SET
	customer_name = $2,
	area = $3,
	starts_at = $4,
	ends_at = $5,
	rate = $6,
	discount_kind = $7,
	discount_value = $8,
	notes = $9,
	updated_at = now()
WHERE id = $1
RETURNING ` + bookingColumns

type UpdateBookingParams struct {
	ID            uuid.UUID
	CustomerName  string
	Area          string
	StartsAt      time.Time
	EndsAt        time.Time
	Rate          pgtype.Numeric
	DiscountKind  string
	DiscountValue pgtype.Numeric
	Notes         pgtype.Text
}

func (q *Queries) UpdateBooking(ctx context.Context, arg UpdateBookingParams) (PromoBooking, error) {
	row := q.db.QueryRow(ctx, updateBooking,
		arg.ID, arg.CustomerName, arg.Area, arg.StartsAt, arg.EndsAt, arg.Rate,
		arg.DiscountKind, arg.DiscountValue, arg.Notes,
	)
	return scanBooking(row)
}

const setBookingPayment = `
UPDATE promo_bookings SET
	cash_paid = $2,
	gcash_paid = $3,
	paid = $4,
	updated_at = now()
WHERE id = $1
RETURNING ` + bookingColumns

type SetBookingPaymentParams struct {
	ID        uuid.UUID
	CashPaid  pgtype.Numeric
	GcashPaid pgtype.Numeric
	Paid      bool
}

func (q *Queries) SetBookingPayment(ctx context.Context, arg SetBookingPaymentParams) (PromoBooking, error) {
	row := q.db.QueryRow(ctx, setBookingPayment, arg.ID, arg.CashPaid, arg.GcashPaid, arg.Paid)
	return scanBooking(row)
}

const cancelBooking = `
UPDATE promo_bookings SET
	status = 'CANCELLED',
	updated_at = now()
WHERE id = $1
RETURNING ` + bookingColumns

func (q *Queries) CancelBooking(ctx context.Context, id uuid.UUID) (PromoBooking, error) {
	return scanBooking(q.db.QueryRow(ctx, cancelBooking, id))
}

const countOverlappingBookings = `
SELECT count(*)
FROM promo_bookings
WHERE area = $1
  AND status = 'BOOKED'
  AND starts_at < $3 AND ends_at > $2
  AND id != $4`

type CountOverlappingBookingsParams struct {
	Area      string
	StartsAt  time.Time
	EndsAt    time.Time
	ExcludeID uuid.UUID
}

func (q *Queries) CountOverlappingBookings(ctx context.Context, arg CountOverlappingBookingsParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOverlappingBookings,
		arg.Area, arg.StartsAt, arg.EndsAt, arg.ExcludeID,
	).Scan(&n)
	return n, err
}
