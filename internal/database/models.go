package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Staff struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Seat keys are short human-assigned codes ("S05", "CR") rather than
// UUIDs; the floor map and legacy rows reference them directly.
type Seat struct {
	ID       string
	Label    string
	Zone     string
	MapX     float64
	MapY     float64
	IsActive bool
}

type Session struct {
	ID            uuid.UUID
	CustomerName  string
	SeatID        string
	StartedAt     time.Time
	EndedAt       pgtype.Timestamptz
	Reserved      bool
	HourlyRate    pgtype.Numeric
	FreeMinutes   int32
	DiscountKind  string
	DiscountValue pgtype.Numeric
	CashPaid      pgtype.Numeric
	GcashPaid     pgtype.Numeric
	Paid          bool
	Notes         pgtype.Text
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CancelledSession struct {
	ID            uuid.UUID
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
	CancelledAt   time.Time
}

type AddonItem struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     pgtype.Numeric
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AddonOrder is one purchased line. There is no order-id column;
// logical orders are reconstructed by the grouping package.
type AddonOrder struct {
	ID           uuid.UUID
	CustomerName string
	SeatID       string
	ItemID       uuid.UUID
	ItemName     string
	Qty          int32
	UnitPrice    pgtype.Numeric
	LineTotal    pgtype.Numeric
	CashPaid     pgtype.Numeric
	GcashPaid    pgtype.Numeric
	Paid         bool
	Voided       bool
	OrderedAt    time.Time
	CreatedAt    time.Time
}

type PromoBooking struct {
	ID            uuid.UUID
	CustomerName  string
	Area          string
	StartsAt      time.Time
	EndsAt        time.Time
	Rate          pgtype.Numeric
	DiscountKind  string
	DiscountValue pgtype.Numeric
	CashPaid      pgtype.Numeric
	GcashPaid     pgtype.Numeric
	Paid          bool
	Status        string
	Notes         pgtype.Text
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SeatBlock struct {
	ID        uuid.UUID
	SeatID    string
	Reason    pgtype.Text
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

type Consignor struct {
	ID        uuid.UUID
	Name      string
	Contact   pgtype.Text
	CreatedAt time.Time
}

type ConsignmentItem struct {
	ID          uuid.UUID
	ConsignorID uuid.UUID
	Name        string
	Category    pgtype.Text
	Price       pgtype.Numeric
	Restocked   int32
	Sold        int32
	PhotoKey    pgtype.Text
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ConsignmentMove records a stock delta so daily totals can be
// computed per calendar day instead of from the running counters.
type ConsignmentMove struct {
	ID           uuid.UUID
	ItemID       uuid.UUID
	RestockDelta int32
	SoldDelta    int32
	MovedAt      time.Time
}

type ConsignmentCashout struct {
	ID          uuid.UUID
	ConsignorID uuid.UUID
	Amount      pgtype.Numeric
	Note        pgtype.Text
	PaidAt      time.Time
	PaidBy      uuid.UUID
}

type InventoryLoss struct {
	ID          uuid.UUID
	Description string
	Amount      pgtype.Numeric
	Method      string
	Voided      bool
	LostAt      time.Time
	CreatedAt   time.Time
}

type DailyReport struct {
	ReportDate    pgtype.Date
	StartingCash  pgtype.Numeric
	StartingGcash pgtype.Numeric
	Bilin         pgtype.Numeric
	Submitted     bool
	SubmittedAt   pgtype.Timestamptz
	SubmittedBy   pgtype.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type DenominationCount struct {
	ID           uuid.UUID
	ReportDate   pgtype.Date
	Denomination pgtype.Numeric
	Count        int32
}
