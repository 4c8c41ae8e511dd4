package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	BookingStatusBooked    = "BOOKED"
	BookingStatusCancelled = "CANCELLED"
)

const (
	SeatStatusAvailable    = "AVAILABLE"
	SeatStatusTempOccupied = "TEMPORARILY_OCCUPIED"
	SeatStatusOccupied     = "OCCUPIED"
	SeatStatusReserved     = "RESERVED"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	StaffRoleAdmin = "ADMIN"
	StaffRoleStaff = "STAFF"
)

const (
	DiscountNone    = "NONE"
	DiscountPercent = "PERCENT"
	DiscountAmount  = "AMOUNT"
)

const (
	AreaCommon     = "COMMON"
	AreaConference = "CONFERENCE"
)

const (
	ZoneFloor      = "FLOOR"
	ZoneCommon     = "COMMON"
	ZoneConference = "CONFERENCE"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	PayMethodCash  = "CASH"
	PayMethodGcash = "GCASH"
)
