package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/silid-lounge/api/internal/billing"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/grouping"
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/money"
)

// ReportStore defines the DB methods needed to build a daily report.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	GetDailyReport(ctx context.Context, reportDate pgtype.Date) (database.DailyReport, error)
	ListDenominationCounts(ctx context.Context, reportDate pgtype.Date) ([]database.DenominationCount, error)
	ListSessionsByRange(ctx context.Context, arg database.ListSessionsByRangeParams) ([]database.Session, error)
	ListAddonOrdersByRange(ctx context.Context, arg database.ListAddonOrdersByRangeParams) ([]database.AddonOrder, error)
	ListBookingsStartingInRange(ctx context.Context, arg database.ListBookingsStartingInRangeParams) ([]database.PromoBooking, error)
	GetConsignmentDailyTotals(ctx context.Context, arg database.GetConsignmentDailyTotalsParams) ([]database.GetConsignmentDailyTotalsRow, error)
	ListConsignmentCashoutsByRange(ctx context.Context, arg database.ListConsignmentCashoutsByRangeParams) ([]database.ConsignmentCashout, error)
	ListInventoryLossesByRange(ctx context.Context, arg database.ListInventoryLossesByRangeParams) ([]database.InventoryLoss, error)
}

// ReportTxStore defines the DB methods used inside report write
// transactions (submit, denomination replacement).
type ReportTxStore interface {
	UpsertDailyReport(ctx context.Context, arg database.UpsertDailyReportParams) (database.DailyReport, error)
	EnsureDailyReport(ctx context.Context, reportDate pgtype.Date) error
	SubmitDailyReport(ctx context.Context, arg database.SubmitDailyReportParams) (database.DailyReport, error)
	DeleteDenominationCounts(ctx context.Context, reportDate pgtype.Date) error
	CreateDenominationCount(ctx context.Context, arg database.CreateDenominationCountParams) (database.DenominationCount, error)
}

// NewReportTxStore creates a ReportTxStore from a DBTX (pool or tx).
type NewReportTxStore func(db database.DBTX) ReportTxStore

// ConsignorTotal is the per-consignor slice of the daily report.
type ConsignorTotal struct {
	ConsignorID uuid.UUID `json:"consignor_id"`
	Name        string    `json:"name"`
	UnitsSold   int64     `json:"units_sold"`
	Amount      string    `json:"amount"`
}

// Denomination is one counted bill or coin line.
type Denomination struct {
	Denomination string `json:"denomination"`
	Count        int32  `json:"count"`
	Subtotal     string `json:"subtotal"`
}

// DailyView is the complete end-of-day report. Money renders as
// 2-decimal strings. An already-submitted day keeps its stored starting
// balances and denominations but renders zeroed computed figures.
type DailyView struct {
	Date        string     `json:"date"`
	Submitted   bool       `json:"submitted"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	StartingCash  string `json:"starting_cash"`
	StartingGcash string `json:"starting_gcash"`
	Bilin         string `json:"bilin"`

	Denominations []Denomination `json:"denominations"`
	CashInHand    string         `json:"cash_in_hand"`

	SessionCash  string `json:"session_cash"`
	SessionGcash string `json:"session_gcash"`
	SessionTotal string `json:"session_total"`

	AddonCash  string `json:"addon_cash"`
	AddonGcash string `json:"addon_gcash"`
	AddonTotal string `json:"addon_total"`

	BookingCash  string `json:"booking_cash"`
	BookingGcash string `json:"booking_gcash"`
	BookingTotal string `json:"booking_total"`

	DiscountTotal string `json:"discount_total"`

	Consignment      []ConsignorTotal `json:"consignment"`
	ConsignmentTotal string           `json:"consignment_total"`
	CashoutTotal     string           `json:"cashout_total"`

	LossCash  string `json:"loss_cash"`
	LossGcash string `json:"loss_gcash"`
	LossTotal string `json:"loss_total"`

	CashTotal      string `json:"cash_total"`
	GcashTotal     string `json:"gcash_total"`
	GrandTotal     string `json:"grand_total"`
	SalesCollected string `json:"sales_collected"`
}

// ReportService builds daily reports and handles report writes.
type ReportService struct {
	store    ReportStore
	pool     TxBeginner
	newStore NewReportTxStore
	groups   grouping.Strategy

	// now is swappable so tests can pin the evaluation instant for
	// open-session billing.
	now func() time.Time
}

// NewReportService creates a ReportService. strategy groups addon rows
// into logical orders; pass nil for the default time window.
func NewReportService(store ReportStore, pool TxBeginner, newStore NewReportTxStore, strategy grouping.Strategy) *ReportService {
	if strategy == nil {
		strategy = grouping.NewTimeWindow(grouping.DefaultWindow)
	}
	return &ReportService{
		store:    store,
		pool:     pool,
		newStore: newStore,
		groups:   strategy,
		now:      manila.Now,
	}
}

// BuildDaily assembles the full report for one Manila calendar day.
// Only rows with recorded payment contribute to sales figures; open
// sessions are billed up to the evaluation instant.
func (s *ReportService) BuildDaily(ctx context.Context, day string) (*DailyView, error) {
	start, end, err := manila.DayBounds(day)
	if err != nil {
		return nil, err
	}
	now := s.now()

	view := &DailyView{Date: day}

	// --- daily_reports row: starting balances, bilin, submitted flag ---
	startingCash, startingGcash, bilin := decimal.Zero, decimal.Zero, decimal.Zero
	report, err := s.store.GetDailyReport(ctx, dateOf(day))
	switch {
	case err == nil:
		startingCash = numericToDecimal(report.StartingCash)
		startingGcash = numericToDecimal(report.StartingGcash)
		bilin = numericToDecimal(report.Bilin)
		view.Submitted = report.Submitted
		if report.SubmittedAt.Valid {
			t := report.SubmittedAt.Time
			view.SubmittedAt = &t
		}
	case errors.Is(err, pgx.ErrNoRows):
		// no row yet, everything starts at zero
	default:
		return nil, fmt.Errorf("get daily report: %w", err)
	}
	view.StartingCash = startingCash.StringFixed(2)
	view.StartingGcash = startingGcash.StringFixed(2)
	view.Bilin = bilin.StringFixed(2)

	// --- denomination counts → cash in hand ---
	counts, err := s.store.ListDenominationCounts(ctx, dateOf(day))
	if err != nil {
		return nil, fmt.Errorf("list denominations: %w", err)
	}
	cashInHand := decimal.Zero
	for _, c := range counts {
		denom := numericToDecimal(c.Denomination)
		subtotal := denom.Mul(decimal.NewFromInt32(c.Count))
		cashInHand = cashInHand.Add(subtotal)
		view.Denominations = append(view.Denominations, Denomination{
			Denomination: denom.StringFixed(2),
			Count:        c.Count,
			Subtotal:     subtotal.StringFixed(2),
		})
	}
	view.CashInHand = cashInHand.StringFixed(2)

	// A submitted day is frozen: the stored balances and counts still
	// show, but sales figures render as zero.
	if view.Submitted {
		zeroComputed(view)
		return view, nil
	}

	discountTotal := decimal.Zero

	// --- sessions: time cost of paid sessions, cash/gcash split ---
	sessions, err := s.store.ListSessionsByRange(ctx, database.ListSessionsByRangeParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessionCash, sessionGcash := decimal.Zero, decimal.Zero
	for _, sess := range sessions {
		if !sess.Paid {
			continue
		}
		endAt := time.Time{}
		if sess.EndedAt.Valid {
			endAt = sess.EndedAt.Time
		}
		cost := billing.TimeCost(sess.StartedAt, endAt, now, numericToDecimal(sess.HourlyRate), int(sess.FreeMinutes))
		discountTotal = discountTotal.Add(billing.Discount(sess.DiscountKind, numericToDecimal(sess.DiscountValue), cost))
		sessionCash = sessionCash.Add(numericToDecimal(sess.CashPaid))
		sessionGcash = sessionGcash.Add(numericToDecimal(sess.GcashPaid))
	}
	view.SessionCash = sessionCash.StringFixed(2)
	view.SessionGcash = sessionGcash.StringFixed(2)
	view.SessionTotal = sessionCash.Add(sessionGcash).StringFixed(2)

	// --- addon orders: grouped, payment-bearing groups only ---
	addonRows, err := s.store.ListAddonOrdersByRange(ctx, database.ListAddonOrdersByRangeParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list addon orders: %w", err)
	}
	addonCash, addonGcash := decimal.Zero, decimal.Zero
	for _, o := range s.groups.GroupRows(toGroupRows(addonRows)) {
		if !o.HasPayment() {
			continue
		}
		addonCash = addonCash.Add(o.Cash)
		addonGcash = addonGcash.Add(o.Gcash)
	}
	view.AddonCash = addonCash.StringFixed(2)
	view.AddonGcash = addonGcash.StringFixed(2)
	view.AddonTotal = addonCash.Add(addonGcash).StringFixed(2)

	// --- promo bookings: paid rows only, attributed to the day they
	// start so a cross-midnight booking is counted once ---
	bookings, err := s.store.ListBookingsStartingInRange(ctx, database.ListBookingsStartingInRangeParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	bookingCash, bookingGcash := decimal.Zero, decimal.Zero
	for _, b := range bookings {
		if !b.Paid {
			continue
		}
		rate := numericToDecimal(b.Rate)
		discountTotal = discountTotal.Add(billing.Discount(b.DiscountKind, numericToDecimal(b.DiscountValue), rate))
		bookingCash = bookingCash.Add(numericToDecimal(b.CashPaid))
		bookingGcash = bookingGcash.Add(numericToDecimal(b.GcashPaid))
	}
	view.BookingCash = bookingCash.StringFixed(2)
	view.BookingGcash = bookingGcash.StringFixed(2)
	view.BookingTotal = bookingCash.Add(bookingGcash).StringFixed(2)

	view.DiscountTotal = money.Round2(discountTotal).StringFixed(2)

	// --- consignment: net per consignor plus cashouts paid today ---
	consTotals, err := s.store.GetConsignmentDailyTotals(ctx, database.GetConsignmentDailyTotalsParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("consignment daily totals: %w", err)
	}
	consTotal := decimal.Zero
	for _, row := range consTotals {
		amt := numericToDecimal(row.NetAmount)
		consTotal = consTotal.Add(amt)
		view.Consignment = append(view.Consignment, ConsignorTotal{
			ConsignorID: row.ConsignorID,
			Name:        row.ConsignorName,
			UnitsSold:   row.UnitsSold,
			Amount:      amt.StringFixed(2),
		})
	}
	view.ConsignmentTotal = consTotal.StringFixed(2)

	cashouts, err := s.store.ListConsignmentCashoutsByRange(ctx, database.ListConsignmentCashoutsByRangeParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list cashouts: %w", err)
	}
	cashoutTotal := decimal.Zero
	for _, c := range cashouts {
		cashoutTotal = cashoutTotal.Add(numericToDecimal(c.Amount))
	}
	view.CashoutTotal = cashoutTotal.StringFixed(2)

	// --- inventory losses: non-voided, split by method ---
	losses, err := s.store.ListInventoryLossesByRange(ctx, database.ListInventoryLossesByRangeParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list losses: %w", err)
	}
	lossCash, lossGcash := decimal.Zero, decimal.Zero
	for _, l := range losses {
		if l.Voided {
			continue
		}
		amt := numericToDecimal(l.Amount)
		if l.Method == enum.PayMethodGcash {
			lossGcash = lossGcash.Add(amt)
		} else {
			lossCash = lossCash.Add(amt)
		}
	}
	view.LossCash = lossCash.StringFixed(2)
	view.LossGcash = lossGcash.StringFixed(2)
	view.LossTotal = lossCash.Add(lossGcash).StringFixed(2)

	// --- totals ---
	cashTotal := sessionCash.Add(addonCash).Add(bookingCash).Add(consTotal).Sub(lossCash)
	gcashTotal := sessionGcash.Add(addonGcash).Add(bookingGcash).Sub(lossGcash)
	grand := cashTotal.Add(gcashTotal)
	view.CashTotal = cashTotal.StringFixed(2)
	view.GcashTotal = gcashTotal.StringFixed(2)
	view.GrandTotal = grand.StringFixed(2)
	view.SalesCollected = grand.Sub(bilin).StringFixed(2)

	return view, nil
}

// SetBalances upserts the day's starting balances and bilin.
func (s *ReportService) SetBalances(ctx context.Context, day string, startingCash, startingGcash, bilin decimal.Decimal) (database.DailyReport, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.DailyReport{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	report, err := s.newStore(tx).UpsertDailyReport(ctx, database.UpsertDailyReportParams{
		ReportDate:    dateOf(day),
		StartingCash:  decimalToNumeric(startingCash),
		StartingGcash: decimalToNumeric(startingGcash),
		Bilin:         decimalToNumeric(bilin),
	})
	if err != nil {
		return database.DailyReport{}, fmt.Errorf("upsert daily report: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return database.DailyReport{}, fmt.Errorf("commit tx: %w", err)
	}
	return report, nil
}

// DenominationInput is one counted line in a denomination submission.
type DenominationInput struct {
	Denomination decimal.Decimal
	Count        int32
}

// ReplaceDenominations swaps the day's denomination counts for the
// given set in one transaction. Resubmitting overwrites the previous
// counts with no history kept.
func (s *ReportService) ReplaceDenominations(ctx context.Context, day string, counts []DenominationInput) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	// Counts reference the day's report row, which may not exist yet
	// on a day where balances were never set.
	if err := store.EnsureDailyReport(ctx, dateOf(day)); err != nil {
		return fmt.Errorf("ensure daily report: %w", err)
	}
	if err := store.DeleteDenominationCounts(ctx, dateOf(day)); err != nil {
		return fmt.Errorf("delete denominations: %w", err)
	}
	for _, c := range counts {
		_, err := store.CreateDenominationCount(ctx, database.CreateDenominationCountParams{
			ReportDate:   dateOf(day),
			Denomination: decimalToNumeric(c.Denomination),
			Count:        c.Count,
		})
		if err != nil {
			return fmt.Errorf("create denomination: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Submit marks the day's report as submitted, replacing the counted
// denominations in the same transaction. A resubmit overwrites the
// earlier counts.
func (s *ReportService) Submit(ctx context.Context, day string, submittedBy uuid.UUID, counts []DenominationInput) (database.DailyReport, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.DailyReport{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	// Upsert the report row first so the count inserts have their
	// referenced parent on a fresh day.
	report, err := store.SubmitDailyReport(ctx, database.SubmitDailyReportParams{
		ReportDate:  dateOf(day),
		SubmittedBy: submittedBy,
	})
	if err != nil {
		return database.DailyReport{}, fmt.Errorf("submit report: %w", err)
	}
	if err := store.DeleteDenominationCounts(ctx, dateOf(day)); err != nil {
		return database.DailyReport{}, fmt.Errorf("delete denominations: %w", err)
	}
	for _, c := range counts {
		_, err := store.CreateDenominationCount(ctx, database.CreateDenominationCountParams{
			ReportDate:   dateOf(day),
			Denomination: decimalToNumeric(c.Denomination),
			Count:        c.Count,
		})
		if err != nil {
			return database.DailyReport{}, fmt.Errorf("create denomination: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return database.DailyReport{}, fmt.Errorf("commit tx: %w", err)
	}
	return report, nil
}

func zeroComputed(v *DailyView) {
	zero := "0.00"
	v.SessionCash, v.SessionGcash, v.SessionTotal = zero, zero, zero
	v.AddonCash, v.AddonGcash, v.AddonTotal = zero, zero, zero
	v.BookingCash, v.BookingGcash, v.BookingTotal = zero, zero, zero
	v.DiscountTotal = zero
	v.Consignment = nil
	v.ConsignmentTotal = zero
	v.CashoutTotal = zero
	v.LossCash, v.LossGcash, v.LossTotal = zero, zero, zero
	v.CashTotal, v.GcashTotal, v.GrandTotal = zero, zero, zero
	v.SalesCollected = zero
}

func toGroupRows(rows []database.AddonOrder) []grouping.Row {
	out := make([]grouping.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, grouping.Row{
			Name:      r.CustomerName,
			Seat:      r.SeatID,
			OrderedAt: r.OrderedAt,
			ItemName:  r.ItemName,
			Qty:       r.Qty,
			LineTotal: numericToDecimal(r.LineTotal),
			Cash:      numericToDecimal(r.CashPaid),
			Gcash:     numericToDecimal(r.GcashPaid),
			Paid:      r.Paid,
			Voided:    r.Voided,
		})
	}
	return out
}

// dateOf builds a pgtype.Date from a YYYY-MM-DD day string. Callers
// validate the day via manila.DayBounds first.
func dateOf(day string) pgtype.Date {
	t, _ := time.Parse("2006-01-02", day)
	return pgtype.Date{Time: t, Valid: true}
}
