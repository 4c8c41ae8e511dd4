package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/silid-lounge/api/internal/billing"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/money"
)

// BookingsStore defines the database methods needed by booking handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type BookingsStore interface {
	CreateBooking(ctx context.Context, arg database.CreateBookingParams) (database.PromoBooking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (database.PromoBooking, error)
	ListBookingsByRange(ctx context.Context, arg database.ListBookingsByRangeParams) ([]database.PromoBooking, error)
	UpdateBooking(ctx context.Context, arg database.UpdateBookingParams) (database.PromoBooking, error)
	SetBookingPayment(ctx context.Context, arg database.SetBookingPaymentParams) (database.PromoBooking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (database.PromoBooking, error)
	CountOverlappingBookings(ctx context.Context, arg database.CountOverlappingBookingsParams) (int64, error)
}

// BookingsHandler handles promo booking endpoints.
type BookingsHandler struct {
	store  BookingsStore
	events *Events
}

// NewBookingsHandler creates a new BookingsHandler.
func NewBookingsHandler(store BookingsStore, events *Events) *BookingsHandler {
	return &BookingsHandler{store: store, events: events}
}

// RegisterRoutes registers booking endpoints on the given Chi router.
func (h *BookingsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/payment", h.Payment)
	r.Post("/{id}/cancel", h.Cancel)
}

// --- Request / Response types ---

type bookingRequest struct {
	CustomerName  string `json:"customer_name"`
	Area          string `json:"area"`
	StartsAt      string `json:"starts_at"` // RFC3339
	EndsAt        string `json:"ends_at"`   // RFC3339
	Rate          string `json:"rate"`
	DiscountKind  string `json:"discount_kind"`
	DiscountValue string `json:"discount_value"`
	Notes         string `json:"notes"`
}

type bookingPaymentRequest struct {
	Cash  string `json:"cash"`
	Gcash string `json:"gcash"`
}

type bookingResponse struct {
	ID             uuid.UUID `json:"id"`
	CustomerName   string    `json:"customer_name"`
	Area           string    `json:"area"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Rate           string    `json:"rate"`
	DiscountKind   string    `json:"discount_kind"`
	DiscountValue  string    `json:"discount_value"`
	DiscountAmount string    `json:"discount_amount"`
	AmountDue      string    `json:"amount_due"`
	CashPaid       string    `json:"cash_paid"`
	GcashPaid      string    `json:"gcash_paid"`
	Paid           bool      `json:"paid"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
}

// --- Handlers ---

// Create books an area for a time range. Overlapping BOOKED bookings
// in the same area are rejected.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := bookingParamsFromRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	overlaps, err := h.store.CountOverlappingBookings(r.Context(), database.CountOverlappingBookingsParams{
		Area:      params.Area,
		StartsAt:  params.StartsAt,
		EndsAt:    params.EndsAt,
		ExcludeID: uuid.Nil,
	})
	if err != nil {
		log.Printf("ERROR: count overlapping bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if overlaps > 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "area is already booked for that time"})
		return
	}

	booking, err := h.store.CreateBooking(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := bookingToResponse(booking)
	h.events.Changed(r.Context(), "promo_bookings", "INSERT", booking.StartsAt, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns bookings overlapping a Manila calendar day.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	_, start, end, err := parseDay(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	bookings, err := h.store.ListBookingsByRange(r.Context(), database.ListBookingsByRangeParams{Start: start, End: end})
	if err != nil {
		log.Printf("ERROR: list bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = bookingToResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update edits a booking, re-checking area overlap.
func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking ID"})
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := bookingParamsFromRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	overlaps, err := h.store.CountOverlappingBookings(r.Context(), database.CountOverlappingBookingsParams{
		Area:      params.Area,
		StartsAt:  params.StartsAt,
		EndsAt:    params.EndsAt,
		ExcludeID: id,
	})
	if err != nil {
		log.Printf("ERROR: count overlapping bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if overlaps > 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "area is already booked for that time"})
		return
	}

	booking, err := h.store.UpdateBooking(r.Context(), database.UpdateBookingParams{
		ID:            id,
		CustomerName:  params.CustomerName,
		Area:          params.Area,
		StartsAt:      params.StartsAt,
		EndsAt:        params.EndsAt,
		Rate:          params.Rate,
		DiscountKind:  params.DiscountKind,
		DiscountValue: params.DiscountValue,
		Notes:         params.Notes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: update booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := bookingToResponse(booking)
	h.events.Changed(r.Context(), "promo_bookings", "UPDATE", booking.StartsAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Payment records cash/gcash against a booking; paid derives from
// whether the payments cover the discounted rate.
func (h *BookingsHandler) Payment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking ID"})
		return
	}

	var req bookingPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cash, err := money.ParseAmountStrict(req.Cash)
	if err != nil || cash.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cash amount"})
		return
	}
	gcash, err := money.ParseAmountStrict(req.Gcash)
	if err != nil || gcash.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gcash amount"})
		return
	}

	booking, err := h.store.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: get booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	rate := numericToDecimal(booking.Rate)
	due := rate.Sub(billing.Discount(booking.DiscountKind, numericToDecimal(booking.DiscountValue), rate))

	updated, err := h.store.SetBookingPayment(r.Context(), database.SetBookingPaymentParams{
		ID:        id,
		CashPaid:  decimalToNumeric(cash),
		GcashPaid: decimalToNumeric(gcash),
		Paid:      billing.Settled(cash, gcash, due),
	})
	if err != nil {
		log.Printf("ERROR: set booking payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := bookingToResponse(updated)
	h.events.Changed(r.Context(), "promo_bookings", "UPDATE", updated.StartsAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Cancel marks a booking CANCELLED. The row stays for the record.
func (h *BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking ID"})
		return
	}

	booking, err := h.store.CancelBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: cancel booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := bookingToResponse(booking)
	h.events.Changed(r.Context(), "promo_bookings", "UPDATE", booking.StartsAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func bookingParamsFromRequest(req bookingRequest) (database.CreateBookingParams, string) {
	if req.CustomerName == "" {
		return database.CreateBookingParams{}, "customer_name is required"
	}

	switch req.Area {
	case enum.AreaCommon, enum.AreaConference:
	default:
		return database.CreateBookingParams{}, "invalid area"
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return database.CreateBookingParams{}, "invalid starts_at"
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return database.CreateBookingParams{}, "invalid ends_at"
	}
	if !startsAt.Before(endsAt) {
		return database.CreateBookingParams{}, "starts_at must be before ends_at"
	}

	rate, err := money.ParseAmountStrict(req.Rate)
	if err != nil || rate.IsNegative() {
		return database.CreateBookingParams{}, "invalid rate"
	}

	kind := req.DiscountKind
	if kind == "" {
		kind = enum.DiscountNone
	}
	switch kind {
	case enum.DiscountNone, enum.DiscountPercent, enum.DiscountAmount:
	default:
		return database.CreateBookingParams{}, "invalid discount_kind"
	}
	value := money.ParseAmount(req.DiscountValue)
	if value.IsNegative() {
		return database.CreateBookingParams{}, "invalid discount_value"
	}

	return database.CreateBookingParams{
		CustomerName:  req.CustomerName,
		Area:          req.Area,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		Rate:          decimalToNumeric(rate),
		DiscountKind:  kind,
		DiscountValue: decimalToNumeric(value),
		Notes:         pgText(req.Notes),
	}, ""
}

func bookingToResponse(b database.PromoBooking) bookingResponse {
	rate := numericToDecimal(b.Rate)
	discount := billing.Discount(b.DiscountKind, numericToDecimal(b.DiscountValue), rate)
	return bookingResponse{
		ID:             b.ID,
		CustomerName:   b.CustomerName,
		Area:           b.Area,
		StartsAt:       b.StartsAt,
		EndsAt:         b.EndsAt,
		Rate:           numericToString(b.Rate),
		DiscountKind:   b.DiscountKind,
		DiscountValue:  numericToString(b.DiscountValue),
		DiscountAmount: discount.StringFixed(2),
		AmountDue:      rate.Sub(discount).StringFixed(2),
		CashPaid:       numericToString(b.CashPaid),
		GcashPaid:      numericToString(b.GcashPaid),
		Paid:           b.Paid,
		Status:         b.Status,
		Notes:          textOrEmpty(b.Notes),
	}
}
