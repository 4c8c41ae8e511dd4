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
	"github.com/shopspring/decimal"
	"github.com/silid-lounge/api/internal/billing"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/middleware"
	"github.com/silid-lounge/api/internal/money"
	"github.com/silid-lounge/api/internal/service"
)

// SessionsStore defines the database methods needed by session handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SessionsStore interface {
	CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (database.Session, error)
	ListSessionsByRange(ctx context.Context, arg database.ListSessionsByRangeParams) ([]database.Session, error)
	UpdateSession(ctx context.Context, arg database.UpdateSessionParams) (database.Session, error)
	SetSessionPayment(ctx context.Context, arg database.SetSessionPaymentParams) (database.Session, error)
	CloseSession(ctx context.Context, arg database.CloseSessionParams) (database.Session, error)
	ListCancelledSessionsByRange(ctx context.Context, arg database.ListCancelledSessionsByRangeParams) ([]database.CancelledSession, error)
}

// SessionsHandler handles study session endpoints.
type SessionsHandler struct {
	store   SessionsStore
	service *service.SessionService
	events  *Events
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(store SessionsStore, svc *service.SessionService, events *Events) *SessionsHandler {
	return &SessionsHandler{store: store, service: svc, events: events}
}

// RegisterRoutes registers session endpoints on the given Chi router.
func (h *SessionsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/cancelled", h.ListCancelled)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/payment", h.Payment)
	r.Post("/{id}/close", h.Close)
	r.Post("/{id}/cancel", h.Cancel)
}

// --- Request / Response types ---

type sessionRequest struct {
	CustomerName  string `json:"customer_name"`
	SeatID        string `json:"seat_id"`
	StartedAt     string `json:"started_at"` // RFC3339, empty = now
	Reserved      bool   `json:"reserved"`
	HourlyRate    string `json:"hourly_rate"`
	FreeMinutes   int32  `json:"free_minutes"`
	DiscountKind  string `json:"discount_kind"`
	DiscountValue string `json:"discount_value"`
	Notes         string `json:"notes"`
}

type sessionPaymentRequest struct {
	Cash  string `json:"cash"`
	Gcash string `json:"gcash"`
}

type sessionCloseRequest struct {
	EndedAt string `json:"ended_at"` // RFC3339, empty = now
}

type sessionCancelRequest struct {
	Description string `json:"description"`
}

type sessionResponse struct {
	ID             uuid.UUID  `json:"id"`
	CustomerName   string     `json:"customer_name"`
	SeatID         string     `json:"seat_id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	Open           bool       `json:"open"`
	Reserved       bool       `json:"reserved"`
	HourlyRate     string     `json:"hourly_rate"`
	FreeMinutes    int32      `json:"free_minutes"`
	DiscountKind   string     `json:"discount_kind"`
	DiscountValue  string     `json:"discount_value"`
	TimeCost       string     `json:"time_cost"`
	DiscountAmount string     `json:"discount_amount"`
	AmountDue      string     `json:"amount_due"`
	CashPaid       string     `json:"cash_paid"`
	GcashPaid      string     `json:"gcash_paid"`
	Paid           bool       `json:"paid"`
	Notes          string     `json:"notes,omitempty"`
}

type cancelledSessionResponse struct {
	ID           uuid.UUID  `json:"id"`
	SessionID    uuid.UUID  `json:"session_id"`
	CustomerName string     `json:"customer_name"`
	SeatID       string     `json:"seat_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	HourlyRate   string     `json:"hourly_rate"`
	CashPaid     string     `json:"cash_paid"`
	GcashPaid    string     `json:"gcash_paid"`
	Paid         bool       `json:"paid"`
	Description  string     `json:"description"`
	CancelledBy  uuid.UUID  `json:"cancelled_by"`
	CancelledAt  time.Time  `json:"cancelled_at"`
}

// --- Handlers ---

// Create checks a customer in: opens a session on a seat.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := sessionParamsFromRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	sess, err := h.store.CreateSession(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := sessionToResponse(sess, manila.Now())
	h.events.Changed(r.Context(), "sessions", "INSERT", sess.StartedAt, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns the sessions that started on a Manila calendar day,
// with running cost computed for still-open ones.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	_, start, end, err := parseDay(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	sessions, err := h.store.ListSessionsByRange(r.Context(), database.ListSessionsByRangeParams{Start: start, End: end})
	if err != nil {
		log.Printf("ERROR: list sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	now := manila.Now()
	resp := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = sessionToResponse(s, now)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCancelled returns sessions cancelled on a Manila calendar day.
func (h *SessionsHandler) ListCancelled(w http.ResponseWriter, r *http.Request) {
	_, start, end, err := parseDay(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	rows, err := h.store.ListCancelledSessionsByRange(r.Context(), database.ListCancelledSessionsByRangeParams{Start: start, End: end})
	if err != nil {
		log.Printf("ERROR: list cancelled sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cancelledSessionResponse, len(rows))
	for i, c := range rows {
		resp[i] = cancelledSessionResponse{
			ID:           c.ID,
			SessionID:    c.SessionID,
			CustomerName: c.CustomerName,
			SeatID:       c.SeatID,
			StartedAt:    c.StartedAt,
			HourlyRate:   numericToString(c.HourlyRate),
			CashPaid:     numericToString(c.CashPaid),
			GcashPaid:    numericToString(c.GcashPaid),
			Paid:         c.Paid,
			Description:  c.Description,
			CancelledBy:  c.CancelledBy,
			CancelledAt:  c.CancelledAt,
		}
		if c.EndedAt.Valid && !billing.IsOpenEnd(c.EndedAt.Time) {
			t := c.EndedAt.Time
			resp[i].EndedAt = &t
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update edits a session's details. Payments go through Payment.
func (h *SessionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := sessionParamsFromRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	sess, err := h.store.UpdateSession(r.Context(), database.UpdateSessionParams{
		ID:            id,
		CustomerName:  params.CustomerName,
		SeatID:        params.SeatID,
		StartedAt:     params.StartedAt,
		Reserved:      params.Reserved,
		HourlyRate:    params.HourlyRate,
		FreeMinutes:   params.FreeMinutes,
		DiscountKind:  params.DiscountKind,
		DiscountValue: params.DiscountValue,
		Notes:         params.Notes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		log.Printf("ERROR: update session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := sessionToResponse(sess, manila.Now())
	h.events.Changed(r.Context(), "sessions", "UPDATE", sess.StartedAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Payment records cash/gcash amounts against a session. The paid flag
// is derived from whether the payments cover the amount due, never
// taken from the client.
func (h *SessionsHandler) Payment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req sessionPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cash, err := money.ParseAmountStrict(req.Cash)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cash amount"})
		return
	}
	gcash, err := money.ParseAmountStrict(req.Gcash)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gcash amount"})
		return
	}
	if cash.IsNegative() || gcash.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amounts must not be negative"})
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		log.Printf("ERROR: get session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	due := amountDue(sess, manila.Now())
	updated, err := h.store.SetSessionPayment(r.Context(), database.SetSessionPaymentParams{
		ID:        id,
		CashPaid:  decimalToNumeric(cash),
		GcashPaid: decimalToNumeric(gcash),
		Paid:      billing.Settled(cash, gcash, due),
	})
	if err != nil {
		log.Printf("ERROR: set session payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := sessionToResponse(updated, manila.Now())
	h.events.Changed(r.Context(), "sessions", "UPDATE", updated.StartedAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Close sets a session's end time, freezing its billed cost.
func (h *SessionsHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req sessionCloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	endedAt := manila.Now()
	if req.EndedAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndedAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ended_at"})
			return
		}
		endedAt = t
	}

	sess, err := h.store.CloseSession(r.Context(), database.CloseSessionParams{ID: id, EndedAt: endedAt})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		log.Printf("ERROR: close session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := sessionToResponse(sess, manila.Now())
	h.events.Changed(r.Context(), "sessions", "UPDATE", sess.StartedAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Cancel archives a session with a mandatory reason and removes it
// from the active list.
func (h *SessionsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req sessionCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	cancelled, err := h.service.Cancel(r.Context(), id, req.Description, claims.StaffID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDescriptionRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		case errors.Is(err, service.ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		default:
			log.Printf("ERROR: cancel session: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.events.Changed(r.Context(), "sessions", "DELETE", cancelled.StartedAt, map[string]string{"id": id.String()})
	writeJSON(w, http.StatusOK, map[string]string{
		"id":          cancelled.ID.String(),
		"session_id":  cancelled.SessionID.String(),
		"description": cancelled.Description,
	})
}

// --- Helpers ---

func sessionParamsFromRequest(req sessionRequest) (database.CreateSessionParams, string) {
	if req.CustomerName == "" {
		return database.CreateSessionParams{}, "customer_name is required"
	}
	if req.SeatID == "" {
		return database.CreateSessionParams{}, "seat_id is required"
	}

	rate, err := money.ParseAmountStrict(req.HourlyRate)
	if err != nil || rate.IsNegative() {
		return database.CreateSessionParams{}, "invalid hourly_rate"
	}

	kind := req.DiscountKind
	if kind == "" {
		kind = enum.DiscountNone
	}
	switch kind {
	case enum.DiscountNone, enum.DiscountPercent, enum.DiscountAmount:
	default:
		return database.CreateSessionParams{}, "invalid discount_kind"
	}

	value := money.ParseAmount(req.DiscountValue)
	if value.IsNegative() {
		return database.CreateSessionParams{}, "invalid discount_value"
	}

	startedAt := manila.Now()
	if req.StartedAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartedAt)
		if err != nil {
			return database.CreateSessionParams{}, "invalid started_at"
		}
		startedAt = t
	}

	if req.FreeMinutes < 0 {
		return database.CreateSessionParams{}, "invalid free_minutes"
	}

	return database.CreateSessionParams{
		CustomerName:  req.CustomerName,
		SeatID:        req.SeatID,
		StartedAt:     startedAt,
		Reserved:      req.Reserved,
		HourlyRate:    decimalToNumeric(rate),
		FreeMinutes:   req.FreeMinutes,
		DiscountKind:  kind,
		DiscountValue: decimalToNumeric(value),
		Notes:         pgText(req.Notes),
	}, ""
}

// amountDue is the billed time cost less discount at the given instant.
func amountDue(s database.Session, now time.Time) decimal.Decimal {
	endAt := time.Time{}
	if s.EndedAt.Valid {
		endAt = s.EndedAt.Time
	}
	cost := billing.TimeCost(s.StartedAt, endAt, now, numericToDecimal(s.HourlyRate), int(s.FreeMinutes))
	return cost.Sub(billing.Discount(s.DiscountKind, numericToDecimal(s.DiscountValue), cost))
}

func sessionToResponse(s database.Session, now time.Time) sessionResponse {
	endAt := time.Time{}
	if s.EndedAt.Valid {
		endAt = s.EndedAt.Time
	}
	cost := billing.TimeCost(s.StartedAt, endAt, now, numericToDecimal(s.HourlyRate), int(s.FreeMinutes))
	discount := billing.Discount(s.DiscountKind, numericToDecimal(s.DiscountValue), cost)

	resp := sessionResponse{
		ID:             s.ID,
		CustomerName:   s.CustomerName,
		SeatID:         s.SeatID,
		StartedAt:      s.StartedAt,
		Open:           billing.IsOpenEnd(endAt),
		Reserved:       s.Reserved,
		HourlyRate:     numericToString(s.HourlyRate),
		FreeMinutes:    s.FreeMinutes,
		DiscountKind:   s.DiscountKind,
		DiscountValue:  numericToString(s.DiscountValue),
		TimeCost:       cost.StringFixed(2),
		DiscountAmount: discount.StringFixed(2),
		AmountDue:      cost.Sub(discount).StringFixed(2),
		CashPaid:       numericToString(s.CashPaid),
		GcashPaid:      numericToString(s.GcashPaid),
		Paid:           s.Paid,
		Notes:          textOrEmpty(s.Notes),
	}
	if !billing.IsOpenEnd(endAt) {
		resp.EndedAt = &endAt
	}
	return resp
}
