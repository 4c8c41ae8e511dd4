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
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/money"
)

// LossesStore defines the database methods needed by inventory loss handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type LossesStore interface {
	CreateInventoryLoss(ctx context.Context, arg database.CreateInventoryLossParams) (database.InventoryLoss, error)
	VoidInventoryLoss(ctx context.Context, id uuid.UUID) (database.InventoryLoss, error)
	ListInventoryLossesByRange(ctx context.Context, arg database.ListInventoryLossesByRangeParams) ([]database.InventoryLoss, error)
}

// LossesHandler handles inventory loss endpoints. Losses are corrections
// against a cash method, so voided rows stay in the table for the record.
type LossesHandler struct {
	store  LossesStore
	events *Events
}

// NewLossesHandler creates a new LossesHandler.
func NewLossesHandler(store LossesStore, events *Events) *LossesHandler {
	return &LossesHandler{store: store, events: events}
}

// RegisterRoutes registers inventory loss endpoints on the given Chi router.
func (h *LossesHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{id}/void", h.Void)
}

type lossRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	LostAt      string `json:"lost_at,omitempty"` // RFC3339, defaults to now
}

type lossResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Method      string    `json:"method"`
	Voided      bool      `json:"voided"`
	LostAt      time.Time `json:"lost_at"`
}

// Create records a loss against the day's cash or gcash figure.
func (h *LossesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req lossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		return
	}
	amount, err := money.ParseAmountStrict(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}
	switch req.Method {
	case enum.PayMethodCash, enum.PayMethodGcash:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid method"})
		return
	}

	lostAt := manila.Now()
	if req.LostAt != "" {
		lostAt, err = time.Parse(time.RFC3339, req.LostAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lost_at"})
			return
		}
	}

	loss, err := h.store.CreateInventoryLoss(r.Context(), database.CreateInventoryLossParams{
		Description: req.Description,
		Amount:      decimalToNumeric(amount),
		Method:      req.Method,
		LostAt:      lostAt,
	})
	if err != nil {
		log.Printf("ERROR: create inventory loss: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := lossToResponse(loss)
	h.events.Changed(r.Context(), "inventory_losses", "INSERT", loss.LostAt, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns losses for a Manila calendar day, voided ones included.
func (h *LossesHandler) List(w http.ResponseWriter, r *http.Request) {
	_, start, end, err := parseDay(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	losses, err := h.store.ListInventoryLossesByRange(r.Context(), database.ListInventoryLossesByRangeParams{Start: start, End: end})
	if err != nil {
		log.Printf("ERROR: list inventory losses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]lossResponse, len(losses))
	for i, l := range losses {
		resp[i] = lossToResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Void marks a loss voided so it stops counting against the day.
func (h *LossesHandler) Void(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loss ID"})
		return
	}

	loss, err := h.store.VoidInventoryLoss(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "loss not found"})
			return
		}
		log.Printf("ERROR: void inventory loss: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := lossToResponse(loss)
	h.events.Changed(r.Context(), "inventory_losses", "UPDATE", loss.LostAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

func lossToResponse(l database.InventoryLoss) lossResponse {
	return lossResponse{
		ID:          l.ID,
		Description: l.Description,
		Amount:      numericToString(l.Amount),
		Method:      l.Method,
		Voided:      l.Voided,
		LostAt:      l.LostAt,
	}
}
