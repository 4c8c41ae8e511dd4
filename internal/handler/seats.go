package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/manila"
)

// SeatsStore defines the database methods needed by seat handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SeatsStore interface {
	ListSeats(ctx context.Context) ([]database.Seat, error)
	ListOpenSessions(ctx context.Context) ([]database.Session, error)
	ListSeatBlocksAt(ctx context.Context, at time.Time) ([]database.SeatBlock, error)
	ListBookingsByRange(ctx context.Context, arg database.ListBookingsByRangeParams) ([]database.PromoBooking, error)
	CreateSeatBlock(ctx context.Context, arg database.CreateSeatBlockParams) (database.SeatBlock, error)
	DeleteSeatBlock(ctx context.Context, id uuid.UUID) error
}

// SeatsHandler handles floor map and seat block endpoints.
type SeatsHandler struct {
	store  SeatsStore
	events *Events
}

// NewSeatsHandler creates a new SeatsHandler.
func NewSeatsHandler(store SeatsStore, events *Events) *SeatsHandler {
	return &SeatsHandler{store: store, events: events}
}

// RegisterRoutes registers seat endpoints on the given Chi router.
func (h *SeatsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/map", h.Map)
	r.Post("/blocks", h.CreateBlock)
	r.Delete("/blocks/{id}", h.DeleteBlock)
}

// --- Request / Response types ---

type seatBlockRequest struct {
	SeatID   string `json:"seat_id"`
	Reason   string `json:"reason"`
	StartsAt string `json:"starts_at"` // RFC3339, empty = now
	EndsAt   string `json:"ends_at"`   // RFC3339
}

type seatBlockResponse struct {
	ID       uuid.UUID `json:"id"`
	SeatID   string    `json:"seat_id"`
	Reason   string    `json:"reason,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type seatMapEntry struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Zone         string  `json:"zone"`
	MapX         float64 `json:"map_x"`
	MapY         float64 `json:"map_y"`
	Status       string  `json:"status"`
	CustomerName string  `json:"customer_name,omitempty"`
	BlockReason  string  `json:"block_reason,omitempty"`
}

// --- Handlers ---

// Map returns every active seat with its live status. Per seat,
// precedence runs: open session (occupied, or temporarily occupied
// when the sitter reserved the seat and stepped away), then an active
// block, then an active area booking, then available.
func (h *SeatsHandler) Map(w http.ResponseWriter, r *http.Request) {
	now := manila.Now()

	seats, err := h.store.ListSeats(r.Context())
	if err != nil {
		log.Printf("ERROR: list seats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	open, err := h.store.ListOpenSessions(r.Context())
	if err != nil {
		log.Printf("ERROR: list open sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	sessionBySeat := make(map[string]database.Session, len(open))
	for _, s := range open {
		sessionBySeat[strings.ToUpper(s.SeatID)] = s
	}

	blocks, err := h.store.ListSeatBlocksAt(r.Context(), now)
	if err != nil {
		log.Printf("ERROR: list seat blocks: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	blockBySeat := make(map[string]database.SeatBlock, len(blocks))
	for _, b := range blocks {
		blockBySeat[strings.ToUpper(b.SeatID)] = b
	}

	bookings, err := h.store.ListBookingsByRange(r.Context(), database.ListBookingsByRangeParams{
		Start: now,
		End:   now.Add(time.Second),
	})
	if err != nil {
		log.Printf("ERROR: list bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	bookedZones := make(map[string]bool)
	for _, b := range bookings {
		if b.Status != enum.BookingStatusBooked {
			continue
		}
		// Area names match zone names for the bookable zones.
		bookedZones[b.Area] = true
	}

	resp := make([]seatMapEntry, len(seats))
	for i, seat := range seats {
		entry := seatMapEntry{
			ID:     seat.ID,
			Label:  seat.Label,
			Zone:   seat.Zone,
			MapX:   seat.MapX,
			MapY:   seat.MapY,
			Status: enum.SeatStatusAvailable,
		}

		key := strings.ToUpper(seat.ID)
		switch {
		case sessionBySeat[key].ID != uuid.Nil:
			sess := sessionBySeat[key]
			entry.CustomerName = sess.CustomerName
			if sess.Reserved {
				entry.Status = enum.SeatStatusTempOccupied
			} else {
				entry.Status = enum.SeatStatusOccupied
			}
		case blockBySeat[key].ID != uuid.Nil:
			entry.Status = enum.SeatStatusReserved
			entry.BlockReason = textOrEmpty(blockBySeat[key].Reason)
		case bookedZones[seat.Zone]:
			entry.Status = enum.SeatStatusReserved
		}

		resp[i] = entry
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateBlock reserves a seat for a time range.
func (h *SeatsHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req seatBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.SeatID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "seat_id is required"})
		return
	}

	startsAt := manila.Now()
	if req.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid starts_at"})
			return
		}
		startsAt = t
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ends_at"})
		return
	}
	if !startsAt.Before(endsAt) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "starts_at must be before ends_at"})
		return
	}

	block, err := h.store.CreateSeatBlock(r.Context(), database.CreateSeatBlockParams{
		SeatID:   req.SeatID,
		Reason:   pgText(req.Reason),
		StartsAt: startsAt,
		EndsAt:   endsAt,
	})
	if err != nil {
		log.Printf("ERROR: create seat block: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := seatBlockResponse{
		ID:       block.ID,
		SeatID:   block.SeatID,
		Reason:   textOrEmpty(block.Reason),
		StartsAt: block.StartsAt,
		EndsAt:   block.EndsAt,
	}
	h.events.Changed(r.Context(), "seat_blocks", "INSERT", block.StartsAt, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// DeleteBlock removes a seat block.
func (h *SeatsHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid block ID"})
		return
	}

	if err := h.store.DeleteSeatBlock(r.Context(), id); err != nil {
		log.Printf("ERROR: delete seat block: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.events.Changed(r.Context(), "seat_blocks", "DELETE", manila.Now(), map[string]string{"id": id.String()})
	w.WriteHeader(http.StatusNoContent)
}
