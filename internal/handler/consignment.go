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
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/middleware"
	"github.com/silid-lounge/api/internal/money"
	"github.com/silid-lounge/api/internal/service"
	"github.com/silid-lounge/api/internal/storage"
)

// maxPhotoBytes caps uploaded item photos at 5 MB.
const maxPhotoBytes = 5 << 20

// ConsignmentStore defines the database methods needed by consignment
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type ConsignmentStore interface {
	CreateConsignor(ctx context.Context, arg database.CreateConsignorParams) (database.Consignor, error)
	ListConsignors(ctx context.Context) ([]database.Consignor, error)
	CreateConsignmentItem(ctx context.Context, arg database.CreateConsignmentItemParams) (database.ConsignmentItem, error)
	GetConsignmentItem(ctx context.Context, id uuid.UUID) (database.ConsignmentItem, error)
	ListConsignmentItems(ctx context.Context) ([]database.ConsignmentItem, error)
	UpdateConsignmentItem(ctx context.Context, arg database.UpdateConsignmentItemParams) (database.ConsignmentItem, error)
	SetConsignmentItemPhoto(ctx context.Context, arg database.SetConsignmentItemPhotoParams) (database.ConsignmentItem, error)
	GetConsignmentDailyTotals(ctx context.Context, arg database.GetConsignmentDailyTotalsParams) ([]database.GetConsignmentDailyTotalsRow, error)
	CreateConsignmentCashout(ctx context.Context, arg database.CreateConsignmentCashoutParams) (database.ConsignmentCashout, error)
	ListConsignmentCashoutsByRange(ctx context.Context, arg database.ListConsignmentCashoutsByRangeParams) ([]database.ConsignmentCashout, error)
}

// ConsignmentHandler handles consignor, item, stock and cashout endpoints.
type ConsignmentHandler struct {
	store   ConsignmentStore
	service *service.ConsignmentService
	photos  *storage.PhotoStore
	events  *Events
}

// NewConsignmentHandler creates a new ConsignmentHandler.
func NewConsignmentHandler(store ConsignmentStore, svc *service.ConsignmentService, photos *storage.PhotoStore, events *Events) *ConsignmentHandler {
	return &ConsignmentHandler{store: store, service: svc, photos: photos, events: events}
}

// RegisterRoutes registers consignment endpoints on the given Chi router.
func (h *ConsignmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/consignors", h.CreateConsignor)
	r.Get("/consignors", h.ListConsignors)
	r.Post("/items", h.CreateItem)
	r.Get("/items", h.ListItems)
	r.Put("/items/{id}", h.UpdateItem)
	r.Post("/items/{id}/photo", h.UploadPhoto)
	r.Post("/items/{id}/stock", h.MoveStock)
	r.Get("/daily", h.DailyTotals)
	r.Post("/cashouts", h.CreateCashout)
	r.Get("/cashouts", h.ListCashouts)
}

// --- Request / Response types ---

type consignorRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type consignorResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Contact string    `json:"contact,omitempty"`
}

type consignmentItemRequest struct {
	ConsignorID string `json:"consignor_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
}

type consignmentItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ConsignorID uuid.UUID `json:"consignor_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Price       string    `json:"price"`
	Restocked   int32     `json:"restocked"`
	Sold        int32     `json:"sold"`
	Remaining   int32     `json:"remaining"`
	PhotoURL    string    `json:"photo_url,omitempty"`
}

type stockMoveRequest struct {
	RestockDelta int32 `json:"restock_delta"`
	SoldDelta    int32 `json:"sold_delta"`
}

type cashoutRequest struct {
	ConsignorID string `json:"consignor_id"`
	Amount      string `json:"amount"`
	Note        string `json:"note"`
}

type cashoutResponse struct {
	ID          uuid.UUID `json:"id"`
	ConsignorID uuid.UUID `json:"consignor_id"`
	Amount      string    `json:"amount"`
	Note        string    `json:"note,omitempty"`
	PaidAt      time.Time `json:"paid_at"`
	PaidBy      uuid.UUID `json:"paid_by"`
}

type dailyTotalsResponse struct {
	ConsignorID   uuid.UUID `json:"consignor_id"`
	ConsignorName string    `json:"consignor_name"`
	UnitsSold     int64     `json:"units_sold"`
	NetAmount     string    `json:"net_amount"`
}

// --- Consignors ---

// CreateConsignor registers a supplier whose goods sell on consignment.
func (h *ConsignmentHandler) CreateConsignor(w http.ResponseWriter, r *http.Request) {
	var req consignorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	consignor, err := h.store.CreateConsignor(r.Context(), database.CreateConsignorParams{
		Name:    req.Name,
		Contact: pgText(req.Contact),
	})
	if err != nil {
		log.Printf("ERROR: create consignor: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, consignorToResponse(consignor))
}

// ListConsignors returns all consignors ordered by name.
func (h *ConsignmentHandler) ListConsignors(w http.ResponseWriter, r *http.Request) {
	consignors, err := h.store.ListConsignors(r.Context())
	if err != nil {
		log.Printf("ERROR: list consignors: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]consignorResponse, len(consignors))
	for i, c := range consignors {
		resp[i] = consignorToResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Items ---

// CreateItem adds an item under a consignor. Photos are attached
// afterwards via UploadPhoto.
func (h *ConsignmentHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req consignmentItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	consignorID, err := uuid.Parse(req.ConsignorID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid consignor_id"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := money.ParseAmountStrict(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	item, err := h.store.CreateConsignmentItem(r.Context(), database.CreateConsignmentItemParams{
		ConsignorID: consignorID,
		Name:        req.Name,
		Category:    pgText(req.Category),
		Price:       decimalToNumeric(price),
	})
	if err != nil {
		log.Printf("ERROR: create consignment item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := itemToConsignmentResponse(item)
	h.events.Changed(r.Context(), "consignment_items", "INSERT", time.Time{}, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// ListItems returns all consignment items ordered by name.
func (h *ConsignmentHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListConsignmentItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list consignment items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]consignmentItemResponse, len(items))
	for i, it := range items {
		resp[i] = itemToConsignmentResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateItem edits an item's name, category and price. Stock counters
// only move through MoveStock.
func (h *ConsignmentHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req consignmentItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := money.ParseAmountStrict(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	item, err := h.store.UpdateConsignmentItem(r.Context(), database.UpdateConsignmentItemParams{
		ID:       id,
		Name:     req.Name,
		Category: pgText(req.Category),
		Price:    decimalToNumeric(price),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update consignment item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := itemToConsignmentResponse(item)
	h.events.Changed(r.Context(), "consignment_items", "UPDATE", time.Time{}, resp)
	writeJSON(w, http.StatusOK, resp)
}

// UploadPhoto stores a multipart photo for an item. The object is
// uploaded before the row update, so a failed update leaves an orphan
// in the bucket; that only costs storage, not correctness.
func (h *ConsignmentHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	if !h.photos.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "photo uploads not configured"})
		return
	}

	if _, err := h.store.GetConsignmentItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: get consignment item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo file is required"})
		return
	}
	defer file.Close() //nolint:errcheck

	url, err := h.photos.Upload(r.Context(), id, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Printf("ERROR: upload photo: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	item, err := h.store.SetConsignmentItemPhoto(r.Context(), database.SetConsignmentItemPhotoParams{
		ID:       id,
		PhotoKey: pgText(url),
	})
	if err != nil {
		log.Printf("ERROR: set item photo (orphaned object %s): %v", url, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := itemToConsignmentResponse(item)
	h.events.Changed(r.Context(), "consignment_items", "UPDATE", time.Time{}, resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Stock ---

// MoveStock applies restock/sold deltas and logs the move for the
// daily report.
func (h *ConsignmentHandler) MoveStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req stockMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	movedAt := manila.Now()
	item, err := h.service.MoveStock(r.Context(), id, req.RestockDelta, req.SoldDelta, movedAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMove):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restock_delta and sold_delta are both zero"})
		case errors.Is(err, service.ErrOversold):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "sold would exceed restocked"})
		case errors.Is(err, service.ErrItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		default:
			log.Printf("ERROR: move stock: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := itemToConsignmentResponse(item)
	h.events.Changed(r.Context(), "consignment_items", "UPDATE", movedAt, resp)
	writeJSON(w, http.StatusOK, resp)
}

// DailyTotals returns per-consignor units sold and net amount for a
// Manila calendar day, from the movement log.
func (h *ConsignmentHandler) DailyTotals(w http.ResponseWriter, r *http.Request) {
	_, start, end, err := parseDay(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	totals, err := h.store.GetConsignmentDailyTotals(r.Context(), database.GetConsignmentDailyTotalsParams{Start: start, End: end})
	if err != nil {
		log.Printf("ERROR: consignment daily totals: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailyTotalsResponse, len(totals))
	for i, t := range totals {
		resp[i] = dailyTotalsResponse{
			ConsignorID:   t.ConsignorID,
			ConsignorName: t.ConsignorName,
			UnitsSold:     t.UnitsSold,
			NetAmount:     numericToString(t.NetAmount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Cashouts ---

// CreateCashout records a payout to a consignor. The staff member
// recording it comes from the auth token.
func (h *ConsignmentHandler) CreateCashout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req cashoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	consignorID, err := uuid.Parse(req.ConsignorID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid consignor_id"})
		return
	}
	amount, err := money.ParseAmountStrict(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		return
	}

	paidAt := manila.Now()
	cashout, err := h.store.CreateConsignmentCashout(r.Context(), database.CreateConsignmentCashoutParams{
		ConsignorID: consignorID,
		Amount:      decimalToNumeric(amount),
		Note:        pgText(req.Note),
		PaidAt:      paidAt,
		PaidBy:      claims.StaffID,
	})
	if err != nil {
		log.Printf("ERROR: create cashout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := cashoutToResponse(cashout)
	h.events.Changed(r.Context(), "consignment_cashouts", "INSERT", paidAt, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// ListCashouts returns cashouts recorded on a Manila calendar day.
func (h *ConsignmentHandler) ListCashouts(w http.ResponseWriter, r *http.Request) {
	_, start, end, err := parseDay(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	cashouts, err := h.store.ListConsignmentCashoutsByRange(r.Context(), database.ListConsignmentCashoutsByRangeParams{Start: start, End: end})
	if err != nil {
		log.Printf("ERROR: list cashouts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cashoutResponse, len(cashouts))
	for i, c := range cashouts {
		resp[i] = cashoutToResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func consignorToResponse(c database.Consignor) consignorResponse {
	return consignorResponse{ID: c.ID, Name: c.Name, Contact: textOrEmpty(c.Contact)}
}

func itemToConsignmentResponse(it database.ConsignmentItem) consignmentItemResponse {
	return consignmentItemResponse{
		ID:          it.ID,
		ConsignorID: it.ConsignorID,
		Name:        it.Name,
		Category:    textOrEmpty(it.Category),
		Price:       numericToString(it.Price),
		Restocked:   it.Restocked,
		Sold:        it.Sold,
		Remaining:   it.Restocked - it.Sold,
		PhotoURL:    textOrEmpty(it.PhotoKey),
	}
}

func cashoutToResponse(c database.ConsignmentCashout) cashoutResponse {
	return cashoutResponse{
		ID:          c.ID,
		ConsignorID: c.ConsignorID,
		Amount:      numericToString(c.Amount),
		Note:        textOrEmpty(c.Note),
		PaidAt:      c.PaidAt,
		PaidBy:      c.PaidBy,
	}
}
