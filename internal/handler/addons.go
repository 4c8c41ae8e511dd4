package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/silid-lounge/api/internal/billing"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/grouping"
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/money"
	"github.com/silid-lounge/api/internal/service"
)

// AddonsStore defines the database methods needed by add-on handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AddonsStore interface {
	CreateAddonItem(ctx context.Context, arg database.CreateAddonItemParams) (database.AddonItem, error)
	ListAddonItems(ctx context.Context) ([]database.AddonItem, error)
	UpdateAddonItem(ctx context.Context, arg database.UpdateAddonItemParams) (database.AddonItem, error)
	ListAddonOrdersByRange(ctx context.Context, arg database.ListAddonOrdersByRangeParams) ([]database.AddonOrder, error)
	SetAddonOrderPayment(ctx context.Context, arg database.SetAddonOrderPaymentParams) (int64, error)
	VoidAddonOrders(ctx context.Context, arg database.VoidAddonOrdersParams) (int64, error)
}

// AddonsHandler handles add-on catalog and order endpoints.
type AddonsHandler struct {
	store    AddonsStore
	checkout *service.AddonService
	groups   grouping.Strategy
	events   *Events
}

// NewAddonsHandler creates a new AddonsHandler. strategy groups order
// lines into logical orders; pass nil for the default time window.
func NewAddonsHandler(store AddonsStore, checkout *service.AddonService, strategy grouping.Strategy, events *Events) *AddonsHandler {
	if strategy == nil {
		strategy = grouping.NewTimeWindow(grouping.DefaultWindow)
	}
	return &AddonsHandler{store: store, checkout: checkout, groups: strategy, events: events}
}

// RegisterRoutes registers add-on endpoints on the given Chi router.
func (h *AddonsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/items", h.ListItems)
	r.Post("/items", h.CreateItem)
	r.Put("/items/{id}", h.UpdateItem)
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Post("/orders/payment", h.OrderPayment)
	r.Post("/orders/void", h.VoidOrder)
}

// --- Request / Response types ---

type addonItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type addonItemResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Price    string    `json:"price"`
	IsActive bool      `json:"is_active"`
}

type addonOrderLineRequest struct {
	ItemID string `json:"item_id"`
	Qty    int32  `json:"qty"`
}

type addonOrderRequest struct {
	CustomerName string                  `json:"customer_name"`
	SeatID       string                  `json:"seat_id"`
	Lines        []addonOrderLineRequest `json:"lines"`
}

type addonOrderLineResponse struct {
	ItemName  string `json:"item_name"`
	Qty       int32  `json:"qty"`
	LineTotal string `json:"line_total"`
}

type addonOrderResponse struct {
	CustomerName string                   `json:"customer_name"`
	SeatID       string                   `json:"seat_id"`
	OrderedAt    time.Time                `json:"ordered_at"`
	Lines        []addonOrderLineResponse `json:"lines"`
	Total        string                   `json:"total"`
	CashPaid     string                   `json:"cash_paid"`
	GcashPaid    string                   `json:"gcash_paid"`
	Paid         bool                     `json:"paid"`
}

// groupKeyRequest addresses a logical order the same way the grouping
// heuristic reconstructs it: normalized name + seat + time span.
type groupKeyRequest struct {
	CustomerName string `json:"customer_name"`
	SeatID       string `json:"seat_id"`
	From         string `json:"from"` // RFC3339
	To           string `json:"to"`   // RFC3339
	Cash         string `json:"cash,omitempty"`
	Gcash        string `json:"gcash,omitempty"`
}

// --- Catalog handlers ---

// ListItems returns the active add-on catalog.
func (h *AddonsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListAddonItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list addon items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]addonItemResponse, len(items))
	for i, it := range items {
		resp[i] = itemToResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateItem adds a catalog item.
func (h *AddonsHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req addonItemRequest
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

	item, err := h.store.CreateAddonItem(r.Context(), database.CreateAddonItemParams{
		Name:     req.Name,
		Category: req.Category,
		Price:    decimalToNumeric(price),
	})
	if err != nil {
		log.Printf("ERROR: create addon item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := itemToResponse(item)
	h.events.Changed(r.Context(), "addon_items", "INSERT", time.Time{}, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateItem edits a catalog item, including deactivation.
func (h *AddonsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req addonItemRequest
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

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	item, err := h.store.UpdateAddonItem(r.Context(), database.UpdateAddonItemParams{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
		Price:    decimalToNumeric(price),
		IsActive: isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update addon item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := itemToResponse(item)
	h.events.Changed(r.Context(), "addon_items", "UPDATE", time.Time{}, resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Order handlers ---

// CreateOrder records one checkout: every line shares a single
// timestamp so the grouping heuristic reassembles them as one order.
func (h *AddonsHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req addonOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CustomerName == "" || req.SeatID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name and seat_id are required"})
		return
	}
	if len(req.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lines are required"})
		return
	}

	lines := make([]service.CheckoutLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Qty <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "qty must be > 0"})
			return
		}
		itemID, err := uuid.Parse(line.ItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
			return
		}
		lines = append(lines, service.CheckoutLine{ItemID: itemID, Qty: line.Qty})
	}

	orderedAt := manila.Now()
	created, err := h.checkout.Checkout(r.Context(), req.CustomerName, req.SeatID, lines, orderedAt)
	if err != nil {
		if errors.Is(err, service.ErrAddonItemNotFound) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orders := h.groups.GroupRows(toGroupRows(created))
	if len(orders) == 0 {
		log.Printf("ERROR: created order lines grouped to nothing")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := orderToResponse(orders[0])
	h.events.Changed(r.Context(), "addon_orders", "INSERT", orderedAt, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// ListOrders returns the day's order lines regrouped into logical
// orders.
func (h *AddonsHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	_, start, end, err := parseDay(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	rows, err := h.store.ListAddonOrdersByRange(r.Context(), database.ListAddonOrdersByRangeParams{Start: start, End: end})
	if err != nil {
		log.Printf("ERROR: list addon orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orders := h.groups.GroupRows(toGroupRows(rows))
	resp := make([]addonOrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = orderToResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// OrderPayment records payment against a logical order. The paid flag
// derives from whether cash+gcash covers the grouped total.
func (h *AddonsHandler) OrderPayment(w http.ResponseWriter, r *http.Request) {
	key, from, to, ok := h.decodeGroupKey(w, r)
	if !ok {
		return
	}

	cash, err := money.ParseAmountStrict(key.Cash)
	if err != nil || cash.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cash amount"})
		return
	}
	gcash, err := money.ParseAmountStrict(key.Gcash)
	if err != nil || gcash.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gcash amount"})
		return
	}

	// Total due = sum of the live lines in the span.
	rows, err := h.store.ListAddonOrdersByRange(r.Context(), database.ListAddonOrdersByRangeParams{Start: from, End: to.Add(time.Second)})
	if err != nil {
		log.Printf("ERROR: list addon orders for payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	due := decimal.Zero
	for _, o := range h.groups.GroupRows(toGroupRows(rows)) {
		if equalFold(o.Name, key.CustomerName) && equalFold(o.Seat, key.SeatID) {
			due = due.Add(o.Total)
		}
	}

	affected, err := h.store.SetAddonOrderPayment(r.Context(), database.SetAddonOrderPaymentParams{
		CustomerName: key.CustomerName,
		SeatID:       key.SeatID,
		From:         from,
		To:           to,
		CashPaid:     decimalToNumeric(cash),
		GcashPaid:    decimalToNumeric(gcash),
		Paid:         billing.Settled(cash, gcash, due),
	})
	if err != nil {
		log.Printf("ERROR: set addon order payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matching order lines"})
		return
	}

	h.events.Changed(r.Context(), "addon_orders", "UPDATE", from, map[string]interface{}{
		"customer_name": key.CustomerName,
		"seat_id":       key.SeatID,
		"lines":         affected,
	})
	writeJSON(w, http.StatusOK, map[string]int64{"lines_updated": affected})
}

// VoidOrder voids every live line of a logical order.
func (h *AddonsHandler) VoidOrder(w http.ResponseWriter, r *http.Request) {
	key, from, to, ok := h.decodeGroupKey(w, r)
	if !ok {
		return
	}

	affected, err := h.store.VoidAddonOrders(r.Context(), database.VoidAddonOrdersParams{
		CustomerName: key.CustomerName,
		SeatID:       key.SeatID,
		From:         from,
		To:           to,
	})
	if err != nil {
		log.Printf("ERROR: void addon orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matching order lines"})
		return
	}

	h.events.Changed(r.Context(), "addon_orders", "DELETE", from, map[string]interface{}{
		"customer_name": key.CustomerName,
		"seat_id":       key.SeatID,
		"lines":         affected,
	})
	writeJSON(w, http.StatusOK, map[string]int64{"lines_voided": affected})
}

// --- Helpers ---

func (h *AddonsHandler) decodeGroupKey(w http.ResponseWriter, r *http.Request) (groupKeyRequest, time.Time, time.Time, bool) {
	var req groupKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, time.Time{}, time.Time{}, false
	}
	if req.CustomerName == "" || req.SeatID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name and seat_id are required"})
		return req, time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(time.RFC3339, req.From)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from"})
		return req, time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, req.To)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to"})
		return req, time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must not be before from"})
		return req, time.Time{}, time.Time{}, false
	}
	return req, from, to, true
}

func itemToResponse(it database.AddonItem) addonItemResponse {
	return addonItemResponse{
		ID:       it.ID,
		Name:     it.Name,
		Category: it.Category,
		Price:    numericToString(it.Price),
		IsActive: it.IsActive,
	}
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

func orderToResponse(o grouping.Order) addonOrderResponse {
	lines := make([]addonOrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = addonOrderLineResponse{
			ItemName:  l.ItemName,
			Qty:       l.Qty,
			LineTotal: l.LineTotal.StringFixed(2),
		}
	}
	return addonOrderResponse{
		CustomerName: o.Name,
		SeatID:       o.Seat,
		OrderedAt:    o.FirstAt,
		Lines:        lines,
		Total:        o.Total.StringFixed(2),
		CashPaid:     o.Cash.StringFixed(2),
		GcashPaid:    o.Gcash.StringFixed(2),
		Paid:         o.Paid,
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
