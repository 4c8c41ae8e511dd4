package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/handler"
	"github.com/silid-lounge/api/internal/manila"
)

// --- Mock store ---

type mockBookingsStore struct {
	bookings map[uuid.UUID]database.PromoBooking
}

func newMockBookingsStore() *mockBookingsStore {
	return &mockBookingsStore{bookings: make(map[uuid.UUID]database.PromoBooking)}
}

func (m *mockBookingsStore) CreateBooking(_ context.Context, arg database.CreateBookingParams) (database.PromoBooking, error) {
	b := database.PromoBooking{
		ID:            uuid.New(),
		CustomerName:  arg.CustomerName,
		Area:          arg.Area,
		StartsAt:      arg.StartsAt,
		EndsAt:        arg.EndsAt,
		Rate:          arg.Rate,
		DiscountKind:  arg.DiscountKind,
		DiscountValue: arg.DiscountValue,
		Status:        enum.BookingStatusBooked,
		Notes:         arg.Notes,
	}
	m.bookings[b.ID] = b
	return b, nil
}

func (m *mockBookingsStore) GetBooking(_ context.Context, id uuid.UUID) (database.PromoBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return database.PromoBooking{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *mockBookingsStore) ListBookingsByRange(_ context.Context, arg database.ListBookingsByRangeParams) ([]database.PromoBooking, error) {
	var result []database.PromoBooking
	for _, b := range m.bookings {
		if b.StartsAt.Before(arg.End) && b.EndsAt.After(arg.Start) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBookingsStore) UpdateBooking(_ context.Context, arg database.UpdateBookingParams) (database.PromoBooking, error) {
	b, ok := m.bookings[arg.ID]
	if !ok {
		return database.PromoBooking{}, pgx.ErrNoRows
	}
	b.CustomerName = arg.CustomerName
	b.Area = arg.Area
	b.StartsAt = arg.StartsAt
	b.EndsAt = arg.EndsAt
	b.Rate = arg.Rate
	b.DiscountKind = arg.DiscountKind
	b.DiscountValue = arg.DiscountValue
	b.Notes = arg.Notes
	m.bookings[b.ID] = b
	return b, nil
}

func (m *mockBookingsStore) SetBookingPayment(_ context.Context, arg database.SetBookingPaymentParams) (database.PromoBooking, error) {
	b, ok := m.bookings[arg.ID]
	if !ok {
		return database.PromoBooking{}, pgx.ErrNoRows
	}
	b.CashPaid = arg.CashPaid
	b.GcashPaid = arg.GcashPaid
	b.Paid = arg.Paid
	m.bookings[b.ID] = b
	return b, nil
}

func (m *mockBookingsStore) CancelBooking(_ context.Context, id uuid.UUID) (database.PromoBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return database.PromoBooking{}, pgx.ErrNoRows
	}
	b.Status = enum.BookingStatusCancelled
	m.bookings[id] = b
	return b, nil
}

func (m *mockBookingsStore) CountOverlappingBookings(_ context.Context, arg database.CountOverlappingBookingsParams) (int64, error) {
	var count int64
	for _, b := range m.bookings {
		if b.ID == arg.ExcludeID || b.Status != enum.BookingStatusBooked || b.Area != arg.Area {
			continue
		}
		if b.StartsAt.Before(arg.EndsAt) && b.EndsAt.After(arg.StartsAt) {
			count++
		}
	}
	return count, nil
}

// --- Helpers ---

func setupBookingsRouter(store *mockBookingsStore) *chi.Mux {
	h := handler.NewBookingsHandler(store, nil)
	r := chi.NewRouter()
	r.Route("/bookings", h.RegisterRoutes)
	return r
}

func bookingBody(area string, starts, ends time.Time) map[string]interface{} {
	return map[string]interface{}{
		"customer_name": "Study Group",
		"area":          area,
		"starts_at":     starts.Format(time.RFC3339),
		"ends_at":       ends.Format(time.RFC3339),
		"rate":          "500.00",
	}
}

// --- Tests ---

func TestBookingCreate(t *testing.T) {
	store := newMockBookingsStore()
	router := setupBookingsRouter(store)

	now := manila.Now()
	rr := postJSON(t, router, "/bookings", bookingBody(enum.AreaConference, now, now.Add(2*time.Hour)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["status"] != enum.BookingStatusBooked {
		t.Errorf("expected status BOOKED, got %v", resp["status"])
	}
	if resp["amount_due"] != "500.00" {
		t.Errorf("expected amount_due 500.00, got %v", resp["amount_due"])
	}
}

func TestBookingOverlapRejected(t *testing.T) {
	store := newMockBookingsStore()
	router := setupBookingsRouter(store)

	now := manila.Now()
	rr := postJSON(t, router, "/bookings", bookingBody(enum.AreaConference, now, now.Add(2*time.Hour)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	// Overlapping booking in the same area conflicts.
	rr = postJSON(t, router, "/bookings", bookingBody(enum.AreaConference, now.Add(time.Hour), now.Add(3*time.Hour)))
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}

	// Same time in the other area is fine.
	rr = postJSON(t, router, "/bookings", bookingBody(enum.AreaCommon, now.Add(time.Hour), now.Add(3*time.Hour)))
	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201 for other area, got %d", rr.Code)
	}
}

func TestBookingUpdateSkipsSelfOverlap(t *testing.T) {
	store := newMockBookingsStore()
	router := setupBookingsRouter(store)

	now := manila.Now()
	rr := postJSON(t, router, "/bookings", bookingBody(enum.AreaConference, now, now.Add(2*time.Hour)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	id := decodeObject(t, rr)["id"].(string)

	// Editing the booking to a range that only overlaps itself works.
	body := bookingBody(enum.AreaConference, now.Add(30*time.Minute), now.Add(2*time.Hour))
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/bookings/"+id, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBookingPaymentWithPercentDiscount(t *testing.T) {
	store := newMockBookingsStore()
	router := setupBookingsRouter(store)

	now := manila.Now()
	body := bookingBody(enum.AreaCommon, now, now.Add(2*time.Hour))
	body["discount_kind"] = enum.DiscountPercent
	body["discount_value"] = "10"
	rr := postJSON(t, router, "/bookings", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["amount_due"] != "450.00" {
		t.Fatalf("expected amount_due 450.00, got %v", resp["amount_due"])
	}
	id := resp["id"].(string)

	// GCash payment covering the discounted rate settles it.
	rr = postJSON(t, router, "/bookings/"+id+"/payment", map[string]interface{}{
		"cash":  "0",
		"gcash": "450.00",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp = decodeObject(t, rr)
	if resp["paid"] != true {
		t.Errorf("expected paid true")
	}

	// Underpayment leaves it unpaid.
	rr = postJSON(t, router, "/bookings/"+id+"/payment", map[string]interface{}{
		"cash":  "400.00",
		"gcash": "0",
	})
	resp = decodeObject(t, rr)
	if resp["paid"] != false {
		t.Errorf("expected paid false for underpayment")
	}
}

func TestBookingCancelKeepsRow(t *testing.T) {
	store := newMockBookingsStore()
	router := setupBookingsRouter(store)

	now := manila.Now()
	rr := postJSON(t, router, "/bookings", bookingBody(enum.AreaCommon, now, now.Add(time.Hour)))
	id := decodeObject(t, rr)["id"].(string)

	rr = postJSON(t, router, "/bookings/"+id+"/cancel", map[string]interface{}{})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["status"] != enum.BookingStatusCancelled {
		t.Errorf("expected status CANCELLED, got %v", resp["status"])
	}
	if len(store.bookings) != 1 {
		t.Errorf("expected cancelled booking to stay stored")
	}
}

func TestBookingValidation(t *testing.T) {
	store := newMockBookingsStore()
	router := setupBookingsRouter(store)

	now := manila.Now()
	body := bookingBody("VIP", now, now.Add(time.Hour))
	rr := postJSON(t, router, "/bookings", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown area, got %d", rr.Code)
	}

	body = bookingBody(enum.AreaCommon, now.Add(time.Hour), now)
	rr = postJSON(t, router, "/bookings", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for inverted range, got %d", rr.Code)
	}
}
