package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/silid-lounge/api/internal/auth"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/handler"
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/middleware"
	"github.com/silid-lounge/api/internal/service"
)

// --- Mock tx plumbing for the stock service ---

type stubTx struct {
	committed bool
}

func (m *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *stubTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}
func (m *stubTx) Rollback(ctx context.Context) error { return nil }
func (m *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *stubTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *stubTx) Conn() *pgx.Conn { panic("not implemented") }

type stubTxBeginner struct {
	tx pgx.Tx
}

func (m *stubTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) { return m.tx, nil }

// --- Mock store ---

type mockConsignmentStore struct {
	consignors map[uuid.UUID]database.Consignor
	items      map[uuid.UUID]database.ConsignmentItem
	moves      []database.ConsignmentMove
	cashouts   map[uuid.UUID]database.ConsignmentCashout
}

func newMockConsignmentStore() *mockConsignmentStore {
	return &mockConsignmentStore{
		consignors: make(map[uuid.UUID]database.Consignor),
		items:      make(map[uuid.UUID]database.ConsignmentItem),
		cashouts:   make(map[uuid.UUID]database.ConsignmentCashout),
	}
}

func (m *mockConsignmentStore) CreateConsignor(_ context.Context, arg database.CreateConsignorParams) (database.Consignor, error) {
	c := database.Consignor{ID: uuid.New(), Name: arg.Name, Contact: arg.Contact}
	m.consignors[c.ID] = c
	return c, nil
}

func (m *mockConsignmentStore) ListConsignors(_ context.Context) ([]database.Consignor, error) {
	var result []database.Consignor
	for _, c := range m.consignors {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockConsignmentStore) CreateConsignmentItem(_ context.Context, arg database.CreateConsignmentItemParams) (database.ConsignmentItem, error) {
	it := database.ConsignmentItem{
		ID:          uuid.New(),
		ConsignorID: arg.ConsignorID,
		Name:        arg.Name,
		Category:    arg.Category,
		Price:       arg.Price,
		PhotoKey:    arg.PhotoKey,
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *mockConsignmentStore) GetConsignmentItem(_ context.Context, id uuid.UUID) (database.ConsignmentItem, error) {
	it, ok := m.items[id]
	if !ok {
		return database.ConsignmentItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockConsignmentStore) ListConsignmentItems(_ context.Context) ([]database.ConsignmentItem, error) {
	var result []database.ConsignmentItem
	for _, it := range m.items {
		result = append(result, it)
	}
	return result, nil
}

func (m *mockConsignmentStore) UpdateConsignmentItem(_ context.Context, arg database.UpdateConsignmentItemParams) (database.ConsignmentItem, error) {
	it, ok := m.items[arg.ID]
	if !ok {
		return database.ConsignmentItem{}, pgx.ErrNoRows
	}
	it.Name = arg.Name
	it.Category = arg.Category
	it.Price = arg.Price
	m.items[it.ID] = it
	return it, nil
}

func (m *mockConsignmentStore) SetConsignmentItemPhoto(_ context.Context, arg database.SetConsignmentItemPhotoParams) (database.ConsignmentItem, error) {
	it, ok := m.items[arg.ID]
	if !ok {
		return database.ConsignmentItem{}, pgx.ErrNoRows
	}
	it.PhotoKey = arg.PhotoKey
	m.items[it.ID] = it
	return it, nil
}

// AdjustConsignmentStock and CreateConsignmentMove back the stock
// service through its tx-scoped store.
func (m *mockConsignmentStore) AdjustConsignmentStock(_ context.Context, arg database.AdjustConsignmentStockParams) (database.ConsignmentItem, error) {
	it, ok := m.items[arg.ID]
	if !ok {
		return database.ConsignmentItem{}, pgx.ErrNoRows
	}
	it.Restocked += arg.RestockDelta
	it.Sold += arg.SoldDelta
	m.items[it.ID] = it
	return it, nil
}

func (m *mockConsignmentStore) CreateConsignmentMove(_ context.Context, arg database.CreateConsignmentMoveParams) (database.ConsignmentMove, error) {
	mv := database.ConsignmentMove{
		ID:           uuid.New(),
		ItemID:       arg.ItemID,
		RestockDelta: arg.RestockDelta,
		SoldDelta:    arg.SoldDelta,
		MovedAt:      arg.MovedAt,
	}
	m.moves = append(m.moves, mv)
	return mv, nil
}

func (m *mockConsignmentStore) GetConsignmentDailyTotals(_ context.Context, arg database.GetConsignmentDailyTotalsParams) ([]database.GetConsignmentDailyTotalsRow, error) {
	totals := make(map[uuid.UUID]*database.GetConsignmentDailyTotalsRow)
	for _, mv := range m.moves {
		if mv.MovedAt.Before(arg.Start) || !mv.MovedAt.Before(arg.End) || mv.SoldDelta <= 0 {
			continue
		}
		item := m.items[mv.ItemID]
		row, ok := totals[item.ConsignorID]
		if !ok {
			row = &database.GetConsignmentDailyTotalsRow{
				ConsignorID:   item.ConsignorID,
				ConsignorName: m.consignors[item.ConsignorID].Name,
			}
			totals[item.ConsignorID] = row
		}
		row.UnitsSold += int64(mv.SoldDelta)
		row.NetAmount = item.Price // single-item fixture, price stands in for the sum
	}
	var result []database.GetConsignmentDailyTotalsRow
	for _, row := range totals {
		result = append(result, *row)
	}
	return result, nil
}

func (m *mockConsignmentStore) CreateConsignmentCashout(_ context.Context, arg database.CreateConsignmentCashoutParams) (database.ConsignmentCashout, error) {
	c := database.ConsignmentCashout{
		ID:          uuid.New(),
		ConsignorID: arg.ConsignorID,
		Amount:      arg.Amount,
		Note:        arg.Note,
		PaidAt:      arg.PaidAt,
		PaidBy:      arg.PaidBy,
	}
	m.cashouts[c.ID] = c
	return c, nil
}

func (m *mockConsignmentStore) ListConsignmentCashoutsByRange(_ context.Context, arg database.ListConsignmentCashoutsByRangeParams) ([]database.ConsignmentCashout, error) {
	var result []database.ConsignmentCashout
	for _, c := range m.cashouts {
		if !c.PaidAt.Before(arg.Start) && c.PaidAt.Before(arg.End) {
			result = append(result, c)
		}
	}
	return result, nil
}

// --- Helpers ---

const consignmentTestSecret = "test-secret"

func setupConsignmentRouter(store *mockConsignmentStore, tx *stubTx) *chi.Mux {
	svc := service.NewConsignmentService(
		&stubTxBeginner{tx: tx},
		func(db database.DBTX) service.StockStore { return store },
	)
	h := handler.NewConsignmentHandler(store, svc, nil, nil)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(consignmentTestSecret))
		r.Route("/consignment", h.RegisterRoutes)
	})
	return r
}

func staffToken(t *testing.T, staffID uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateToken(consignmentTestSecret, staffID, "Test Staff", enum.StaffRoleStaff)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func authedJSON(t *testing.T, router *chi.Mux, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := jsonRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestConsignorAndItemCreate(t *testing.T) {
	store := newMockConsignmentStore()
	router := setupConsignmentRouter(store, &stubTx{})
	token := staffToken(t, uuid.New())

	rr := authedJSON(t, router, http.MethodPost, "/consignment/consignors", token, map[string]interface{}{
		"name":    "Aling Nena",
		"contact": "0917 000 0000",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	consignorID := decodeObject(t, rr)["id"].(string)

	rr = authedJSON(t, router, http.MethodPost, "/consignment/items", token, map[string]interface{}{
		"consignor_id": consignorID,
		"name":         "Banana Bread",
		"category":     "Baked",
		"price":        "85.00",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["price"] != "85.00" {
		t.Errorf("expected price 85.00, got %v", resp["price"])
	}
	if resp["remaining"] != float64(0) {
		t.Errorf("expected remaining 0, got %v", resp["remaining"])
	}
}

func TestConsignmentStockMove(t *testing.T) {
	store := newMockConsignmentStore()
	tx := &stubTx{}
	router := setupConsignmentRouter(store, tx)
	token := staffToken(t, uuid.New())

	consignor, _ := store.CreateConsignor(context.Background(), database.CreateConsignorParams{Name: "Aling Nena"})
	item, _ := store.CreateConsignmentItem(context.Background(), database.CreateConsignmentItemParams{
		ConsignorID: consignor.ID,
		Name:        "Banana Bread",
		Price:       numeric(t, "85.00"),
	})

	rr := authedJSON(t, router, http.MethodPost, "/consignment/items/"+item.ID.String()+"/stock", token, map[string]interface{}{
		"restock_delta": 10,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["restocked"] != float64(10) || resp["remaining"] != float64(10) {
		t.Errorf("expected 10 restocked/remaining, got %v/%v", resp["restocked"], resp["remaining"])
	}
	if !tx.committed {
		t.Errorf("expected stock move transaction commit")
	}
	if len(store.moves) != 1 {
		t.Errorf("expected 1 logged move, got %d", len(store.moves))
	}

	// Selling more than restocked conflicts.
	rr = authedJSON(t, router, http.MethodPost, "/consignment/items/"+item.ID.String()+"/stock", token, map[string]interface{}{
		"sold_delta": 11,
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}

	// An empty move is a bad request.
	rr = authedJSON(t, router, http.MethodPost, "/consignment/items/"+item.ID.String()+"/stock", token, map[string]interface{}{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestConsignmentCashout(t *testing.T) {
	store := newMockConsignmentStore()
	router := setupConsignmentRouter(store, &stubTx{})
	staffID := uuid.New()
	token := staffToken(t, staffID)

	consignor, _ := store.CreateConsignor(context.Background(), database.CreateConsignorParams{Name: "Aling Nena"})

	rr := authedJSON(t, router, http.MethodPost, "/consignment/cashouts", token, map[string]interface{}{
		"consignor_id": consignor.ID.String(),
		"amount":       "500.00",
		"note":         "weekly payout",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["paid_by"] != staffID.String() {
		t.Errorf("expected paid_by from token, got %v", resp["paid_by"])
	}

	// Zero and negative amounts are rejected.
	for _, amount := range []string{"0", "-100"} {
		rr = authedJSON(t, router, http.MethodPost, "/consignment/cashouts", token, map[string]interface{}{
			"consignor_id": consignor.ID.String(),
			"amount":       amount,
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for amount %s, got %d", amount, rr.Code)
		}
	}

	rr = authedJSON(t, router, http.MethodGet, "/consignment/cashouts?date="+manila.Today(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if cashouts := decodeList(t, rr); len(cashouts) != 1 {
		t.Errorf("expected 1 cashout, got %d", len(cashouts))
	}
}

func TestConsignmentDailyTotals(t *testing.T) {
	store := newMockConsignmentStore()
	router := setupConsignmentRouter(store, &stubTx{})
	token := staffToken(t, uuid.New())

	consignor, _ := store.CreateConsignor(context.Background(), database.CreateConsignorParams{Name: "Aling Nena"})
	item, _ := store.CreateConsignmentItem(context.Background(), database.CreateConsignmentItemParams{
		ConsignorID: consignor.ID,
		Name:        "Banana Bread",
		Price:       numeric(t, "85.00"),
	})
	store.moves = append(store.moves, database.ConsignmentMove{
		ID:        uuid.New(),
		ItemID:    item.ID,
		SoldDelta: 3,
		MovedAt:   manila.Now(),
	})

	rr := authedJSON(t, router, http.MethodGet, "/consignment/daily?date="+manila.Today(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	totals := decodeList(t, rr)
	if len(totals) != 1 {
		t.Fatalf("expected 1 consignor total, got %d", len(totals))
	}
	if totals[0]["units_sold"] != float64(3) {
		t.Errorf("expected 3 units sold, got %v", totals[0]["units_sold"])
	}
}

func TestConsignmentPhotoUploadDisabled(t *testing.T) {
	store := newMockConsignmentStore()
	router := setupConsignmentRouter(store, &stubTx{})
	token := staffToken(t, uuid.New())

	rr := authedJSON(t, router, http.MethodPost, "/consignment/items/"+uuid.NewString()+"/photo", token, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 when uploads are not configured, got %d", rr.Code)
	}
}

func TestConsignmentRequiresAuth(t *testing.T) {
	store := newMockConsignmentStore()
	router := setupConsignmentRouter(store, &stubTx{})

	req := httptest.NewRequest(http.MethodGet, "/consignment/items", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without token, got %d", rr.Code)
	}
}
