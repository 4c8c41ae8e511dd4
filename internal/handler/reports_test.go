package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/silid-lounge/api/internal/auth"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/handler"
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/middleware"
	"github.com/silid-lounge/api/internal/service"
)

// --- Mock stores ---

// mockReportReadStore serves an empty day unless a report row is set.
type mockReportReadStore struct {
	report *database.DailyReport
	counts []database.DenominationCount
}

func (m *mockReportReadStore) GetDailyReport(_ context.Context, _ pgtype.Date) (database.DailyReport, error) {
	if m.report == nil {
		return database.DailyReport{}, pgx.ErrNoRows
	}
	return *m.report, nil
}

func (m *mockReportReadStore) ListDenominationCounts(_ context.Context, _ pgtype.Date) ([]database.DenominationCount, error) {
	return m.counts, nil
}

func (m *mockReportReadStore) ListSessionsByRange(_ context.Context, _ database.ListSessionsByRangeParams) ([]database.Session, error) {
	return nil, nil
}

func (m *mockReportReadStore) ListAddonOrdersByRange(_ context.Context, _ database.ListAddonOrdersByRangeParams) ([]database.AddonOrder, error) {
	return nil, nil
}

func (m *mockReportReadStore) ListBookingsStartingInRange(_ context.Context, _ database.ListBookingsStartingInRangeParams) ([]database.PromoBooking, error) {
	return nil, nil
}

func (m *mockReportReadStore) GetConsignmentDailyTotals(_ context.Context, _ database.GetConsignmentDailyTotalsParams) ([]database.GetConsignmentDailyTotalsRow, error) {
	return nil, nil
}

func (m *mockReportReadStore) ListConsignmentCashoutsByRange(_ context.Context, _ database.ListConsignmentCashoutsByRangeParams) ([]database.ConsignmentCashout, error) {
	return nil, nil
}

func (m *mockReportReadStore) ListInventoryLossesByRange(_ context.Context, _ database.ListInventoryLossesByRangeParams) ([]database.InventoryLoss, error) {
	return nil, nil
}

// mockReportWriteStore records report writes and mirrors them into the
// read store so follow-up reads see them.
type mockReportWriteStore struct {
	read      *mockReportReadStore
	submitted bool
}

func (m *mockReportWriteStore) UpsertDailyReport(_ context.Context, arg database.UpsertDailyReportParams) (database.DailyReport, error) {
	r := database.DailyReport{
		ReportDate:    arg.ReportDate,
		StartingCash:  arg.StartingCash,
		StartingGcash: arg.StartingGcash,
		Bilin:         arg.Bilin,
	}
	m.read.report = &r
	return r, nil
}

func (m *mockReportWriteStore) EnsureDailyReport(_ context.Context, reportDate pgtype.Date) error {
	if m.read.report == nil {
		m.read.report = &database.DailyReport{ReportDate: reportDate}
	}
	return nil
}

func (m *mockReportWriteStore) SubmitDailyReport(_ context.Context, arg database.SubmitDailyReportParams) (database.DailyReport, error) {
	m.submitted = true
	if m.read.report == nil {
		m.read.report = &database.DailyReport{ReportDate: arg.ReportDate}
	}
	m.read.report.Submitted = true
	return *m.read.report, nil
}

func (m *mockReportWriteStore) DeleteDenominationCounts(_ context.Context, _ pgtype.Date) error {
	m.read.counts = nil
	return nil
}

func (m *mockReportWriteStore) CreateDenominationCount(_ context.Context, arg database.CreateDenominationCountParams) (database.DenominationCount, error) {
	c := database.DenominationCount{
		ReportDate:   arg.ReportDate,
		Denomination: arg.Denomination,
		Count:        arg.Count,
	}
	m.read.counts = append(m.read.counts, c)
	return c, nil
}

// --- Helpers ---

const reportsTestSecret = "test-secret"

func setupReportsRouter(read *mockReportReadStore, write *mockReportWriteStore) *chi.Mux {
	svc := service.NewReportService(
		read,
		&stubTxBeginner{tx: &stubTx{}},
		func(db database.DBTX) service.ReportTxStore { return write },
		nil,
	)
	h := handler.NewReportsHandler(svc, nil)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(reportsTestSecret))
		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", h.Daily)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enum.StaffRoleAdmin))
				r.Put("/daily", h.SetBalances)
				r.Put("/daily/denominations", h.SetDenominations)
				r.Post("/daily/submit", h.Submit)
			})
		})
	})
	return r
}

func roleToken(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(reportsTestSecret, uuid.New(), "Test Staff", role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// --- Tests ---

func TestReportDailyEmptyDay(t *testing.T) {
	read := &mockReportReadStore{}
	router := setupReportsRouter(read, &mockReportWriteStore{read: read})
	token := roleToken(t, enum.StaffRoleStaff)

	rr := authedJSON(t, router, http.MethodGet, "/reports/daily?date="+manila.Today(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["date"] != manila.Today() {
		t.Errorf("expected date %s, got %v", manila.Today(), resp["date"])
	}
	if resp["grand_total"] != "0.00" {
		t.Errorf("expected grand_total 0.00, got %v", resp["grand_total"])
	}
	if resp["submitted"] != false {
		t.Errorf("expected submitted false")
	}
}

func TestReportDailyInvalidDate(t *testing.T) {
	read := &mockReportReadStore{}
	router := setupReportsRouter(read, &mockReportWriteStore{read: read})
	token := roleToken(t, enum.StaffRoleStaff)

	rr := authedJSON(t, router, http.MethodGet, "/reports/daily?date=january-5", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestReportSetBalances(t *testing.T) {
	read := &mockReportReadStore{}
	write := &mockReportWriteStore{read: read}
	router := setupReportsRouter(read, write)
	token := roleToken(t, enum.StaffRoleAdmin)

	rr := authedJSON(t, router, http.MethodPut, "/reports/daily?date="+manila.Today(), token, map[string]interface{}{
		"starting_cash":  "1000.00",
		"starting_gcash": "500.00",
		"bilin":          "100.00",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["starting_cash"] != "1000.00" {
		t.Errorf("expected starting_cash 1000.00, got %v", resp["starting_cash"])
	}
	if resp["bilin"] != "100.00" {
		t.Errorf("expected bilin 100.00, got %v", resp["bilin"])
	}
}

func TestReportBalancesRequireAdmin(t *testing.T) {
	read := &mockReportReadStore{}
	router := setupReportsRouter(read, &mockReportWriteStore{read: read})
	token := roleToken(t, enum.StaffRoleStaff)

	rr := authedJSON(t, router, http.MethodPut, "/reports/daily", token, map[string]interface{}{
		"starting_cash":  "1000.00",
		"starting_gcash": "0",
		"bilin":          "0",
	})
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for STAFF role, got %d", rr.Code)
	}
}

func TestReportSubmit(t *testing.T) {
	read := &mockReportReadStore{}
	write := &mockReportWriteStore{read: read}
	router := setupReportsRouter(read, write)
	token := roleToken(t, enum.StaffRoleAdmin)

	rr := authedJSON(t, router, http.MethodPost, "/reports/daily/submit?date="+manila.Today(), token, map[string]interface{}{
		"denominations": []map[string]interface{}{
			{"denomination": "1000", "count": 2},
			{"denomination": "100", "count": 5},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !write.submitted {
		t.Errorf("expected report to be submitted")
	}
	if len(read.counts) != 2 {
		t.Errorf("expected 2 denomination counts stored, got %d", len(read.counts))
	}

	// The submitted view keeps balances but zeroes computed sales.
	resp := decodeObject(t, rr)
	if resp["submitted"] != true {
		t.Errorf("expected submitted true")
	}
	if resp["cash_in_hand"] != "2500.00" {
		t.Errorf("expected cash_in_hand 2500.00, got %v", resp["cash_in_hand"])
	}
	if resp["grand_total"] != "0.00" {
		t.Errorf("expected zeroed grand_total, got %v", resp["grand_total"])
	}
}

func TestReportDenominationValidation(t *testing.T) {
	read := &mockReportReadStore{}
	router := setupReportsRouter(read, &mockReportWriteStore{read: read})
	token := roleToken(t, enum.StaffRoleAdmin)

	rr := authedJSON(t, router, http.MethodPut, "/reports/daily/denominations", token, map[string]interface{}{
		"denominations": []map[string]interface{}{
			{"denomination": "-20", "count": 1},
		},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for negative denomination, got %d", rr.Code)
	}

	rr = authedJSON(t, router, http.MethodPut, "/reports/daily/denominations", token, map[string]interface{}{
		"denominations": []map[string]interface{}{
			{"denomination": "20", "count": -1},
		},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for negative count, got %d", rr.Code)
	}
}
