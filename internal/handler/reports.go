package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/silid-lounge/api/internal/cache"
	"github.com/silid-lounge/api/internal/manila"
	"github.com/silid-lounge/api/internal/middleware"
	"github.com/silid-lounge/api/internal/money"
	"github.com/silid-lounge/api/internal/service"
)

// ReportsHandler serves the daily reconciliation report. Reads go
// through the Redis cache; any write under the day invalidates it via
// Events, so a cached view is never stale for longer than one write.
type ReportsHandler struct {
	service *service.ReportService
	cache   *cache.ReportCache
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(svc *service.ReportService, c *cache.ReportCache) *ReportsHandler {
	return &ReportsHandler{service: svc, cache: c}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily", h.Daily)
	r.Put("/daily", h.SetBalances)
	r.Put("/daily/denominations", h.SetDenominations)
	r.Post("/daily/submit", h.Submit)
}

type balancesRequest struct {
	StartingCash  string `json:"starting_cash"`
	StartingGcash string `json:"starting_gcash"`
	Bilin         string `json:"bilin"`
}

type denominationLine struct {
	Denomination string `json:"denomination"`
	Count        int32  `json:"count"`
}

type denominationsRequest struct {
	Denominations []denominationLine `json:"denominations"`
}

// Daily returns the full report view for a Manila calendar day.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = manila.Today()
	}
	if _, _, err := manila.DayBounds(day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	if data := h.cache.Get(r.Context(), day); data != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck
		return
	}

	view, err := h.service.BuildDaily(r.Context(), day)
	if err != nil {
		log.Printf("ERROR: build daily report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		log.Printf("ERROR: marshal daily report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.cache.Set(r.Context(), day, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// SetBalances records the day's opening balances and bilin.
func (h *ReportsHandler) SetBalances(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = manila.Today()
	}
	if _, _, err := manila.DayBounds(day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	var req balancesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	startingCash, err := money.ParseAmountStrict(req.StartingCash)
	if err != nil || startingCash.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid starting_cash"})
		return
	}
	startingGcash, err := money.ParseAmountStrict(req.StartingGcash)
	if err != nil || startingGcash.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid starting_gcash"})
		return
	}
	bilin, err := money.ParseAmountStrict(req.Bilin)
	if err != nil || bilin.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bilin"})
		return
	}

	if _, err := h.service.SetBalances(r.Context(), day, startingCash, startingGcash, bilin); err != nil {
		log.Printf("ERROR: set report balances: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.cache.Invalidate(r.Context(), day)

	h.serveFresh(w, r, day)
}

// SetDenominations replaces the counted cash denominations for a day.
func (h *ReportsHandler) SetDenominations(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = manila.Today()
	}
	if _, _, err := manila.DayBounds(day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	var req denominationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	counts, errMsg := denominationInputs(req.Denominations)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	if err := h.service.ReplaceDenominations(r.Context(), day, counts); err != nil {
		log.Printf("ERROR: replace denominations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.cache.Invalidate(r.Context(), day)

	h.serveFresh(w, r, day)
}

// Submit closes out a day: the final denomination counts are saved and
// the report is marked submitted. Submitting again replaces the counts.
func (h *ReportsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	day := r.URL.Query().Get("date")
	if day == "" {
		day = manila.Today()
	}
	if _, _, err := manila.DayBounds(day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format"})
		return
	}

	var req denominationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	counts, errMsg := denominationInputs(req.Denominations)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	if _, err := h.service.Submit(r.Context(), day, claims.StaffID, counts); err != nil {
		log.Printf("ERROR: submit report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.cache.Invalidate(r.Context(), day)

	h.serveFresh(w, r, day)
}

// serveFresh rebuilds the day's view after a write and returns it.
func (h *ReportsHandler) serveFresh(w http.ResponseWriter, r *http.Request, day string) {
	view, err := h.service.BuildDaily(r.Context(), day)
	if err != nil {
		log.Printf("ERROR: build daily report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func denominationInputs(lines []denominationLine) ([]service.DenominationInput, string) {
	counts := make([]service.DenominationInput, 0, len(lines))
	for _, l := range lines {
		d, err := money.ParseAmountStrict(l.Denomination)
		if err != nil || !d.IsPositive() {
			return nil, "invalid denomination"
		}
		if l.Count < 0 {
			return nil, "invalid denomination count"
		}
		counts = append(counts, service.DenominationInput{Denomination: d, Count: l.Count})
	}
	return counts, ""
}
