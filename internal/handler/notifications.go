package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/silid-lounge/api/internal/notify"
)

// NotificationsHandler exposes the unread-change counters kept per
// table. The hub feeds the counters; clients poll unread and clear a
// table once they have refetched it.
type NotificationsHandler struct {
	store *notify.Store
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(store *notify.Store) *NotificationsHandler {
	return &NotificationsHandler{store: store}
}

// RegisterRoutes registers notification endpoints on the given Chi router.
func (h *NotificationsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/unread", h.Unread)
	r.Post("/seen", h.Seen)
}

type seenRequest struct {
	Table string `json:"table"`
}

// Unread returns unseen change counts keyed by table name.
func (h *NotificationsHandler) Unread(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// Seen clears the counter for one table.
func (h *NotificationsHandler) Seen(w http.ResponseWriter, r *http.Request) {
	var req seenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Table == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table is required"})
		return
	}

	h.store.Reset(req.Table)
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}
