package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/silid-lounge/api/internal/cache"
	"github.com/silid-lounge/api/internal/manila"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// parseDay reads the ?date= query param as a Manila calendar day.
// Missing means today; malformed is an error for the caller to 400.
func parseDay(r *http.Request) (day string, start, end time.Time, err error) {
	day = r.URL.Query().Get("date")
	if day == "" {
		day = manila.Today()
	}
	start, end, err = manila.DayBounds(day)
	return day, start, end, err
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func textOrEmpty(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func pgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// Broadcaster pushes a change event to connected clients.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(table, action string, payload interface{})
}

// Events fans a mutation out to WebSocket clients and drops the
// affected day's cached report. Both members are optional; a zero
// Events is inert, which keeps handler tests free of wiring.
type Events struct {
	Hub   Broadcaster
	Cache *cache.ReportCache
}

// Changed announces a row change. at anchors the cache invalidation to
// the Manila day the row belongs to.
func (e *Events) Changed(ctx context.Context, table, action string, at time.Time, payload interface{}) {
	if e == nil {
		return
	}
	if e.Hub != nil {
		e.Hub.Broadcast(table, action, payload)
	}
	if e.Cache != nil && !at.IsZero() {
		e.Cache.Invalidate(ctx, manila.Day(at))
	}
}
