// Package grouping reconstructs logical add-on orders from raw line
// rows. Upstream never assigned an order ID, so consecutive lines are
// merged when they share a customer and seat and land inside a short
// submission window. Known fragility: two genuinely separate checkouts
// by the same customer at the same seat inside the window will merge.
package grouping

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWindow is the gap beyond which consecutive rows are
// considered separate checkouts.
const DefaultWindow = 10 * time.Second

// Row is a single add-on purchase line.
type Row struct {
	Name      string
	Seat      string
	OrderedAt time.Time
	ItemName  string
	Qty       int32
	LineTotal decimal.Decimal
	Cash      decimal.Decimal
	Gcash     decimal.Decimal
	Paid      bool
	Voided    bool
}

// Order is a reconstructed logical order.
type Order struct {
	Name    string
	Seat    string
	FirstAt time.Time
	LastAt  time.Time
	Lines   []Row
	Total   decimal.Decimal
	Cash    decimal.Decimal
	Gcash   decimal.Decimal
	Paid    bool
}

// HasPayment reports whether any money was recorded against the order.
func (o Order) HasPayment() bool {
	return o.Cash.Add(o.Gcash).IsPositive()
}

// Strategy groups raw lines into logical orders. The match predicate
// and window are implementation details so call sites stay unchanged
// if the heuristic is swapped.
type Strategy interface {
	GroupRows(rows []Row) []Order
}

// TimeWindow is the default Strategy: a new order starts whenever the
// normalized (name, seat) pair changes or the gap between consecutive
// rows exceeds Window.
type TimeWindow struct {
	Window time.Duration
}

// NewTimeWindow creates a TimeWindow strategy. A non-positive window
// falls back to DefaultWindow.
func NewTimeWindow(window time.Duration) *TimeWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	return &TimeWindow{Window: window}
}

// GroupRows merges rows in ascending timestamp order. Voided lines are
// dropped before grouping. Within an order, totals and cash/gcash
// payments sum and the paid flag OR-combines.
func (s *TimeWindow) GroupRows(rows []Row) []Order {
	live := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.Voided {
			live = append(live, r)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].OrderedAt.Before(live[j].OrderedAt)
	})

	var orders []Order
	for _, r := range live {
		if len(orders) > 0 {
			last := &orders[len(orders)-1]
			sameParty := normalize(r.Name) == normalize(last.Name) &&
				normalize(r.Seat) == normalize(last.Seat)
			withinWindow := r.OrderedAt.Sub(last.LastAt) <= s.Window
			if sameParty && withinWindow {
				last.Lines = append(last.Lines, r)
				last.LastAt = r.OrderedAt
				last.Total = last.Total.Add(r.LineTotal)
				last.Cash = last.Cash.Add(r.Cash)
				last.Gcash = last.Gcash.Add(r.Gcash)
				last.Paid = last.Paid || r.Paid
				continue
			}
		}
		orders = append(orders, Order{
			Name:    r.Name,
			Seat:    r.Seat,
			FirstAt: r.OrderedAt,
			LastAt:  r.OrderedAt,
			Lines:   []Row{r},
			Total:   r.LineTotal,
			Cash:    r.Cash,
			Gcash:   r.Gcash,
			Paid:    r.Paid,
		})
	}
	return orders
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
