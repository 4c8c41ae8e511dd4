package manila

import (
	"testing"
	"time"
)

func TestDayCrossesMidnight(t *testing.T) {
	// 16:00 UTC is already past midnight in Manila (UTC+8)
	ts := time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)
	if got := Day(ts); got != "2024-01-16" {
		t.Errorf("Day(2024-01-15T16:00:00Z) = %q, want %q", got, "2024-01-16")
	}

	// 15:59 UTC is still the same Manila day
	ts = time.Date(2024, 1, 15, 15, 59, 0, 0, time.UTC)
	if got := Day(ts); got != "2024-01-15" {
		t.Errorf("Day(2024-01-15T15:59:00Z) = %q, want %q", got, "2024-01-15")
	}
}

func TestDayIgnoresSourceZone(t *testing.T) {
	// The same instant expressed in two zones maps to one Manila day
	ny := time.FixedZone("EST", -5*3600)
	a := time.Date(2024, 3, 1, 20, 0, 0, 0, ny)
	b := a.UTC()
	if Day(a) != Day(b) {
		t.Errorf("Day differs by source zone: %q vs %q", Day(a), Day(b))
	}
}

func TestDayBounds(t *testing.T) {
	start, end, err := DayBounds("2024-01-16")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("bounds span %v, want 24h", end.Sub(start))
	}

	// The boundary instant in UTC: Manila midnight is 16:00 UTC the prior day
	if !start.Equal(time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2024-01-15T16:00:00Z", start.UTC())
	}

	// A row at the exact start belongs to the day; one at end does not
	if Day(start) != "2024-01-16" {
		t.Errorf("Day(start) = %q", Day(start))
	}
	if Day(end) != "2024-01-17" {
		t.Errorf("Day(end) = %q", Day(end))
	}
}

func TestDayBoundsRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "16-01-2024", "2024/01/16", "yesterday"} {
		if _, _, err := DayBounds(bad); err == nil {
			t.Errorf("DayBounds(%q) accepted invalid input", bad)
		}
	}
}
