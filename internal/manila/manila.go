// Package manila pins calendar-day arithmetic to the Asia/Manila civil
// calendar (UTC+8). Report day boundaries must not drift with the host
// timezone: a row stamped 2024-01-15T16:00:00Z belongs to 2024-01-16.
package manila

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

var location = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		// Fallback when the host has no tzdata
		return time.FixedZone("PHT", 8*3600)
	}
	return loc
}

// Location returns the Asia/Manila location (UTC+8, no DST).
func Location() *time.Location {
	return location
}

// Day returns the Manila calendar date of t as YYYY-MM-DD.
func Day(t time.Time) string {
	return t.In(location).Format(dayLayout)
}

// Now returns the current time in Manila.
func Now() time.Time {
	return time.Now().In(location)
}

// DayBounds returns the half-open interval [start, end) covering the
// given Manila calendar date.
func DayBounds(day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, day, location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", day)
	}
	return t, t.AddDate(0, 0, 1), nil
}

// Today returns the current Manila calendar date as YYYY-MM-DD.
func Today() string {
	return Day(time.Now())
}
