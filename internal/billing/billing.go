// Package billing computes time-based session cost and discounts.
// All functions are pure; the caller supplies "now" so open sessions
// can be billed against a fixed evaluation instant.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/money"
)

// openSentinelYear marks the far-future "no end yet" convention some
// legacy rows carry instead of a NULL ended_at.
const openSentinelYear = 2100

var (
	oneHundred  = decimal.NewFromInt(100)
	secondsHour = decimal.NewFromInt(3600)
)

// IsOpenEnd reports whether end means "session still running":
// a zero time or the far-future sentinel.
func IsOpenEnd(end time.Time) bool {
	return end.IsZero() || end.Year() >= openSentinelYear
}

// TimeCost returns the peso cost of a session: billable time at
// hourlyRate, less the free-minutes allowance, rounded to 2 decimals.
// Open sessions are billed up to now, so repeated evaluations of an
// unpaid open session yield growing amounts.
func TimeCost(start, end, now time.Time, hourlyRate decimal.Decimal, freeMinutes int) decimal.Decimal {
	effectiveEnd := end
	if IsOpenEnd(end) {
		effectiveEnd = now
	}

	elapsed := effectiveEnd.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}

	billableSeconds := int64(elapsed/time.Second) - int64(freeMinutes)*60
	if billableSeconds < 0 {
		billableSeconds = 0
	}

	cost := hourlyRate.Mul(decimal.NewFromInt(billableSeconds)).Div(secondsHour)
	return money.Round2(cost)
}

// Discount returns the discount amount for a base cost.
// PERCENT values cap at 100; AMOUNT values cap at the base, so the
// discounted total can never go negative. Unknown kinds yield zero.
func Discount(kind string, value, base decimal.Decimal) decimal.Decimal {
	if value.IsNegative() || base.IsNegative() {
		return decimal.Zero
	}

	switch kind {
	case enum.DiscountPercent:
		pct := value
		if pct.GreaterThan(oneHundred) {
			pct = oneHundred
		}
		return money.Round2(base.Mul(pct).Div(oneHundred))
	case enum.DiscountAmount:
		if value.GreaterThan(base) {
			return money.Round2(base)
		}
		return money.Round2(value)
	default:
		return decimal.Zero
	}
}

// Settled reports whether the recorded payments cover the amount due.
// Payment writes derive the paid flag from this rather than taking it
// from the client.
func Settled(cash, gcash, due decimal.Decimal) bool {
	return cash.Add(gcash).GreaterThanOrEqual(due)
}
