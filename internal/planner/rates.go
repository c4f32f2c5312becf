// Package planner implements the cash-plan projection engine: it turns a
// snapshot of accounts, expected payments, supplier orders and recurring
// expenses into a time-ordered ledger of cash events with a running daily
// balance, and reports the worst shortfall (the cash gap) over the horizon.
//
// The engine is pure: it performs no I/O, never mutates its inputs and is
// safe to call from concurrent request handlers. Bad records degrade to
// safe defaults instead of producing errors, since a single malformed
// record must not take down the whole projection.
package planner

import (
	"math"
	"time"

	"github.com/vzolin/cashplan-service/internal/models"
)

// Supported currencies. RUB is the base currency of every account and plan.
const (
	CurrencyRUB = "RUB"
	CurrencyCNY = "CNY"
)

// DefaultHorizonDays is how far forward the projection extends unless the
// caller overrides it.
const DefaultHorizonDays = 120

// DateLayout is the wire format for plan dates
const DateLayout = "2006-01-02"

const defaultCNYRate = 1.0

// Rates resolves the per-currency conversion table into the base currency.
// RUB always maps to 1. A missing, non-finite or non-positive configured
// CNY rate falls back to 1, so the table never contains a value unsafe for
// multiplication.
func Rates(settings *models.AppSettings) map[string]float64 {
	rate := defaultCNYRate
	if settings != nil {
		if r := normalizeAmount(settings.CNYRate); r > 0 {
			rate = r
		}
	}
	return map[string]float64{
		CurrencyRUB: 1,
		CurrencyCNY: rate,
	}
}

// normalizeAmount is the single numeric sanitation boundary: NaN and
// infinities are coerced to 0 so downstream arithmetic stays finite.
func normalizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// validDay reports whether d is a usable day-of-month anchor
func validDay(d int) bool {
	return d >= 1 && d <= 31
}

// round2 rounds to 2 decimal places for display; the running balance
// accumulator itself is never rounded between days.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// startOfDay normalizes a timestamp to midnight in its own location. All
// date comparisons in the engine happen on normalized values to avoid
// off-by-one drift at window boundaries.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysInMonth returns the number of calendar days in the given month
func daysInMonth(year int, month time.Month, loc *time.Location) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
