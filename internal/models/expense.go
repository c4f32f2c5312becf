package models

import "time"

// PlannedExpense represents a monthly recurring expense in the base currency.
// DayPrimary is the day of month the expense is charged on; an optional
// DaySecondary splits the charge across two dates. AmountPrimary and
// AmountSecondary, when set, fix the split amounts; a missing half is
// reconciled against the total.
type PlannedExpense struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Amount          float64   `json:"amount"`
	AmountPrimary   *float64  `json:"amount_primary,omitempty"`
	AmountSecondary *float64  `json:"amount_secondary,omitempty"`
	DayPrimary      int       `json:"day_primary"`
	DaySecondary    *int      `json:"day_secondary,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
