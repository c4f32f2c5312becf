package planner

import (
	"time"

	"github.com/vzolin/cashplan-service/internal/models"
)

// ExpandRecurring expands each planned expense into one or two dated
// outflow events per calendar month, from the start of the current month
// through the month containing today+horizonDays.
//
// The day-of-month anchor is clamped to the month's actual length (day 31
// in a 30-day month lands on the 30th, never rolls over). Occurrences
// before today or past the horizon are not emitted. When the expense is
// split across two days, descriptions carry part markers.
func ExpandRecurring(expenses []models.PlannedExpense, today time.Time, horizonDays int) []models.CashEvent {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	today = startOfDay(today)
	limit := today.AddDate(0, 0, horizonDays)

	var events []models.CashEvent
	for _, e := range expenses {
		if !validDay(e.DayPrimary) {
			continue
		}
		primary, secondary := splitAmounts(e)
		if primary <= 0 && secondary <= 0 {
			continue
		}
		split := e.DaySecondary != nil && validDay(*e.DaySecondary) && secondary > 0

		primaryDesc := e.Title
		secondaryDesc := ""
		if split {
			primaryDesc = e.Title + " (часть 1/2)"
			secondaryDesc = e.Title + " (часть 2/2)"
		}

		month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		lastMonth := time.Date(limit.Year(), limit.Month(), 1, 0, 0, 0, 0, limit.Location())
		for !month.After(lastMonth) {
			emitOccurrence(&events, e.ID, primaryDesc, primary, month, e.DayPrimary, today, limit)
			if split {
				emitOccurrence(&events, e.ID, secondaryDesc, secondary, month, *e.DaySecondary, today, limit)
			}
			month = month.AddDate(0, 1, 0)
		}
	}
	return events
}

// splitAmounts resolves the primary/secondary pair for one expense. With no
// valid secondary day the full amount goes to the primary occurrence; with
// one explicit split amount the other half is reconciled against the total.
func splitAmounts(e models.PlannedExpense) (float64, float64) {
	total := normalizeAmount(e.Amount)
	if e.DaySecondary == nil || !validDay(*e.DaySecondary) {
		return total, 0
	}
	switch {
	case e.AmountPrimary != nil && e.AmountSecondary != nil:
		return normalizeAmount(*e.AmountPrimary), normalizeAmount(*e.AmountSecondary)
	case e.AmountPrimary != nil:
		p := normalizeAmount(*e.AmountPrimary)
		return p, total - p
	case e.AmountSecondary != nil:
		s := normalizeAmount(*e.AmountSecondary)
		return total - s, s
	default:
		return total, 0
	}
}

func emitOccurrence(events *[]models.CashEvent, source, description string, amount float64, month time.Time, day int, today, limit time.Time) {
	if amount <= 0 {
		return
	}
	if dim := daysInMonth(month.Year(), month.Month(), month.Location()); day > dim {
		day = dim
	}
	date := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, month.Location())
	if date.Before(today) || date.After(limit) {
		return
	}
	*events = append(*events, models.CashEvent{
		Date:        date.Format(DateLayout),
		Type:        models.EventOutflow,
		Amount:      -amount,
		Description: description,
		Source:      source,
	})
}
