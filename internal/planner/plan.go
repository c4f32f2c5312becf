package planner

import (
	"math"
	"sort"
	"time"

	"github.com/vzolin/cashplan-service/internal/models"
)

// Snapshot is the immutable set of records one plan is built from
type Snapshot struct {
	Accounts []models.Account
	Payments []models.IncomingPayment
	Orders   []models.SupplierOrder
	Expenses []models.PlannedExpense
	Settings *models.AppSettings
}

// Build runs the full pipeline: currency resolution, event collection,
// recurring-expense expansion, and the day-by-day plan walk.
func Build(snap Snapshot, today time.Time, horizonDays int) *models.CashPlanResult {
	rates := Rates(snap.Settings)
	events := CollectEvents(snap.Payments, snap.Orders, rates, today)
	events = append(events, ExpandRecurring(snap.Expenses, today, horizonDays)...)
	return BuildPlan(snap.Accounts, events, today, horizonDays)
}

// BuildPlan walks the merged event list day by day and produces the plan.
//
// Events are stably sorted by date, the window runs from the earliest event
// to the later of the last event and today+horizonDays (whichever is
// sooner), and the running balance starts at the sum of account balances.
// Every day in the window participates in minimum tracking, but only days
// with events are materialized as daily stats. Balances are rounded to two
// decimals at snapshot time only; the accumulator itself stays unrounded.
func BuildPlan(accounts []models.Account, events []models.CashEvent, today time.Time, horizonDays int) *models.CashPlanResult {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	today = startOfDay(today)

	opening := 0.0
	for _, a := range accounts {
		opening += normalizeAmount(a.Balance)
	}

	result := &models.CashPlanResult{
		OpeningBalance: round2(opening),
		Daily:          []models.DailyStat{},
	}
	if len(events) == 0 {
		result.MinBalance = round2(opening)
		result.CashGap = round2(math.Max(0, -opening))
		return result
	}

	sorted := make([]models.CashEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	byDate := make(map[string][]models.CashEvent, len(sorted))
	for _, ev := range sorted {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}

	start, err := time.ParseInLocation(DateLayout, sorted[0].Date, today.Location())
	if err != nil {
		start = today
	}
	end, err := time.ParseInLocation(DateLayout, sorted[len(sorted)-1].Date, today.Location())
	if err != nil {
		end = start
	}
	if horizonEnd := today.AddDate(0, 0, horizonDays); end.After(horizonEnd) {
		end = horizonEnd
	}

	balance := opening
	minBalance := opening
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(DateLayout)
		dayEvents := byDate[key]
		for _, ev := range dayEvents {
			balance += normalizeAmount(ev.Amount)
		}
		if balance < minBalance {
			minBalance = balance
		}
		if len(dayEvents) > 0 {
			result.Daily = append(result.Daily, models.DailyStat{
				Date:    key,
				Balance: round2(balance),
				Events:  dayEvents,
			})
		}
	}

	result.MinBalance = round2(minBalance)
	result.CashGap = round2(math.Max(0, -minBalance))
	return result
}
