package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzolin/cashplan-service/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestExpandRecurringClampsDayToMonthLength(t *testing.T) {
	// February 2026 has 28 days; a day-31 anchor lands on the 28th.
	today := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{
		{ID: "e1", Title: "Аренда", Amount: 100, DayPrimary: 31},
	}
	events := ExpandRecurring(expenses, today, 27)
	require.Len(t, events, 1)
	assert.Equal(t, "2026-02-28", events[0].Date)
	assert.Equal(t, -100.0, events[0].Amount)
}

func TestExpandRecurringSplitReconciliation(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{{
		ID:            "e1",
		Title:         "Зарплата",
		Amount:        1000,
		AmountPrimary: floatPtr(400),
		DayPrimary:    5,
		DaySecondary:  intPtr(20),
	}}
	events := ExpandRecurring(expenses, today, 25)
	require.Len(t, events, 2)

	assert.Equal(t, "2026-03-05", events[0].Date)
	assert.Equal(t, -400.0, events[0].Amount)
	assert.Equal(t, "Зарплата (часть 1/2)", events[0].Description)

	assert.Equal(t, "2026-03-20", events[1].Date)
	assert.InDelta(t, -600.0, events[1].Amount, 1e-9)
	assert.Equal(t, "Зарплата (часть 2/2)", events[1].Description)
}

func TestExpandRecurringSecondaryAmountOnlyReconcilesPrimary(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{{
		ID:              "e1",
		Title:           "Зарплата",
		Amount:          1000,
		AmountSecondary: floatPtr(250),
		DayPrimary:      5,
		DaySecondary:    intPtr(20),
	}}
	events := ExpandRecurring(expenses, today, 25)
	require.Len(t, events, 2)
	assert.InDelta(t, -750.0, events[0].Amount, 1e-9)
	assert.Equal(t, -250.0, events[1].Amount)
}

func TestExpandRecurringNoSplitAmountsChargesFullOnPrimaryDay(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{{
		ID:           "e1",
		Title:        "Связь",
		Amount:       900,
		DayPrimary:   10,
		DaySecondary: intPtr(25),
	}}
	events := ExpandRecurring(expenses, today, 28)
	require.Len(t, events, 1)
	assert.Equal(t, "2026-03-10", events[0].Date)
	assert.Equal(t, -900.0, events[0].Amount)
	assert.Equal(t, "Связь", events[0].Description, "no part marker without a real split")
}

func TestExpandRecurringSkipsOccurrencesBeforeToday(t *testing.T) {
	today := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{
		{ID: "e1", Title: "Аренда", Amount: 500, DayPrimary: 10},
	}
	events := ExpandRecurring(expenses, today, 40)
	require.Len(t, events, 1)
	assert.Equal(t, "2026-04-10", events[0].Date)
}

func TestExpandRecurringHonorsHorizonLimit(t *testing.T) {
	today := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{
		{ID: "e1", Title: "Аренда", Amount: 500, DayPrimary: 1},
	}
	// 120-day default horizon: Jan 1 .. May 1 inclusive.
	events := ExpandRecurring(expenses, today, 0)
	require.Len(t, events, 5)
	assert.Equal(t, "2026-01-01", events[0].Date)
	assert.Equal(t, "2026-05-01", events[4].Date)
}

func TestExpandRecurringSkipsInvalidPrimaryDay(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{
		{ID: "e1", Title: "Без даты", Amount: 500, DayPrimary: 0},
		{ID: "e2", Title: "Слишком поздно", Amount: 500, DayPrimary: 32},
	}
	assert.Empty(t, ExpandRecurring(expenses, today, 60))
}

func TestExpandRecurringSkipsZeroAmounts(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	expenses := []models.PlannedExpense{
		{ID: "e1", Title: "Пустой", Amount: 0, DayPrimary: 10},
	}
	assert.Empty(t, ExpandRecurring(expenses, today, 60))
}
