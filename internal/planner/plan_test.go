package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzolin/cashplan-service/internal/models"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Accounts: []models.Account{
			{ID: "a1", Name: "Расчётный счёт", Balance: 1000},
		},
		Payments: []models.IncomingPayment{
			{ID: "p1", Counterparty: "ООО Ромашка", Amount: 500, ExpectedDate: day(10), Kind: models.PaymentFixed},
		},
		Orders: []models.SupplierOrder{{
			ID:            "o1",
			Title:         "Станок",
			TotalAmount:   2000,
			DepositAmount: 800,
			DepositPaid:   false,
			DepositDate:   day(5),
			DueDate:       day(20),
			Currency:      CurrencyRUB,
		}},
	}
}

func TestBuildPlanScenario(t *testing.T) {
	plan := Build(baseSnapshot(), testToday, DefaultHorizonDays)

	assert.Equal(t, 1000.0, plan.OpeningBalance)
	require.Len(t, plan.Daily, 3)

	assert.Equal(t, day(5).Format(DateLayout), plan.Daily[0].Date)
	assert.Equal(t, 200.0, plan.Daily[0].Balance)
	require.Len(t, plan.Daily[0].Events, 1)
	assert.Equal(t, -800.0, plan.Daily[0].Events[0].Amount)

	assert.Equal(t, day(10).Format(DateLayout), plan.Daily[1].Date)
	assert.Equal(t, 700.0, plan.Daily[1].Balance)

	assert.Equal(t, day(20).Format(DateLayout), plan.Daily[2].Date)
	assert.Equal(t, -500.0, plan.Daily[2].Balance)

	assert.Equal(t, -500.0, plan.MinBalance)
	assert.Equal(t, 500.0, plan.CashGap)
}

func TestBuildPlanIsDeterministic(t *testing.T) {
	snap := baseSnapshot()
	first := Build(snap, testToday, DefaultHorizonDays)
	second := Build(snap, testToday, DefaultHorizonDays)
	assert.Equal(t, first, second)
}

func TestBuildPlanCNYScenario(t *testing.T) {
	snap := baseSnapshot()
	snap.Orders[0].Currency = CurrencyCNY
	snap.Settings = &models.AppSettings{CNYRate: 2}

	plan := Build(snap, testToday, DefaultHorizonDays)
	require.Len(t, plan.Daily, 3)
	assert.Equal(t, -1600.0, plan.Daily[0].Events[0].Amount)
	assert.Equal(t, -2400.0, plan.Daily[2].Events[0].Amount)
}

func TestBuildPlanWithoutEvents(t *testing.T) {
	plan := BuildPlan([]models.Account{{ID: "a1", Balance: -250}}, nil, testToday, DefaultHorizonDays)
	assert.Empty(t, plan.Daily)
	assert.Equal(t, -250.0, plan.OpeningBalance)
	assert.Equal(t, -250.0, plan.MinBalance)
	assert.Equal(t, 250.0, plan.CashGap)
}

func TestBuildPlanOpeningBalanceSumsAccounts(t *testing.T) {
	accounts := []models.Account{
		{ID: "a1", Balance: 100.555},
		{ID: "a2", Balance: 200.111},
	}
	plan := BuildPlan(accounts, nil, testToday, DefaultHorizonDays)
	assert.Equal(t, 300.67, plan.OpeningBalance)
}

func TestBuildPlanTruncatesWindowAtHorizon(t *testing.T) {
	events := []models.CashEvent{
		{Date: day(5).Format(DateLayout), Type: models.EventOutflow, Amount: -100, Description: "скоро"},
		{Date: day(200).Format(DateLayout), Type: models.EventOutflow, Amount: -100, Description: "за горизонтом"},
	}
	plan := BuildPlan([]models.Account{{ID: "a1", Balance: 1000}}, events, testToday, 30)
	require.Len(t, plan.Daily, 1)
	assert.Equal(t, day(5).Format(DateLayout), plan.Daily[0].Date)
	assert.Equal(t, 900.0, plan.MinBalance)
	assert.Equal(t, 0.0, plan.CashGap)
}

func TestBuildPlanDailyListIsSparse(t *testing.T) {
	plan := Build(baseSnapshot(), testToday, DefaultHorizonDays)
	for _, d := range plan.Daily {
		assert.NotEmpty(t, d.Events, "day %s has no events", d.Date)
	}
}

func TestBuildPlanMinTrackingStartsAtOpeningBalance(t *testing.T) {
	events := []models.CashEvent{
		{Date: day(3).Format(DateLayout), Type: models.EventInflow, Amount: 500, Description: "поступление"},
	}
	plan := BuildPlan([]models.Account{{ID: "a1", Balance: -100}}, events, testToday, DefaultHorizonDays)
	assert.Equal(t, -100.0, plan.MinBalance)
	assert.Equal(t, 100.0, plan.CashGap)
}

func TestBuildPlanGroupsSameDayEvents(t *testing.T) {
	date := day(4).Format(DateLayout)
	events := []models.CashEvent{
		{Date: date, Type: models.EventInflow, Amount: 300, Description: "первое"},
		{Date: date, Type: models.EventOutflow, Amount: -100, Description: "второе"},
	}
	plan := BuildPlan([]models.Account{{ID: "a1", Balance: 50}}, events, testToday, DefaultHorizonDays)
	require.Len(t, plan.Daily, 1)
	assert.Len(t, plan.Daily[0].Events, 2)
	assert.Equal(t, 250.0, plan.Daily[0].Balance)
}

func TestBuildPlanStableOrderForSameDate(t *testing.T) {
	date := day(4).Format(DateLayout)
	events := []models.CashEvent{
		{Date: date, Type: models.EventOutflow, Amount: -1, Description: "первое"},
		{Date: date, Type: models.EventOutflow, Amount: -2, Description: "второе"},
		{Date: date, Type: models.EventOutflow, Amount: -3, Description: "третье"},
	}
	plan := BuildPlan(nil, events, testToday, DefaultHorizonDays)
	require.Len(t, plan.Daily, 1)
	got := plan.Daily[0].Events
	assert.Equal(t, "первое", got[0].Description)
	assert.Equal(t, "второе", got[1].Description)
	assert.Equal(t, "третье", got[2].Description)
}

func TestBuildPlanDoesNotMutateInputEvents(t *testing.T) {
	events := []models.CashEvent{
		{Date: day(9).Format(DateLayout), Type: models.EventOutflow, Amount: -1, Description: "later"},
		{Date: day(1).Format(DateLayout), Type: models.EventOutflow, Amount: -1, Description: "earlier"},
	}
	BuildPlan(nil, events, testToday, DefaultHorizonDays)
	assert.Equal(t, "later", events[0].Description)
	assert.Equal(t, "earlier", events[1].Description)
}

func TestBuildPlanRoundsOnlyAtSnapshotTime(t *testing.T) {
	// Three thirds of a kopeck each: the accumulator drifts, snapshots round.
	date1 := day(1).Format(DateLayout)
	date2 := day(2).Format(DateLayout)
	events := []models.CashEvent{
		{Date: date1, Type: models.EventInflow, Amount: 0.004, Description: "мелочь"},
		{Date: date2, Type: models.EventInflow, Amount: 0.004, Description: "мелочь"},
	}
	plan := BuildPlan(nil, events, testToday, DefaultHorizonDays)
	require.Len(t, plan.Daily, 2)
	assert.Equal(t, 0.0, plan.Daily[0].Balance)
	assert.Equal(t, 0.01, plan.Daily[1].Balance)
}

func TestDaysInMonthHandlesLeapYears(t *testing.T) {
	assert.Equal(t, 29, daysInMonth(2028, time.February, time.UTC))
	assert.Equal(t, 28, daysInMonth(2026, time.February, time.UTC))
	assert.Equal(t, 30, daysInMonth(2026, time.April, time.UTC))
	assert.Equal(t, 31, daysInMonth(2026, time.December, time.UTC))
}
