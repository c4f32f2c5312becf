package planner

import (
	"fmt"
	"time"

	"github.com/vzolin/cashplan-service/internal/models"
)

// CollectEvents converts incoming payments and supplier orders into a flat,
// unordered list of dated cash events, converting order amounts into the
// base currency via the rate table.
//
// Planned payments whose expected date is already in the past are dropped
// silently: they never become past events and do not affect the plan.
// Each order contributes at most two outflows: the deposit (only while it
// is positive and unpaid) and the remainder (total minus deposit, only
// while positive). The opening balance is not emitted as an event; the plan
// builder folds it directly into its starting accumulator.
func CollectEvents(payments []models.IncomingPayment, orders []models.SupplierOrder, rates map[string]float64, today time.Time) []models.CashEvent {
	today = startOfDay(today)
	events := make([]models.CashEvent, 0, len(payments)+2*len(orders))

	for _, p := range payments {
		expected := startOfDay(p.ExpectedDate)
		if p.Kind == models.PaymentPlanned && expected.Before(today) {
			continue
		}
		events = append(events, models.CashEvent{
			Date:        expected.Format(DateLayout),
			Type:        models.EventInflow,
			Amount:      normalizeAmount(p.Amount),
			Description: fmt.Sprintf("Поступление от %s (%s)", p.Counterparty, kindLabel(p.Kind)),
			Source:      p.ID,
		})
	}

	for _, o := range orders {
		rate, ok := rates[o.Currency]
		if !ok || rate <= 0 {
			rate = 1
		}
		deposit := normalizeAmount(o.DepositAmount) * rate
		remainder := normalizeAmount(o.TotalAmount)*rate - deposit

		// A paid deposit must never reappear as a future outflow.
		if deposit > 0 && !o.DepositPaid {
			depositDate := o.DepositDate
			if depositDate.IsZero() {
				depositDate = today
			}
			events = append(events, models.CashEvent{
				Date:        startOfDay(depositDate).Format(DateLayout),
				Type:        models.EventOutflow,
				Amount:      -deposit,
				Description: fmt.Sprintf("Аванс по заказу «%s»", o.Title),
				Source:      o.ID,
			})
		}

		if remainder > 0 {
			dueDate := o.DueDate
			if dueDate.IsZero() {
				dueDate = today
			}
			events = append(events, models.CashEvent{
				Date:        startOfDay(dueDate).Format(DateLayout),
				Type:        models.EventOutflow,
				Amount:      -remainder,
				Description: fmt.Sprintf("Доплата по заказу «%s»", o.Title),
				Source:      o.ID,
			})
		}
	}

	return events
}

func kindLabel(kind string) string {
	if kind == models.PaymentPlanned {
		return "плановое"
	}
	return "фиксированное"
}
