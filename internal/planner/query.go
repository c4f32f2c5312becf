package planner

import (
	"time"

	"github.com/vzolin/cashplan-service/internal/models"
)

// CandidateOrderID marks the synthetic order injected by what-if
// simulations, so its events are recognizable in the resulting plan.
const CandidateOrderID = "candidate"

// BalanceOnDate returns the projected balance on the given YYYY-MM-DD date.
// An exact daily stat wins; otherwise the last available stat's balance is
// returned (no interpolation). The second result is false when the plan has
// no daily stats at all.
func BalanceOnDate(plan *models.CashPlanResult, date string) (float64, bool) {
	if plan == nil || len(plan.Daily) == 0 {
		return 0, false
	}
	for _, d := range plan.Daily {
		if d.Date == date {
			return d.Balance, true
		}
	}
	return plan.Daily[len(plan.Daily)-1].Balance, true
}

// EvaluateOrderImpact reruns the plan with the candidate order appended
// under a sentinel id and reports whether the projection stays
// non-negative. Purely advisory: nothing is persisted and the snapshot is
// not modified.
func EvaluateOrderImpact(snap Snapshot, candidate models.SupplierOrder, today time.Time, horizonDays int) models.OrderImpact {
	candidate.ID = CandidateOrderID
	orders := make([]models.SupplierOrder, 0, len(snap.Orders)+1)
	orders = append(orders, snap.Orders...)
	orders = append(orders, candidate)
	snap.Orders = orders

	plan := Build(snap, today, horizonDays)
	return models.OrderImpact{
		OK:         plan.MinBalance >= 0,
		MinBalance: plan.MinBalance,
		CashGap:    plan.CashGap,
	}
}
