package models

// Cash event types
const (
	EventOpening = "opening"
	EventInflow  = "inflow"
	EventOutflow = "outflow"
)

// CashEvent represents a single dated cash movement in the projection.
// Amount is signed: positive for inflows, negative for outflows.
type CashEvent struct {
	Date        string  `json:"date"` // Format: YYYY-MM-DD
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Source      string  `json:"source,omitempty"`
}

// DailyStat represents the balance after one day's events are applied.
// Only days with at least one event are materialized.
type DailyStat struct {
	Date    string      `json:"date"`
	Balance float64     `json:"balance"`
	Events  []CashEvent `json:"events"`
}

// CashPlanResult is the projected day-by-day cash plan
type CashPlanResult struct {
	OpeningBalance float64     `json:"openingBalance"`
	Daily          []DailyStat `json:"daily"`
	MinBalance     float64     `json:"minBalance"`
	CashGap        float64     `json:"cashGap"`
}
