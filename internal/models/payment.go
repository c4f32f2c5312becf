package models

import "time"

// Payment kinds. Planned payments are dropped from the projection once
// their expected date is in the past; fixed payments are always included.
const (
	PaymentFixed   = "fixed"
	PaymentPlanned = "planned"
)

// IncomingPayment represents an expected inflow in the base currency
type IncomingPayment struct {
	ID           string    `json:"id"`
	Counterparty string    `json:"counterparty"`
	Amount       float64   `json:"amount"`
	ExpectedDate time.Time `json:"expected_date"`
	Kind         string    `json:"kind"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
