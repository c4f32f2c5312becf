package models

import "time"

// SupplierOrder represents a purchase order with a deposit and a balance
// payment, either in RUB or CNY. The deposit date may be zero, in which
// case the projection treats it as due immediately.
type SupplierOrder struct {
	ID            string    `json:"id"`
	SupplierID    string    `json:"supplier_id,omitempty"`
	SupplierName  string    `json:"supplier_name,omitempty"`
	ExternalID    string    `json:"external_id,omitempty"`
	Title         string    `json:"title"`
	TotalAmount   float64   `json:"total_amount"`
	DepositAmount float64   `json:"deposit_amount"`
	DepositPaid   bool      `json:"deposit_paid"`
	DepositDate   time.Time `json:"deposit_date"`
	DueDate       time.Time `json:"due_date"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderImpact is the advisory result of a what-if order simulation
type OrderImpact struct {
	OK         bool    `json:"ok"`
	MinBalance float64 `json:"minBalance"`
	CashGap    float64 `json:"cashGap"`
}
