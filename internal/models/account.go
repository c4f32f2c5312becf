package models

import "time"

// Account represents a cash account holding funds in the base currency (RUB)
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}
