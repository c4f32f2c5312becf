package models

// AppSettings holds application-level configuration stored in the database
type AppSettings struct {
	CNYRate float64 `json:"cny_rate"`
}
