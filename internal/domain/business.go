package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Business is the tenant scope under which all ledger records are
// partitioned. One business per user.
type Business struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	Currency        string     `json:"currency"`
	FiscalStartDate civil.Date `json:"fiscal_start_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
