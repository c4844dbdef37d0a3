// Package domain contains the core data types for the Trip Ledger application.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

// DefaultCurrency is applied to expenses recorded without a currency tag.
const DefaultCurrency = "THB (฿)"

// DateLayout is the ISO-8601 calendar date format used for every date field.
const DateLayout = "2006-01-02"

// Trip is a single journey and the expenses recorded against it.
// A trip has no stable key: its identity is its position in the collection,
// and positions shift down when an earlier entry is removed.
type Trip struct {
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"` // may precede StartDate; not enforced
	Expenses    []Expense `json:"expenses"`
	Budget      *float64  `json:"budget,omitempty"` // nil when no budget was set
}

// Expense is one itemized cost within a trip.
// Its identity is its position within Trip.Expenses.
type Expense struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
	Description string  `json:"description"`
}
