package domain

// ExportRow is a single row in the flat expense export.
// It is a denormalized view: one row per expense, with trip fields repeated
// for every expense on that trip. Trips with no expenses yield one row whose
// expense fields are all zero values (ExpenseIndex and Amount nil).
type ExportRow struct {
	// Trip fields, repeated for every expense on the trip.
	TripIndex   int      `json:"trip_index"`
	Destination string   `json:"destination"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Budget      *float64 `json:"budget,omitempty"`

	// Expense fields, zero values when the trip has no expenses.
	ExpenseIndex *int     `json:"expense_index,omitempty"`
	Date         string   `json:"date,omitempty"`
	Category     string   `json:"category,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Description  string   `json:"description,omitempty"`
}
