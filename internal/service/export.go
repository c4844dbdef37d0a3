package service

import (
	"context"
	"fmt"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// TripLister reads the full collection. *TripService satisfies it.
type TripLister interface {
	List(ctx context.Context) ([]domain.Trip, error)
}

// ExportService flattens the collection into one row per expense.
type ExportService struct {
	trips TripLister
}

// NewExportService constructs an ExportService reading from trips.
func NewExportService(trips TripLister) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per expense across all trips, in collection
// order. Trips with no expenses contribute one row with empty expense fields.
// A non-nil tripIndex restricts the export to that trip and returns
// domain.ErrNotFound if it is out of range.
func (s *ExportService) Export(ctx context.Context, tripIndex *int) ([]domain.ExportRow, error) {
	trips, err := s.trips.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	first, last := 0, len(trips)
	if tripIndex != nil {
		if !inRange(*tripIndex, len(trips)) {
			return nil, fmt.Errorf("service.ExportService.Export: %w: trip %d", domain.ErrNotFound, *tripIndex)
		}
		first, last = *tripIndex, *tripIndex+1
	}

	rows := []domain.ExportRow{}
	for i := first; i < last; i++ {
		rows = append(rows, tripRows(i, trips[i])...)
	}
	return rows, nil
}

func tripRows(index int, trip domain.Trip) []domain.ExportRow {
	base := domain.ExportRow{
		TripIndex:   index,
		Destination: trip.Destination,
		StartDate:   trip.StartDate,
		EndDate:     trip.EndDate,
		Budget:      trip.Budget,
	}
	if len(trip.Expenses) == 0 {
		return []domain.ExportRow{base}
	}

	rows := make([]domain.ExportRow, 0, len(trip.Expenses))
	for j, e := range trip.Expenses {
		row := base
		ei, amount := j, e.Amount
		row.ExpenseIndex = &ei
		row.Date = e.Date
		row.Category = e.Category
		row.Amount = &amount
		row.Currency = e.Currency
		row.Description = e.Description
		rows = append(rows, row)
	}
	return rows
}
