// Package service contains the business logic for the Trip Ledger API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No storage code lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/metrics"
	"github.com/pkordes/trip-ledger/internal/repo"
)

// TripService implements the positional CRUD operations over the trip
// collection. Every call is a full load → mutate → save cycle against the
// repo; nothing is cached between calls.
//
// mu is held for the whole cycle so two concurrent mutations in this process
// cannot overwrite each other's save.
type TripService struct {
	repo    repo.CollectionRepo
	log     *slog.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
}

// NewTripService constructs a TripService backed by the provided repo.
// A nil logger falls back to slog.Default(); m may be nil.
func NewTripService(r repo.CollectionRepo, log *slog.Logger, m *metrics.Metrics) *TripService {
	if log == nil {
		log = slog.Default()
	}
	return &TripService{repo: r, log: log, metrics: m}
}

// List returns the full collection in insertion order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trips, err := s.load(ctx)
	s.metrics.ObserveStoreOp("list", err)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, nil
}

// Get returns the trip at tripIndex.
// Returns domain.ErrNotFound if the index is out of range.
func (s *TripService) Get(ctx context.Context, tripIndex int) (domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trips, err := s.load(ctx)
	if err == nil && !inRange(tripIndex, len(trips)) {
		err = fmt.Errorf("%w: trip %d", domain.ErrNotFound, tripIndex)
	}
	s.metrics.ObserveStoreOp("get", err)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return trips[tripIndex], nil
}

// Create validates trip and appends it with an empty expense list.
// It returns the new trip's index, which equals the collection length
// before the call.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (int, error) {
	if err := validateTrip(trip); err != nil {
		return 0, fmt.Errorf("service.TripService.Create: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var index int
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		trip.Expenses = []domain.Expense{}
		index = len(trips)
		return append(trips, trip), nil
	})
	s.metrics.ObserveStoreOp("create", err)
	if err != nil {
		return 0, fmt.Errorf("service.TripService.Create: %w", err)
	}

	s.log.InfoContext(ctx, "trip created", "trip_index", index, "destination", trip.Destination)
	return index, nil
}

// AddExpense validates expense and appends it to the trip at tripIndex.
// A blank currency is replaced with domain.DefaultCurrency.
// Returns domain.ErrValidation for invalid input and domain.ErrNotFound if
// the trip index is out of range. Input is validated before bounds.
func (s *TripService) AddExpense(ctx context.Context, tripIndex int, expense domain.Expense) error {
	if err := validateExpense(expense); err != nil {
		return fmt.Errorf("service.TripService.AddExpense: %w", err)
	}
	if strings.TrimSpace(expense.Currency) == "" {
		expense.Currency = domain.DefaultCurrency
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		if !inRange(tripIndex, len(trips)) {
			return nil, fmt.Errorf("%w: trip %d", domain.ErrNotFound, tripIndex)
		}
		trips[tripIndex].Expenses = append(trips[tripIndex].Expenses, expense)
		return trips, nil
	})
	s.metrics.ObserveStoreOp("add_expense", err)
	if err != nil {
		return fmt.Errorf("service.TripService.AddExpense: %w", err)
	}

	s.log.InfoContext(ctx, "expense added",
		"trip_index", tripIndex,
		"category", expense.Category,
		"amount", expense.Amount,
		"currency", expense.Currency,
	)
	return nil
}

// DeleteExpense removes and returns the expense at expenseIndex of the trip
// at tripIndex. Later expenses shift down by one position.
// Returns domain.ErrNotFound if either index is out of range.
func (s *TripService) DeleteExpense(ctx context.Context, tripIndex, expenseIndex int) (domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed domain.Expense
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		if !inRange(tripIndex, len(trips)) {
			return nil, fmt.Errorf("%w: trip %d", domain.ErrNotFound, tripIndex)
		}
		expenses := trips[tripIndex].Expenses
		if !inRange(expenseIndex, len(expenses)) {
			return nil, fmt.Errorf("%w: expense %d of trip %d", domain.ErrNotFound, expenseIndex, tripIndex)
		}
		removed = expenses[expenseIndex]
		trips[tripIndex].Expenses = append(expenses[:expenseIndex], expenses[expenseIndex+1:]...)
		return trips, nil
	})
	s.metrics.ObserveStoreOp("delete_expense", err)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.TripService.DeleteExpense: %w", err)
	}

	s.log.InfoContext(ctx, "expense deleted", "trip_index", tripIndex, "expense_index", expenseIndex)
	return removed, nil
}

// SetBudget replaces the budget of the trip at tripIndex and returns the
// updated trip. The budget is the only trip field that can change after
// creation.
// Returns domain.ErrValidation for a negative budget and domain.ErrNotFound if
// the index is out of range.
func (s *TripService) SetBudget(ctx context.Context, tripIndex int, budget float64) (domain.Trip, error) {
	if budget < 0 {
		return domain.Trip{}, fmt.Errorf("service.TripService.SetBudget: %w: budget must not be negative", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.Trip
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		if !inRange(tripIndex, len(trips)) {
			return nil, fmt.Errorf("%w: trip %d", domain.ErrNotFound, tripIndex)
		}
		b := budget
		trips[tripIndex].Budget = &b
		updated = trips[tripIndex]
		return trips, nil
	})
	s.metrics.ObserveStoreOp("set_budget", err)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SetBudget: %w", err)
	}

	s.log.InfoContext(ctx, "budget updated", "trip_index", tripIndex, "budget", budget)
	return updated, nil
}

// mutate runs one load → fn → save cycle. If fn returns an error nothing is
// saved. Callers must hold s.mu.
func (s *TripService) mutate(ctx context.Context, fn func([]domain.Trip) ([]domain.Trip, error)) error {
	trips, err := s.load(ctx)
	if err != nil {
		return err
	}
	trips, err = fn(trips)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, trips)
}

// load reads the collection. A corrupt document is reported to the log and
// metrics and then treated as an empty collection; the next save replaces it.
func (s *TripService) load(ctx context.Context) ([]domain.Trip, error) {
	start := time.Now()
	trips, err := s.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrStorageCorruption) {
			return nil, err
		}
		s.metrics.ObserveStorageCorruption()
		s.log.WarnContext(ctx, "storage corruption: continuing with empty collection",
			"event", "storage_corruption",
			"error", err,
		)
		trips = []domain.Trip{}
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	s.log.DebugContext(ctx, "collection loaded", "trips", len(trips), "duration_ms", time.Since(start).Milliseconds())
	return trips, nil
}

// inRange reports whether 0 <= i < n.
func inRange(i, n int) bool {
	return i >= 0 && i < n
}

// validateTrip enforces the rules for a new trip.
//   - Destination must be non-empty (whitespace-only is rejected).
//   - StartDate and EndDate must be ISO-8601 calendar dates. Their order is
//     not checked.
//   - Budget, if set, must not be negative.
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.Destination) == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	if err := validateDate("start_date", trip.StartDate); err != nil {
		return err
	}
	if err := validateDate("end_date", trip.EndDate); err != nil {
		return err
	}
	if trip.Budget != nil && *trip.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", domain.ErrValidation)
	}
	return nil
}

// validateExpense enforces the rules for a new expense.
//   - Date must be an ISO-8601 calendar date.
//   - Category must be non-empty.
//   - Amount must not be negative.
func validateExpense(e domain.Expense) error {
	if err := validateDate("date", e.Date); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	if e.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", domain.ErrValidation)
	}
	return nil
}

func validateDate(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}
	if _, err := time.Parse(domain.DateLayout, value); err != nil {
		return fmt.Errorf("%w: %s must be a YYYY-MM-DD date", domain.ErrValidation, field)
	}
	return nil
}
