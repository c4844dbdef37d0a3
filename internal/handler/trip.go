package handler

import (
	"errors"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// CreateTripRequest is the body of POST /trips.
// Dates use openapi_types.Date so anything other than YYYY-MM-DD fails to
// decode. Incoming expenses are accepted and discarded.
type CreateTripRequest struct {
	Destination string              `json:"destination"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	Budget      *float64            `json:"budget,omitempty"`
}

// CreateTripResponse is returned by POST /trips.
type CreateTripResponse struct {
	Message   string `json:"message"`
	TripIndex int    `json:"trip_index"`
}

// ExpenseRequest is the body of POST /trips/{tripIndex}/expense.
type ExpenseRequest struct {
	Date        *openapi_types.Date `json:"date"`
	Category    string              `json:"category"`
	Amount      *float64            `json:"amount"`
	Currency    string              `json:"currency,omitempty"`
	Description string              `json:"description"`
}

// BudgetRequest is the body of PUT /trips/{tripIndex}/budget.
type BudgetRequest struct {
	Budget *float64 `json:"budget"`
}

// BudgetResponse is returned by PUT /trips/{tripIndex}/budget.
type BudgetResponse struct {
	Message string      `json:"message"`
	Trip    domain.Trip `json:"trip"`
}

// DeleteExpenseResponse is returned by DELETE /trips/{tripIndex}/expense/{expenseIndex}.
type DeleteExpenseResponse struct {
	Message string         `json:"message"`
	Deleted domain.Expense `json:"deleted"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListTrips handles GET /trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body CreateTripRequest
	if err := decodeJSON(r, &body); err != nil {
		rejectBody(w, err, http.StatusUnprocessableEntity, codeValidation)
		return
	}
	trip, err := requestToTrip(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}

	index, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			validationFailed(w, err)
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateTripResponse{Message: "Trip added", TripIndex: index})
}

// SetBudget handles PUT /trips/{tripIndex}/budget.
func (s *Server) SetBudget(w http.ResponseWriter, r *http.Request) {
	tripIndex, err := indexParam(r, "tripIndex")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}
	var body BudgetRequest
	if err := decodeJSON(r, &body); err != nil {
		rejectBody(w, err, http.StatusUnprocessableEntity, codeValidation)
		return
	}
	if body.Budget == nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "budget is required")
		return
	}

	trip, err := s.trips.SetBudget(r.Context(), tripIndex, *body.Budget)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			validationFailed(w, err)
		case errors.Is(err, domain.ErrNotFound):
			notFound(w, err)
		default:
			s.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, BudgetResponse{Message: "Budget updated", Trip: trip})
}

// AddExpense handles POST /trips/{tripIndex}/expense.
func (s *Server) AddExpense(w http.ResponseWriter, r *http.Request) {
	tripIndex, err := indexParam(r, "tripIndex")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}
	var body ExpenseRequest
	if err := decodeJSON(r, &body); err != nil {
		rejectBody(w, err, http.StatusUnprocessableEntity, codeValidation)
		return
	}
	expense, err := requestToExpense(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}

	if err := s.trips.AddExpense(r.Context(), tripIndex, expense); err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			validationFailed(w, err)
		case errors.Is(err, domain.ErrNotFound):
			notFound(w, err)
		default:
			s.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Expense added"})
}

// DeleteExpense handles DELETE /trips/{tripIndex}/expense/{expenseIndex}.
func (s *Server) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	tripIndex, err := indexParam(r, "tripIndex")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}
	expenseIndex, err := indexParam(r, "expenseIndex")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}

	deleted, err := s.trips.DeleteExpense(r.Context(), tripIndex, expenseIndex)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			notFound(w, err)
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteExpenseResponse{Message: "Expense deleted", Deleted: deleted})
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a CreateTripRequest body into a domain.Trip.
// Returns an error if a required date is missing.
func requestToTrip(body CreateTripRequest) (domain.Trip, error) {
	if body.StartDate == nil {
		return domain.Trip{}, errors.New("start_date is required")
	}
	if body.EndDate == nil {
		return domain.Trip{}, errors.New("end_date is required")
	}
	return domain.Trip{
		Destination: body.Destination,
		StartDate:   formatDate(*body.StartDate),
		EndDate:     formatDate(*body.EndDate),
		Budget:      body.Budget,
	}, nil
}

// requestToExpense converts an ExpenseRequest body into a domain.Expense.
func requestToExpense(body ExpenseRequest) (domain.Expense, error) {
	if body.Date == nil {
		return domain.Expense{}, errors.New("date is required")
	}
	if body.Amount == nil {
		return domain.Expense{}, errors.New("amount is required")
	}
	return domain.Expense{
		Date:        formatDate(*body.Date),
		Category:    body.Category,
		Amount:      *body.Amount,
		Currency:    body.Currency,
		Description: body.Description,
	}, nil
}

func formatDate(d openapi_types.Date) string {
	return d.Format(domain.DateLayout)
}
