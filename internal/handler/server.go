// Package handler implements the HTTP handlers for the Trip Ledger API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, assistant.go, export.go) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/spec"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching storage or the service layer.
type TripServicer interface {
	List(ctx context.Context) ([]domain.Trip, error)
	Create(ctx context.Context, trip domain.Trip) (int, error)
	AddExpense(ctx context.Context, tripIndex int, expense domain.Expense) error
	DeleteExpense(ctx context.Context, tripIndex, expenseIndex int) (domain.Expense, error)
	SetBudget(ctx context.Context, tripIndex int, budget float64) (domain.Trip, error)
}

// Assistant defines the AI proxy operations.
type Assistant interface {
	Ask(ctx context.Context, question string) (domain.AskResult, error)
	Itinerary(ctx context.Context, tripIndex int, extraInstructions string) (domain.AskResult, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips     TripServicer
	assistant Assistant
	export    ExportServicer
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(trips TripServicer, assistant Assistant, export ExportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{trips: trips, assistant: assistant, export: export, log: log}
}

// Routes registers every API endpoint on r.
// Route patterns use chi's {param} syntax; the metrics middleware labels
// requests with these patterns rather than raw paths.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Route("/{tripIndex}", func(r chi.Router) {
			r.Put("/budget", s.SetBudget)
			r.Post("/expense", s.AddExpense)
			r.Delete("/expense/{expenseIndex}", s.DeleteExpense)
			r.Post("/itinerary", s.PlanItinerary)
		})
	})

	r.Post("/ask_ai", s.AskAI)
	r.Get("/export", s.GetExport)
}

// serveOpenAPI returns the embedded API description.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
