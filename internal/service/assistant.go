package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/llm"
	"github.com/pkordes/trip-ledger/internal/metrics"
)

// SystemPrompt is the fixed instruction sent ahead of every question.
const SystemPrompt = "You are a helpful trip planning assistant."

// FallbackAnswer replaces a successful reply that carries no completion text.
const FallbackAnswer = "No valid response from the AI service"

// ChatCompleter sends one chat-completion request upstream.
// *llm.Client satisfies it; tests substitute a function-field mock.
type ChatCompleter interface {
	Complete(ctx context.Context, requestID string, req llm.ChatRequest) (llm.ChatResponse, error)
}

// TripGetter reads a single trip by position. *TripService satisfies it.
type TripGetter interface {
	Get(ctx context.Context, tripIndex int) (domain.Trip, error)
}

// AssistantConfig holds the fixed generation parameters.
type AssistantConfig struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int
}

// DefaultAssistantConfig returns the generation parameters used in production.
func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		Model:               "llama-3.3-70b-versatile",
		Temperature:         0.7,
		MaxCompletionTokens: 512,
	}
}

// AssistantService turns questions into chat-completion calls and normalizes
// the outcome. Bad input is a hard error; upstream trouble is data.
type AssistantService struct {
	chat    ChatCompleter
	trips   TripGetter
	cfg     AssistantConfig
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewAssistantService constructs an AssistantService.
// trips is only needed by Itinerary and may be nil otherwise.
func NewAssistantService(chat ChatCompleter, trips TripGetter, cfg AssistantConfig, log *slog.Logger, m *metrics.Metrics) *AssistantService {
	if log == nil {
		log = slog.Default()
	}
	return &AssistantService{chat: chat, trips: trips, cfg: cfg, log: log, metrics: m}
}

// Ask forwards question as a single user turn.
// Returns domain.ErrValidation, without calling upstream, if question is blank.
// Upstream failures come back as a failed domain.AskResult and a nil error.
func (s *AssistantService) Ask(ctx context.Context, question string) (domain.AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return domain.AskResult{}, fmt.Errorf("service.AssistantService.Ask: %w: question is required", domain.ErrValidation)
	}

	return s.complete(ctx, []llm.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: question},
	}), nil
}

// Itinerary asks for a plan for the trip at tripIndex, built from its
// destination, dates, budget and recorded expenses. Non-blank
// extraInstructions are sent as a second user turn.
// Returns domain.ErrNotFound if the index is out of range.
func (s *AssistantService) Itinerary(ctx context.Context, tripIndex int, extraInstructions string) (domain.AskResult, error) {
	if s.trips == nil {
		return domain.AskResult{}, errors.New("service.AssistantService.Itinerary: no trip source configured")
	}
	trip, err := s.trips.Get(ctx, tripIndex)
	if err != nil {
		return domain.AskResult{}, fmt.Errorf("service.AssistantService.Itinerary: %w", err)
	}

	prompt, err := itineraryPrompt(trip)
	if err != nil {
		return domain.AskResult{}, fmt.Errorf("service.AssistantService.Itinerary: %w", err)
	}

	messages := []llm.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	}
	if extra := strings.TrimSpace(extraInstructions); extra != "" {
		messages = append(messages, llm.Message{Role: "user", Content: extra})
	}
	return s.complete(ctx, messages), nil
}

// complete performs the upstream call and maps every outcome to an AskResult.
func (s *AssistantService) complete(ctx context.Context, messages []llm.Message) domain.AskResult {
	requestID := uuid.NewString()
	req := llm.ChatRequest{
		Model:               s.cfg.Model,
		Messages:            messages,
		Temperature:         s.cfg.Temperature,
		MaxCompletionTokens: s.cfg.MaxCompletionTokens,
	}

	start := time.Now()
	resp, err := s.chat.Complete(ctx, requestID, req)
	elapsed := time.Since(start)

	if err != nil {
		result := domain.AskResult{Error: err.Error()}
		outcome := metrics.OutcomeTransportError

		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			status := statusErr.StatusCode
			result.Status = &status
			result.Body = statusErr.Body
			outcome = metrics.OutcomeUpstreamError
		}

		s.metrics.ObserveUpstream(outcome, elapsed)
		s.log.WarnContext(ctx, "assistant upstream failed",
			"ai_request_id", requestID,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return result
	}

	content, ok := resp.FirstContent()
	if !ok {
		s.metrics.ObserveUpstream(metrics.OutcomeFallback, elapsed)
		s.log.WarnContext(ctx, "assistant reply had no completion; using fallback",
			"ai_request_id", requestID,
			"duration_ms", elapsed.Milliseconds(),
		)
		return domain.AskResult{Answer: FallbackAnswer}
	}

	s.metrics.ObserveUpstream(metrics.OutcomeSuccess, elapsed)
	s.log.InfoContext(ctx, "assistant answered",
		"ai_request_id", requestID,
		"duration_ms", elapsed.Milliseconds(),
	)
	return domain.AskResult{Answer: strings.TrimSpace(content)}
}

// itineraryPrompt renders the planning question for trip.
func itineraryPrompt(trip domain.Trip) (string, error) {
	expenses := trip.Expenses
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	encoded, err := json.Marshal(expenses)
	if err != nil {
		return "", fmt.Errorf("encode expenses: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan a trip to %s from %s to %s, considering these expenses: %s.",
		trip.Destination, trip.StartDate, trip.EndDate, encoded)
	if trip.Budget != nil {
		b.WriteString(" The total budget is ")
		b.WriteString(strconv.FormatFloat(*trip.Budget, 'f', 2, 64))
		b.WriteString(".")
	}
	b.WriteString(" Suggest activities within budget.")
	return b.String(), nil
}
