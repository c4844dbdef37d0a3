package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/handler"
)

// mockAssistant is a test double for handler.Assistant.
type mockAssistant struct {
	ask       func(ctx context.Context, question string) (domain.AskResult, error)
	itinerary func(ctx context.Context, tripIndex int, extra string) (domain.AskResult, error)
}

func (m *mockAssistant) Ask(ctx context.Context, q string) (domain.AskResult, error) {
	return m.ask(ctx, q)
}
func (m *mockAssistant) Itinerary(ctx context.Context, i int, extra string) (domain.AskResult, error) {
	return m.itinerary(ctx, i, extra)
}

var _ handler.Assistant = (*mockAssistant)(nil)

// ---- POST /ask_ai ----------------------------------------------------------

func TestAskAI_returnsAnswer(t *testing.T) {
	a := &mockAssistant{
		ask: func(_ context.Context, q string) (domain.AskResult, error) {
			require.Equal(t, "Best street food in Bangkok?", q)
			return domain.AskResult{Answer: "Try Yaowarat."}, nil
		},
	}

	rec := do(newHTTPHandler(nil, a), http.MethodPost, "/ask_ai", jsonBody(t, map[string]any{"question": "Best street food in Bangkok?"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"Try Yaowarat."}`, rec.Body.String())
}

func TestAskAI_upstreamFailure_isSoft200(t *testing.T) {
	status := 500
	a := &mockAssistant{
		ask: func(context.Context, string) (domain.AskResult, error) {
			return domain.AskResult{Error: "chat completion failed: upstream returned 500 Internal Server Error", Status: &status, Body: "boom"}, nil
		},
	}

	rec := do(newHTTPHandler(nil, a), http.MethodPost, "/ask_ai", jsonBody(t, map[string]any{"question": "hi"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"chat completion failed: upstream returned 500 Internal Server Error","status":500,"body":"boom"}`, rec.Body.String())
}

func TestAskAI_transportFailure_hasNullStatus(t *testing.T) {
	a := &mockAssistant{
		ask: func(context.Context, string) (domain.AskResult, error) {
			return domain.AskResult{Error: "connection refused"}, nil
		},
	}

	rec := do(newHTTPHandler(nil, a), http.MethodPost, "/ask_ai", jsonBody(t, map[string]any{"question": "hi"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"connection refused","status":null,"body":""}`, rec.Body.String())
}

func TestAskAI_badRequest_returns400(t *testing.T) {
	cases := map[string]string{
		"empty body": ``,
		"not json":   `question?`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			a := &mockAssistant{
				ask: func(context.Context, string) (domain.AskResult, error) {
					t.Fatal("assistant must not be called")
					return domain.AskResult{}, nil
				},
			}

			rec := do(newHTTPHandler(nil, a), http.MethodPost, "/ask_ai", bytes.NewBufferString(raw))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "bad_request", decodeError(t, rec).Code)
		})
	}
}

func TestAskAI_blankQuestion_returns400(t *testing.T) {
	a := &mockAssistant{
		ask: func(context.Context, string) (domain.AskResult, error) {
			return domain.AskResult{}, fmt.Errorf("service.AssistantService.Ask: %w: question is required", domain.ErrValidation)
		},
	}

	rec := do(newHTTPHandler(nil, a), http.MethodPost, "/ask_ai", jsonBody(t, map[string]any{"question": ""}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "bad_request", detail.Code)
	assert.Equal(t, "question is required", detail.Message)
}

// ---- POST /trips/{tripIndex}/itinerary -------------------------------------

func TestPlanItinerary_passesExtraInstructions(t *testing.T) {
	a := &mockAssistant{
		itinerary: func(_ context.Context, i int, extra string) (domain.AskResult, error) {
			require.Equal(t, 2, i)
			require.Equal(t, "no museums", extra)
			return domain.AskResult{Answer: "Day 1: markets."}, nil
		},
	}

	rec := do(newHTTPHandler(nil, a), http.MethodPost, "/trips/2/itinerary", jsonBody(t, map[string]any{"extra_instructions": "no museums"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"Day 1: markets."}`, rec.Body.String())
}

func TestPlanItinerary_emptyBodyAllowed(t *testing.T) {
	a := &mockAssistant{
		itinerary: func(_ context.Context, _ int, extra string) (domain.AskResult, error) {
			require.Empty(t, extra)
			return domain.AskResult{Answer: "ok"}, nil
		},
	}

	rec := do(newHTTPHandler(nil, a), http.MethodPost, "/trips/0/itinerary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPlanItinerary_notFound_returns404(t *testing.T) {
	a := &mockAssistant{
		itinerary: func(_ context.Context, i int, _ string) (domain.AskResult, error) {
			return domain.AskResult{}, fmt.Errorf("service.AssistantService.Itinerary: %w: trip %d", domain.ErrNotFound, i)
		},
	}

	rec := do(newHTTPHandler(nil, a), http.MethodPost, "/trips/4/itinerary", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "trip 4 not found", decodeError(t, rec).Message)
}
