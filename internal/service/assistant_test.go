package service_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/llm"
	"github.com/pkordes/trip-ledger/internal/service"
)

type mockChatCompleter struct {
	complete func(ctx context.Context, requestID string, req llm.ChatRequest) (llm.ChatResponse, error)
	calls    int
	last     llm.ChatRequest
}

func (m *mockChatCompleter) Complete(ctx context.Context, requestID string, req llm.ChatRequest) (llm.ChatResponse, error) {
	m.calls++
	m.last = req
	return m.complete(ctx, requestID, req)
}

var _ service.ChatCompleter = (*mockChatCompleter)(nil)

type mockTripGetter struct {
	get func(ctx context.Context, tripIndex int) (domain.Trip, error)
}

func (m *mockTripGetter) Get(ctx context.Context, tripIndex int) (domain.Trip, error) {
	return m.get(ctx, tripIndex)
}

var _ service.TripGetter = (*mockTripGetter)(nil)
var _ service.TripGetter = (*service.TripService)(nil)

func reply(content string) func(context.Context, string, llm.ChatRequest) (llm.ChatResponse, error) {
	return func(context.Context, string, llm.ChatRequest) (llm.ChatResponse, error) {
		return llm.ChatResponse{Choices: []llm.Choice{{Message: &llm.Message{Role: "assistant", Content: content}}}}, nil
	}
}

func newAssistant(chat service.ChatCompleter, trips service.TripGetter) *service.AssistantService {
	return service.NewAssistantService(chat, trips, service.DefaultAssistantConfig(), slog.New(slog.DiscardHandler), nil)
}

// ---- Ask tests -------------------------------------------------------------

func TestAssistantService_Ask_Success(t *testing.T) {
	chat := &mockChatCompleter{complete: reply("  Go to Chiang Mai.\n")}
	svc := newAssistant(chat, nil)

	got, err := svc.Ask(context.Background(), "Where should I go in March?")

	require.NoError(t, err)
	assert.False(t, got.Failed())
	assert.Equal(t, "Go to Chiang Mai.", got.Answer)

	require.Equal(t, 1, chat.calls)
	assert.Equal(t, "llama-3.3-70b-versatile", chat.last.Model)
	assert.Equal(t, 0.7, chat.last.Temperature)
	assert.Equal(t, 512, chat.last.MaxCompletionTokens)
	assert.Equal(t, []llm.Message{
		{Role: "system", Content: service.SystemPrompt},
		{Role: "user", Content: "Where should I go in March?"},
	}, chat.last.Messages)
}

func TestAssistantService_Ask_SendsRequestID(t *testing.T) {
	var seen string
	chat := &mockChatCompleter{complete: func(_ context.Context, id string, _ llm.ChatRequest) (llm.ChatResponse, error) {
		seen = id
		return llm.ChatResponse{}, nil
	}}

	_, err := newAssistant(chat, nil).Ask(context.Background(), "hi")

	require.NoError(t, err)
	assert.Len(t, seen, 36, "request id should be a UUID string")
}

func TestAssistantService_Ask_BlankQuestion(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		chat := &mockChatCompleter{complete: reply("unused")}
		svc := newAssistant(chat, nil)

		_, err := svc.Ask(context.Background(), q)

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, chat.calls, "no upstream call for %q", q)
	}
}

func TestAssistantService_Ask_UpstreamStatus(t *testing.T) {
	body := `{"error":{"message":"overloaded"}}`
	chat := &mockChatCompleter{complete: func(context.Context, string, llm.ChatRequest) (llm.ChatResponse, error) {
		return llm.ChatResponse{}, &llm.StatusError{StatusCode: 500, Status: "500 Internal Server Error", Body: body}
	}}

	got, err := newAssistant(chat, nil).Ask(context.Background(), "hello")

	require.NoError(t, err, "upstream failure is data, not an error")
	assert.True(t, got.Failed())
	assert.Contains(t, got.Error, "500")
	require.NotNil(t, got.Status)
	assert.Equal(t, 500, *got.Status)
	assert.Equal(t, body, got.Body)
	assert.Empty(t, got.Answer)
}

func TestAssistantService_Ask_TransportError(t *testing.T) {
	chat := &mockChatCompleter{complete: func(context.Context, string, llm.ChatRequest) (llm.ChatResponse, error) {
		return llm.ChatResponse{}, errors.New("dial tcp: connection refused")
	}}

	got, err := newAssistant(chat, nil).Ask(context.Background(), "hello")

	require.NoError(t, err)
	assert.True(t, got.Failed())
	assert.Contains(t, got.Error, "connection refused")
	assert.Nil(t, got.Status)
	assert.Empty(t, got.Body)
}

func TestAssistantService_Ask_Fallback(t *testing.T) {
	cases := map[string]llm.ChatResponse{
		"no choices":     {},
		"empty choices":  {Choices: []llm.Choice{}},
		"missing message": {Choices: []llm.Choice{{Index: 0}}},
	}

	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			chat := &mockChatCompleter{complete: func(context.Context, string, llm.ChatRequest) (llm.ChatResponse, error) {
				return resp, nil
			}}

			got, err := newAssistant(chat, nil).Ask(context.Background(), "hello")

			require.NoError(t, err)
			assert.False(t, got.Failed())
			assert.Equal(t, service.FallbackAnswer, got.Answer)
		})
	}
}

// ---- Itinerary tests -------------------------------------------------------

func TestAssistantService_Itinerary_Prompt(t *testing.T) {
	budget := 12000.0
	trip := domain.Trip{
		Destination: "Bangkok",
		StartDate:   "2024-01-01",
		EndDate:     "2024-01-05",
		Budget:      &budget,
		Expenses: []domain.Expense{
			{Date: "2024-01-02", Category: "Food", Amount: 250, Currency: domain.DefaultCurrency},
		},
	}
	trips := &mockTripGetter{get: func(_ context.Context, i int) (domain.Trip, error) {
		require.Equal(t, 0, i)
		return trip, nil
	}}
	chat := &mockChatCompleter{complete: reply("Day 1: temples.")}

	got, err := newAssistant(chat, trips).Itinerary(context.Background(), 0, "")

	require.NoError(t, err)
	assert.Equal(t, "Day 1: temples.", got.Answer)

	require.Len(t, chat.last.Messages, 2)
	prompt := chat.last.Messages[1].Content
	assert.True(t, strings.HasPrefix(prompt, "Plan a trip to Bangkok from 2024-01-01 to 2024-01-05"), prompt)
	assert.Contains(t, prompt, `"category":"Food"`)
	assert.Contains(t, prompt, "The total budget is 12000.00.")
	assert.True(t, strings.HasSuffix(prompt, "Suggest activities within budget."), prompt)
}

func TestAssistantService_Itinerary_NoBudget(t *testing.T) {
	trips := &mockTripGetter{get: func(context.Context, int) (domain.Trip, error) {
		return domain.Trip{Destination: "Hanoi", StartDate: "2024-02-01", EndDate: "2024-02-03"}, nil
	}}
	chat := &mockChatCompleter{complete: reply("ok")}

	_, err := newAssistant(chat, trips).Itinerary(context.Background(), 0, "")

	require.NoError(t, err)
	prompt := chat.last.Messages[1].Content
	assert.Contains(t, prompt, "considering these expenses: [].")
	assert.NotContains(t, prompt, "total budget")
}

func TestAssistantService_Itinerary_ExtraInstructions(t *testing.T) {
	trips := &mockTripGetter{get: func(context.Context, int) (domain.Trip, error) {
		return domain.Trip{Destination: "Hanoi", StartDate: "2024-02-01", EndDate: "2024-02-03"}, nil
	}}
	chat := &mockChatCompleter{complete: reply("ok")}
	svc := newAssistant(chat, trips)

	_, err := svc.Itinerary(context.Background(), 0, "  vegetarian food only ")
	require.NoError(t, err)
	require.Len(t, chat.last.Messages, 3)
	assert.Equal(t, llm.Message{Role: "user", Content: "vegetarian food only"}, chat.last.Messages[2])

	_, err = svc.Itinerary(context.Background(), 0, "   ")
	require.NoError(t, err)
	assert.Len(t, chat.last.Messages, 2)
}

func TestAssistantService_Itinerary_NotFound(t *testing.T) {
	trips := &mockTripGetter{get: func(context.Context, int) (domain.Trip, error) {
		return domain.Trip{}, domain.ErrNotFound
	}}
	chat := &mockChatCompleter{complete: reply("unused")}

	_, err := newAssistant(chat, trips).Itinerary(context.Background(), 3, "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, chat.calls)
}
