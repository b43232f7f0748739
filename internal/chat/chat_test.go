package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripworks/costing-gpt/internal/model"
	"github.com/tripworks/costing-gpt/internal/store"
	"github.com/tripworks/costing-gpt/pkg/llm"
)

// scriptedClient replays canned responses and records what it was sent.
type scriptedClient struct {
	responses []*llm.ChatResponse
	requests  []llm.ChatRequest
}

func (c *scriptedClient) CreateChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: "done"}}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func seededStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	res := s.SaveTariff(ctx, "", &model.TariffRecord{
		HotelName:  "Grand Palace",
		City:       "Goa",
		BaseRate:   10000,
		GSTPercent: 18,
		ServiceFee: 1000,
		Season:     "Peak",
		StartDate:  "2026-10-01",
		EndDate:    "2026-12-31",
	}, "")
	require.True(t, res.Saved, res.Message)
	return s
}

func toolCallResponse(id, name, args string) *llm.ChatResponse {
	return &llm.ChatResponse{Message: llm.Message{
		Role: "assistant",
		ToolCalls: []llm.ToolCall{
			{ID: id, Name: name, Arguments: json.RawMessage(args)},
		},
	}}
}

func TestChatAnswersWithToolQuote(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse("call-1", "get_best_rate", `{"city": "Goa", "nights": 2, "pax": 2}`),
		{Message: llm.Message{Role: "assistant", Content: "Grand Palace, INR 24600 total, INR 12300 per person."}},
	}}
	svc := NewService(client, "test-model", seededStore(t))

	reply, err := svc.Chat(context.Background(), "", []llm.Message{
		{Role: "user", Content: "Cheapest 2-night stay in Goa for 2 people?"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.ToolCalls)
	assert.Contains(t, reply.Content, "24600")

	// The second request must carry the tool result back to the model.
	require.Len(t, client.requests, 2)
	last := client.requests[1].Messages
	toolMsg := last[len(last)-1]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)

	var quote Quote
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &quote))
	assert.True(t, quote.Found)
	assert.Equal(t, "Grand Palace", quote.Hotel)
	assert.InDelta(t, 24600.0, quote.Total, 0.001)
	assert.InDelta(t, 12300.0, quote.PerPerson, 0.001)
}

func TestChatToolErrorIsStructured(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCallResponse("call-1", "get_best_rate", `{"city": "Atlantis"}`),
		{Message: llm.Message{Role: "assistant", Content: "No tariffs for Atlantis."}},
	}}
	svc := NewService(client, "test-model", seededStore(t))

	reply, err := svc.Chat(context.Background(), "", []llm.Message{
		{Role: "user", Content: "Rates in Atlantis?"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.ToolCalls)

	last := client.requests[1].Messages
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(last[len(last)-1].Content), &payload))
	assert.Equal(t, false, payload["found"])
	assert.Contains(t, payload["error"], "Atlantis")
}

func TestChatRoundLimit(t *testing.T) {
	t.Parallel()
	// A model that never stops calling tools must be cut off.
	var responses []*llm.ChatResponse
	for i := 0; i < maxToolRounds+2; i++ {
		responses = append(responses, toolCallResponse("call", "get_best_rate", `{"city": "Goa"}`))
	}
	svc := NewService(&scriptedClient{responses: responses}, "test-model", seededStore(t))

	_, err := svc.Chat(context.Background(), "", []llm.Message{{Role: "user", Content: "loop"}})
	require.Error(t, err)
}

func TestChatNoClient(t *testing.T) {
	t.Parallel()
	svc := NewService(nil, "", seededStore(t))
	_, err := svc.Chat(context.Background(), "", nil)
	require.Error(t, err)
}

func TestChatPrependsSystemPrompt(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{}
	svc := NewService(client, "test-model", seededStore(t))

	_, err := svc.Chat(context.Background(), "", []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.NotEmpty(t, client.requests)
	assert.Equal(t, "system", client.requests[0].Messages[0].Role)
}

func TestNewQuoteMath(t *testing.T) {
	t.Parallel()
	listing := &model.TariffListing{
		HotelName: "Grand Palace", City: "Goa",
		BaseRate: 10000, TaxPercent: 18, ServiceFee: 1000, Currency: "INR",
	}

	t.Run("two nights two pax", func(t *testing.T) {
		q := NewQuote(listing, 2, 2)
		assert.InDelta(t, 24600.0, q.Total, 0.001)
		assert.InDelta(t, 12300.0, q.PerPerson, 0.001)
	})

	t.Run("zero values clamp to one", func(t *testing.T) {
		q := NewQuote(listing, 0, 0)
		assert.Equal(t, 1, q.Nights)
		assert.Equal(t, 1, q.Pax)
		assert.InDelta(t, 12800.0, q.Total, 0.001)
		assert.InDelta(t, q.Total, q.PerPerson, 0.001)
	})
}
