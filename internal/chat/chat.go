// Package chat answers travel costing questions by letting a model call
// tools against the tariff store.
package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/store"
	"github.com/tripworks/costing-gpt/pkg/llm"
)

// maxToolRounds bounds the model-tool loop so a model that keeps asking for
// tools cannot spin forever.
const maxToolRounds = 4

const systemPrompt = `You are a travel costing assistant. You help travel agents price
hotel stays using the tariff database. Use the get_best_rate tool to look up
rates; never invent prices. Quote amounts in the tariff's currency and show
the per-person cost when the party size is known.`

// Reply is the assistant's final answer plus accounting for the exchange.
type Reply struct {
	Content   string         `json:"content"`
	ToolCalls int            `json:"tool_calls"`
	Usage     llm.TokenUsage `json:"usage"`
}

// Service runs chat completions with tool access to the store.
type Service struct {
	client llm.Client
	model  string
	store  store.Store
}

func NewService(client llm.Client, model string, st store.Store) *Service {
	return &Service{client: client, model: model, store: st}
}

// Chat runs the conversation until the model stops requesting tools or the
// round limit is hit. The caller's history arrives without the system prompt;
// it is prepended here so every turn shares one persona.
func (s *Service) Chat(ctx context.Context, tenantID string, history []llm.Message) (*Reply, error) {
	if s.client == nil {
		return nil, eris.New("chat: no model client configured")
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)

	reply := &Reply{}
	for round := 0; round <= maxToolRounds; round++ {
		resp, err := s.client.CreateChatCompletion(ctx, llm.ChatRequest{
			Model:    s.model,
			Messages: messages,
			Tools:    []llm.Tool{bestRateTool()},
		})
		if err != nil {
			return nil, eris.Wrap(err, "chat: completion")
		}
		reply.Usage.Add(resp.Usage)

		if len(resp.Message.ToolCalls) == 0 {
			reply.Content = resp.Message.Content
			return reply, nil
		}

		messages = append(messages, resp.Message)
		for _, call := range resp.Message.ToolCalls {
			reply.ToolCalls++
			result := s.runTool(ctx, tenantID, call)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}
	return nil, eris.Errorf("chat: tool loop exceeded %d rounds", maxToolRounds)
}

// runTool dispatches a tool call and always returns a JSON payload the model
// can read. Lookup failures become {found:false,...} so the model can tell
// the user instead of the turn erroring out.
func (s *Service) runTool(ctx context.Context, tenantID string, call llm.ToolCall) string {
	switch call.Name {
	case bestRateToolName:
		return s.runBestRate(ctx, tenantID, call.Arguments)
	default:
		zap.L().Warn("chat: unknown tool requested", zap.String("tool", call.Name))
		return fmt.Sprintf(`{"error": "unknown tool: %s"}`, call.Name)
	}
}

func (s *Service) runBestRate(ctx context.Context, tenantID string, args json.RawMessage) string {
	var req bestRateArgs
	if err := json.Unmarshal(args, &req); err != nil {
		return toolError(fmt.Sprintf("invalid arguments: %s", err))
	}
	if req.City == "" {
		return toolError("city is required")
	}

	listing, err := s.store.BestRate(ctx, tenantID, req.City)
	if err != nil {
		zap.L().Error("chat: best rate lookup", zap.String("city", req.City), zap.Error(err))
		return toolError("rate lookup failed")
	}
	if listing == nil {
		return toolError(fmt.Sprintf("no tariffs found for %s", req.City))
	}

	quote := NewQuote(listing, req.Nights, req.Pax)
	payload, err := json.Marshal(quote)
	if err != nil {
		return toolError("could not encode quote")
	}
	return string(payload)
}

func toolError(msg string) string {
	payload, _ := json.Marshal(map[string]any{"found": false, "error": msg})
	return string(payload)
}
