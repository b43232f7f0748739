package llm

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// openaiClient implements Client using sashabaranov/go-openai. It speaks to
// both the public OpenAI endpoint and Azure OpenAI deployments.
type openaiClient struct {
	client *openai.Client
}

// NewOpenAI creates a Client backed by the OpenAI API.
func NewOpenAI(apiKey string) Client {
	return &openaiClient{client: openai.NewClient(apiKey)}
}

// NewAzureOpenAI creates a Client backed by an Azure OpenAI deployment.
func NewAzureOpenAI(apiKey, endpoint string) Client {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	return &openaiClient{client: openai.NewClientWithConfig(cfg)}
}

func (c *openaiClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	oaReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		oaReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		oaReq.Temperature = float32(*req.Temperature)
	}
	for _, t := range req.Tools {
		var params any
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &params); err != nil {
				return nil, eris.Wrapf(err, "llm: openai: tool %s parameters", t.Name)
			}
		}
		oaReq.Tools = append(oaReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, oaReq)
	if err != nil {
		return nil, eris.Wrap(err, "llm: openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("llm: openai: empty choices")
	}

	return &ChatResponse{
		Message: fromOpenAIMessage(resp.Choices[0].Message),
		Usage: TokenUsage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		oa := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			oa.ToolCalls = append(oa.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out[i] = oa
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) Message {
	msg := Message{
		Role:    m.Role,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return msg
}
