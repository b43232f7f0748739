package llm

import (
	"context"
	"encoding/json"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultAnthropicMaxTokens = 1024

// anthropicClient implements Client using the official anthropic-sdk-go.
type anthropicClient struct {
	client sdk.Client
}

// NewAnthropic creates a Client backed by the Anthropic Messages API.
func NewAnthropic(apiKey string) Client {
	return &anthropicClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (c *anthropicClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(maxTokens),
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	// System-role messages become the system prompt; the rest map onto
	// user/assistant turns with tool_use and tool_result blocks.
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.System = append(params.System, sdk.TextBlockParam{Text: m.Content})
		case "assistant":
			var blocks []sdk.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any
				if len(tc.Arguments) > 0 {
					if err := json.Unmarshal(tc.Arguments, &input); err != nil {
						return nil, eris.Wrapf(err, "llm: anthropic: tool call %s arguments", tc.Name)
					}
				}
				blocks = append(blocks, sdk.ContentBlockParamUnion{
					OfToolUse: &sdk.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: input,
					},
				})
			}
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(blocks...))
		case "tool":
			params.Messages = append(params.Messages,
				sdk.NewUserMessage(sdk.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		default:
			params.Messages = append(params.Messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}

	for _, t := range req.Tools {
		toolParam, err := toAnthropicTool(t)
		if err != nil {
			return nil, err
		}
		params.Tools = append(params.Tools, toolParam)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "llm: anthropic: create message")
	}

	return fromAnthropicMessage(msg), nil
}

// toAnthropicTool converts our JSON-Schema tool definition into the SDK's
// input-schema shape (properties and required pulled out of the schema).
func toAnthropicTool(t Tool) (sdk.ToolUnionParam, error) {
	var schema struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if len(t.Parameters) > 0 {
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			return sdk.ToolUnionParam{}, eris.Wrapf(err, "llm: anthropic: tool %s schema", t.Name)
		}
	}
	return sdk.ToolUnionParam{
		OfTool: &sdk.ToolParam{
			Name:        t.Name,
			Description: sdk.String(t.Description),
			InputSchema: sdk.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		},
	}, nil
}

func fromAnthropicMessage(msg *sdk.Message) *ChatResponse {
	out := Message{Role: "assistant"}
	for _, b := range msg.Content {
		switch b.Type {
		case "text":
			out.Content += b.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: json.RawMessage(b.Input),
			})
		}
	}
	return &ChatResponse{
		Message: out,
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}
