package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tripworks/costing-gpt/internal/model"
	"github.com/tripworks/costing-gpt/pkg/llm"
)

// maxLLMInputChars bounds prompt cost and latency; rate sheets rarely carry
// tariff lines past the first few thousand characters.
const maxLLMInputChars = 4000

const extractionSystemText = "You are a data-entry assistant for a travel costing team. " +
	"You read hotel rate sheets and reply with exactly one JSON object, no prose, no markdown."

const extractionPromptTemplate = `Extract the hotel tariff from the following rate-sheet text.
Reply with exactly one JSON object with exactly these keys:
{"hotelName": string, "vendor": string, "city": string, "category": string, "baseRate": number, "gstPercent": number, "serviceFee": number, "mealPlan": string, "season": string, "startDate": "YYYY-MM-DD", "endDate": "YYYY-MM-DD", "description": string}
Use "" or 0 for anything the text does not state.

Rate-sheet text:
%s`

// LLMExtractor asks a chat model to read the document text as a last resort.
type LLMExtractor struct {
	client  llm.Client
	model   string
	limiter *rate.Limiter
}

// NewLLMExtractor creates an LLMExtractor. A nil limiter disables rate
// limiting.
func NewLLMExtractor(client llm.Client, modelName string, limiter *rate.Limiter) *LLMExtractor {
	return &LLMExtractor{client: client, model: modelName, limiter: limiter}
}

// Extract sends truncated document text to the model and normalizes its JSON
// reply into a canonical record. All model, network and parse failures are
// logged and surfaced as a nil record; there is no retry.
func (e *LLMExtractor) Extract(ctx context.Context, text string, now time.Time) *model.TariffRecord {
	if e == nil || e.client == nil {
		return nil
	}
	if len(text) > maxLLMInputChars {
		cut := maxLLMInputChars
		// Back off to a rune boundary so the tail is never a split rune.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			zap.L().Warn("extract: llm rate limiter", zap.Error(err))
			return nil
		}
	}

	temp := 0.0
	resp, err := e.client.CreateChatCompletion(ctx, llm.ChatRequest{
		Model:       e.model,
		MaxTokens:   512,
		Temperature: &temp,
		Messages: []llm.Message{
			{Role: "system", Content: extractionSystemText},
			{Role: "user", Content: fmt.Sprintf(extractionPromptTemplate, text)},
		},
	})
	if err != nil {
		zap.L().Warn("extract: llm call failed", zap.Error(err))
		return nil
	}

	rec := parseLLMReply(resp.Message.Content, now)
	if rec == nil {
		zap.L().Warn("extract: llm reply unparsable",
			zap.Int("reply_len", len(resp.Message.Content)),
		)
	}
	return rec
}

// parseLLMReply decodes the model's JSON object and applies the field
// normalization rules: meal-plan maps collapse to a comma list, dates must be
// strict YYYY-MM-DD, numerics fall back to zero.
func parseLLMReply(reply string, now time.Time) *model.TariffRecord {
	cleaned := cleanJSON(reply)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil
	}

	rec := &model.TariffRecord{
		HotelName:   stringField(fields["hotelName"]),
		Vendor:      stringField(fields["vendor"]),
		City:        stringField(fields["city"]),
		Category:    stringField(fields["category"]),
		BaseRate:    numberField(fields["baseRate"]),
		GSTPercent:  numberField(fields["gstPercent"]),
		ServiceFee:  numberField(fields["serviceFee"]),
		MealPlan:    flattenMealPlan(fields["mealPlan"]),
		Season:      stringField(fields["season"]),
		StartDate:   normalizeDate(stringField(fields["startDate"]), defaultStartDate(now)),
		EndDate:     normalizeDate(stringField(fields["endDate"]), defaultEndDate(now)),
		Description: stringField(fields["description"]),
	}
	return rec
}
