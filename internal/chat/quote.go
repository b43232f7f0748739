package chat

import (
	"encoding/json"

	"github.com/tripworks/costing-gpt/internal/model"
	"github.com/tripworks/costing-gpt/pkg/llm"
)

const bestRateToolName = "get_best_rate"

type bestRateArgs struct {
	City   string `json:"city"`
	Nights int    `json:"nights"`
	Pax    int    `json:"pax"`
}

func bestRateTool() llm.Tool {
	return llm.Tool{
		Name: bestRateToolName,
		Description: "Find the cheapest available hotel tariff for a city and " +
			"compute the total cost of a stay. Returns the hotel, its nightly " +
			"rate, and the tax-inclusive total.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"city": {"type": "string", "description": "Destination city, partial names match"},
				"nights": {"type": "integer", "description": "Number of nights, defaults to 1"},
				"pax": {"type": "integer", "description": "Number of travellers, defaults to 1"}
			},
			"required": ["city"]
		}`),
	}
}

// Quote is the tool payload returned to the model for a best-rate lookup.
type Quote struct {
	Found      bool    `json:"found"`
	Hotel      string  `json:"hotel"`
	City       string  `json:"city"`
	Category   string  `json:"category,omitempty"`
	RatePlan   string  `json:"ratePlan,omitempty"`
	Season     string  `json:"season,omitempty"`
	BaseRate   float64 `json:"baseRate"`
	TaxPercent float64 `json:"taxPercent"`
	ServiceFee float64 `json:"serviceFee"`
	Nights     int     `json:"nights"`
	Pax        int     `json:"pax"`
	Total      float64 `json:"totalCost"`
	PerPerson  float64 `json:"perPersonCost"`
	Currency   string  `json:"currency"`
}

// NewQuote prices a stay against a tariff. The service fee is charged once
// per stay, not per night, and tax applies to the room charge only.
func NewQuote(l *model.TariffListing, nights, pax int) Quote {
	if nights < 1 {
		nights = 1
	}
	if pax < 1 {
		pax = 1
	}
	total := l.BaseRate*float64(nights)*(1+l.TaxPercent/100) + l.ServiceFee
	return Quote{
		Found:      true,
		Hotel:      l.HotelName,
		City:       l.City,
		Category:   l.Category,
		RatePlan:   l.RatePlan,
		Season:     l.Season,
		BaseRate:   l.BaseRate,
		TaxPercent: l.TaxPercent,
		ServiceFee: l.ServiceFee,
		Nights:     nights,
		Pax:        pax,
		Total:      total,
		PerPerson:  total / float64(pax),
		Currency:   l.Currency,
	}
}
