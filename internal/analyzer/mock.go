package analyzer

import (
	"context"

	"go.uber.org/zap"
)

// MockAnalyzer returns a fixed fixture payload. It stands in for the real
// service when no endpoint is configured; downstream code must treat its
// output as the analyzer contract like any other.
type MockAnalyzer struct{}

// NewMock creates a MockAnalyzer.
func NewMock() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze ignores the input and returns the canned hotel-tariff fixture.
func (m *MockAnalyzer) Analyze(ctx context.Context, content []byte, contentType string) (*Result, error) {
	zap.L().Warn("analyzer: unconfigured, returning mock fixture",
		zap.String("content_type", contentType),
		zap.Int("size", len(content)),
	)
	return &Result{
		Content: "Hotel: Sunrise Residency\nCity: Goa\nCategory: 4 Star\n" +
			"Vendor: Coastal Travels\nRate: Rs. 7,500 per night\nGST: 18%\n" +
			"Meal Plan: Breakfast\nSeason: Peak",
		Documents: []AnalyzedDocument{
			{
				DocType: "custom:HotelTariff",
				Fields: map[string]Field{
					"hotelName":  {Content: "Sunrise Residency", Confidence: 0.98},
					"city":       {Content: "Goa", Confidence: 0.97},
					"category":   {Content: "4 Star", Confidence: 0.91},
					"vendor":     {Content: "Coastal Travels", Confidence: 0.88},
					"baseRate":   {Content: "7500", Confidence: 0.95},
					"gstPercent": {Content: "18", Confidence: 0.96},
					"serviceFee": {Content: "500", Confidence: 0.74},
					"mealPlan":   {Content: "Breakfast", Confidence: 0.89},
					"season":     {Content: "Peak", Confidence: 0.82},
				},
			},
		},
	}, nil
}
