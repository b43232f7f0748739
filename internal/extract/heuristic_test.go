package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripworks/costing-gpt/internal/model"
)

func TestFromTextCapturesLabeledFields(t *testing.T) {
	t.Parallel()

	rec := FromText("Hotel: Grand Plaza, City: Pune, Rate: Rs. 5,000", testNow)
	require.NotNil(t, rec)
	assert.Equal(t, "Grand Plaza", rec.HotelName)
	assert.Equal(t, "Pune", rec.City)
	assert.Equal(t, 5000.0, rec.BaseRate)
	assert.Equal(t, "2026-03-15", rec.StartDate)
	assert.Equal(t, "2026-04-14", rec.EndDate)
	assert.True(t, PassesGate(rec))
}

func TestFromTextMultiline(t *testing.T) {
	t.Parallel()

	text := `Hotel Name: Sea View Resort
Location: Kovalam
Category: 4-star
Vendor: Kerala Holidays
Tariff: INR 9,999.50
GST: 12%
Meal Plan: Breakfast & Dinner
Season: Monsoon`

	rec := FromText(text, testNow)
	assert.Equal(t, "Sea View Resort", rec.HotelName)
	assert.Equal(t, "Kovalam", rec.City)
	assert.Equal(t, "4-star", rec.Category)
	assert.Equal(t, "Kerala Holidays", rec.Vendor)
	assert.Equal(t, 9999.50, rec.BaseRate)
	assert.Equal(t, 12.0, rec.GSTPercent)
	assert.Equal(t, "Breakfast & Dinner", rec.MealPlan)
	assert.Equal(t, "Monsoon", rec.Season)
}

func TestFromTextNoMatches(t *testing.T) {
	t.Parallel()

	rec := FromText("completely unrelated text about the weather", testNow)
	require.NotNil(t, rec)
	assert.Empty(t, rec.HotelName)
	assert.Zero(t, rec.BaseRate)
	assert.False(t, PassesGate(rec))
}

func TestPassesGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  *model.TariffRecord
		want bool
	}{
		{"nil record", nil, false},
		{"empty record", &model.TariffRecord{}, false},
		{"hotel only", &model.TariffRecord{HotelName: "X"}, false},
		{"hotel and city", &model.TariffRecord{HotelName: "X", City: "Goa"}, true},
		{"hotel and rate", &model.TariffRecord{HotelName: "X", BaseRate: 100}, true},
		{"city and rate but no hotel", &model.TariffRecord{City: "Goa", BaseRate: 100}, false},
		{"zero rate does not count", &model.TariffRecord{HotelName: "X", BaseRate: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PassesGate(tt.rec))
		})
	}
}
