package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripworks/costing-gpt/internal/analyzer"
)

func tariffDoc(fields map[string]analyzer.Field) *analyzer.Result {
	return &analyzer.Result{
		Content:   "raw text",
		Documents: []analyzer.AnalyzedDocument{{DocType: "custom:HotelTariff", Fields: fields}},
	}
}

func TestFromStructuredReadsAllFields(t *testing.T) {
	t.Parallel()

	res := tariffDoc(map[string]analyzer.Field{
		"hotelName":  {Content: "Taj Residency", Confidence: 0.99},
		"vendor":     {Content: "Goa Travels", Confidence: 0.85},
		"city":       {Content: "Mumbai", Confidence: 0.97},
		"category":   {Content: "5 Star", Confidence: 0.92},
		"baseRate":   {Content: "12500", Confidence: 0.95},
		"gstPercent": {Content: "18", Confidence: 0.96},
		"serviceFee": {Content: "750", Confidence: 0.80},
		"mealPlan":   {Content: "Breakfast", Confidence: 0.90},
		"season":     {Content: "Peak", Confidence: 0.84},
		"startDate":  {Content: "2026-10-01", Confidence: 0.93},
		"endDate":    {Content: "2026-12-31", Confidence: 0.93},
	})

	rec := FromStructured(res, testNow)
	require.NotNil(t, rec)
	assert.Equal(t, "Taj Residency", rec.HotelName)
	assert.Equal(t, "Mumbai", rec.City)
	assert.Equal(t, 12500.0, rec.BaseRate)
	assert.Equal(t, 18.0, rec.GSTPercent)
	assert.Equal(t, 750.0, rec.ServiceFee)
	assert.Equal(t, "Breakfast", rec.MealPlan)
	assert.Equal(t, "2026-10-01", rec.StartDate)
	assert.Equal(t, "2026-12-31", rec.EndDate)
}

func TestFromStructuredLowConfidenceStillAccepted(t *testing.T) {
	t.Parallel()

	// Fields are taken as-is regardless of confidence.
	res := tariffDoc(map[string]analyzer.Field{
		"hotelName": {Content: "Shaky Scan Inn", Confidence: 0.11},
		"baseRate":  {Content: "Rs. 3,000", Confidence: 0.05},
	})

	rec := FromStructured(res, testNow)
	require.NotNil(t, rec)
	assert.Equal(t, "Shaky Scan Inn", rec.HotelName)
	assert.Equal(t, 3000.0, rec.BaseRate)
}

func TestFromStructuredDateDefaults(t *testing.T) {
	t.Parallel()

	res := tariffDoc(map[string]analyzer.Field{
		"hotelName": {Content: "Grand Plaza"},
		"startDate": {Content: "Oct 1st"},
	})

	rec := FromStructured(res, testNow)
	require.NotNil(t, rec)
	assert.Equal(t, "2026-03-15", rec.StartDate)
	assert.Equal(t, "2026-04-14", rec.EndDate)
}

func TestFromStructuredNoTariffDocument(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FromStructured(nil, testNow))
	assert.Nil(t, FromStructured(&analyzer.Result{Content: "text only"}, testNow))
	assert.Nil(t, FromStructured(&analyzer.Result{
		Documents: []analyzer.AnalyzedDocument{{DocType: "custom:Invoice", Fields: map[string]analyzer.Field{}}},
	}, testNow))
}

func TestFromStructuredDocTypeMatchIsLoose(t *testing.T) {
	t.Parallel()

	for _, docType := range []string{"HotelTariff", "custom:hoteltariff-v2", "prebuilt-HOTELTARIFF"} {
		res := &analyzer.Result{Documents: []analyzer.AnalyzedDocument{{
			DocType: docType,
			Fields:  map[string]analyzer.Field{"hotelName": {Content: "Match Inn"}},
		}}}
		rec := FromStructured(res, testNow)
		require.NotNil(t, rec, docType)
		assert.Equal(t, "Match Inn", rec.HotelName)
	}
}

func TestFromStructuredNilFieldMap(t *testing.T) {
	t.Parallel()

	res := &analyzer.Result{Documents: []analyzer.AnalyzedDocument{{DocType: "custom:HotelTariff"}}}
	assert.Nil(t, FromStructured(res, testNow))
}
