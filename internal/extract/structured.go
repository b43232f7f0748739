// Package extract turns analyzer output into canonical tariff records via a
// cascade of strategies: trained-model fields, regex heuristics, then an LLM.
package extract

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/analyzer"
	"github.com/tripworks/costing-gpt/internal/model"
)

// hotelTariffDocType marks the trained model output we know how to read.
const hotelTariffDocType = "hoteltariff"

// FromStructured reads a canonical record from a trained-model document in
// the analyzer result. Every present field is accepted as-is, however low its
// confidence. Returns nil when no hotel-tariff document is present or the
// field map is malformed; it never panics past its boundary.
func FromStructured(res *analyzer.Result, now time.Time) (rec *model.TariffRecord) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("extract: structured extractor panic", zap.Any("panic", r))
			rec = nil
		}
	}()

	if res == nil {
		return nil
	}
	doc := findTariffDocument(res.Documents)
	if doc == nil || doc.Fields == nil {
		return nil
	}

	field := func(name string) string {
		return strings.TrimSpace(doc.Fields[name].Content)
	}

	rec = &model.TariffRecord{
		HotelName:   field("hotelName"),
		Vendor:      field("vendor"),
		City:        field("city"),
		Category:    field("category"),
		BaseRate:    parseAmount(field("baseRate")),
		GSTPercent:  parseAmount(field("gstPercent")),
		ServiceFee:  parseAmount(field("serviceFee")),
		MealPlan:    field("mealPlan"),
		Season:      field("season"),
		StartDate:   normalizeDate(field("startDate"), defaultStartDate(now)),
		EndDate:     normalizeDate(field("endDate"), defaultEndDate(now)),
		Description: field("description"),
	}
	return rec
}

func findTariffDocument(docs []analyzer.AnalyzedDocument) *analyzer.AnalyzedDocument {
	for i := range docs {
		if strings.Contains(strings.ToLower(docs[i].DocType), hotelTariffDocType) {
			return &docs[i]
		}
	}
	return nil
}
