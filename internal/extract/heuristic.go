package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/tripworks/costing-gpt/internal/model"
)

// Field patterns are applied independently over the raw OCR text: a label
// word, an optional colon or dash, then the trailing token run up to the next
// comma or line break. Free-form layouts defeat these often, which is why the
// orchestrator gates acceptance on minimum completeness.
var (
	hotelNamePattern = regexp.MustCompile(`(?i)hotel(?:\s+name)?\s*[:\-]\s*([^,\n]+)`)
	cityPattern      = regexp.MustCompile(`(?i)(?:city|location)\s*[:\-]\s*([^,\n]+)`)
	categoryPattern  = regexp.MustCompile(`(?i)category\s*[:\-]\s*([^,\n]+)`)
	baseRatePattern  = regexp.MustCompile(`(?i)(?:rate|price|tariff)\s*[:\-]?\s*(?:rs\.?|inr|₹|\$)?\s*([\d,]+(?:\.\d+)?)`)
	gstPattern       = regexp.MustCompile(`(?i)gst\s*(?:%|percent)?\s*[:\-]?\s*([\d.]+)`)
	vendorPattern    = regexp.MustCompile(`(?i)vendor\s*[:\-]\s*([^,\n]+)`)
	mealPlanPattern  = regexp.MustCompile(`(?i)meal\s*plan\s*[:\-]\s*([^,\n]+)`)
	seasonPattern    = regexp.MustCompile(`(?i)season\s*[:\-]\s*([^,\n]+)`)
)

// FromText populates a canonical record by pattern-matching raw extracted
// text. Missing fields default to empty string or zero; dates default to
// today and today plus thirty days.
func FromText(text string, now time.Time) *model.TariffRecord {
	capture := func(p *regexp.Regexp) string {
		m := p.FindStringSubmatch(text)
		if len(m) < 2 {
			return ""
		}
		return strings.TrimSpace(m[1])
	}

	return &model.TariffRecord{
		HotelName:  capture(hotelNamePattern),
		City:       capture(cityPattern),
		Category:   capture(categoryPattern),
		BaseRate:   parseAmount(capture(baseRatePattern)),
		GSTPercent: parseAmount(capture(gstPattern)),
		Vendor:     capture(vendorPattern),
		MealPlan:   capture(mealPlanPattern),
		Season:     capture(seasonPattern),
		StartDate:  defaultStartDate(now),
		EndDate:    defaultEndDate(now),
	}
}

// PassesGate reports whether a heuristic record is complete enough to
// persist: a hotel name plus either a city or a positive base rate.
func PassesGate(rec *model.TariffRecord) bool {
	if rec == nil || rec.HotelName == "" {
		return false
	}
	return rec.City != "" || rec.BaseRate > 0
}
