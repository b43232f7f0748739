package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// isoDatePattern is the strict calendar-date shape accepted from any
// extraction method; anything else reverts to the defaults.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// numberCleaner strips thousands separators and currency markers before
// numeric parsing ("Rs. 5,000" -> "5000").
var numberCleaner = regexp.MustCompile(`(?i)(rs\.?|inr|₹|\$|,|\s)`)

// defaultStartDate is today's date; tariffs with no stated validity are
// assumed to start immediately.
func defaultStartDate(now time.Time) string {
	return now.Format(dateLayout)
}

// defaultEndDate is thirty days after the start default.
func defaultEndDate(now time.Time) string {
	return now.AddDate(0, 0, 30).Format(dateLayout)
}

// normalizeDate returns s when it is a strict YYYY-MM-DD date, otherwise the
// given fallback.
func normalizeDate(s, fallback string) string {
	s = strings.TrimSpace(s)
	if !isoDatePattern.MatchString(s) {
		return fallback
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fallback
	}
	return s
}

// parseAmount parses a numeric field from free text, stripping separators and
// currency symbols. Unparsable input yields zero.
func parseAmount(s string) float64 {
	cleaned := numberCleaner.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return n
}

// flattenMealPlan collapses any meal-plan representation the model returns
// into a single descriptive string. A JSON object of meal-name booleans
// becomes the comma-joined list of true-valued keys in their original order;
// a JSON string passes through; anything else becomes empty.
func flattenMealPlan(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}

	if !strings.HasPrefix(trimmed, "{") {
		return ""
	}

	// Walk the object with a token decoder so key order is preserved;
	// unmarshalling into a map would lose it.
	dec := json.NewDecoder(strings.NewReader(trimmed))
	if _, err := dec.Token(); err != nil { // consume '{'
		return ""
	}
	var enabled []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return strings.Join(enabled, ", ")
		}
		key, ok := keyTok.(string)
		if !ok {
			return strings.Join(enabled, ", ")
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return strings.Join(enabled, ", ")
		}
		if b, ok := val.(bool); ok && b {
			enabled = append(enabled, key)
		}
	}
	return strings.Join(enabled, ", ")
}

// cleanJSON strips markdown fences and leading/trailing prose around the
// first JSON object in a model reply.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// stringField decodes a JSON value that may be a string, number or bool into
// its text form. Nested structures yield empty — the canonical record is
// scalar-only.
func stringField(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// numberField decodes a JSON value that may be a number or a formatted
// string into a float64, with zero fallback.
func numberField(raw json.RawMessage) float64 {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseAmount(s)
	}
	return 0
}
