package model

// Method identifies which extraction strategy produced a tariff record.
type Method string

const (
	MethodStructured Method = "structured_model"
	MethodRegex      Method = "regex"
	MethodLLM        Method = "llm"
	MethodNone       Method = "none"
)

// TariffRecord is the canonical, scalar-only representation every extraction
// method must produce. It is built fresh per document and consumed exactly
// once by persistence.
type TariffRecord struct {
	HotelName   string  `json:"hotelName"`
	Vendor      string  `json:"vendor"`
	City        string  `json:"city"`
	Category    string  `json:"category"`
	BaseRate    float64 `json:"baseRate"`
	GSTPercent  float64 `json:"gstPercent"`
	ServiceFee  float64 `json:"serviceFee"`
	MealPlan    string  `json:"mealPlan"`
	Season      string  `json:"season"`
	StartDate   string  `json:"startDate"` // YYYY-MM-DD
	EndDate     string  `json:"endDate"`   // YYYY-MM-DD
	Description string  `json:"description,omitempty"`
}

// Outcome pairs an extraction result with the method that produced it.
// A nil Record with MethodNone is the defined terminal state for documents
// no method could read; callers must not treat it as an error.
type Outcome struct {
	Record *TariffRecord `json:"record,omitempty"`
	Method Method        `json:"method"`
}

// Tariff is the persisted fact row, identified by the five-dimension
// composite key (property, vendor, room type, rate plan, season).
type Tariff struct {
	ID         string  `json:"id"`
	PropertyID string  `json:"property_id"`
	VendorID   string  `json:"vendor_id"`
	RoomTypeID string  `json:"room_type_id"`
	RatePlanID string  `json:"rate_plan_id"`
	SeasonID   string  `json:"season_id"`
	BaseRate   float64 `json:"base_rate"`
	TaxPercent float64 `json:"tax_percent"`
	ServiceFee float64 `json:"service_fee"`
	Currency   string  `json:"currency"`
}

// TariffListing is a denormalized view of a tariff joined with its
// dimensions, as returned by listing and best-rate queries.
type TariffListing struct {
	TariffID   string  `json:"tariff_id"`
	HotelName  string  `json:"hotel_name"`
	City       string  `json:"city"`
	Category   string  `json:"category"`
	Vendor     string  `json:"vendor"`
	RoomType   string  `json:"room_type"`
	RatePlan   string  `json:"rate_plan"`
	Season     string  `json:"season"`
	BaseRate   float64 `json:"base_rate"`
	TaxPercent float64 `json:"tax_percent"`
	ServiceFee float64 `json:"service_fee"`
	Currency   string  `json:"currency"`
}
