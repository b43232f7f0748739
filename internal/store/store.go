// Package store owns all writes to the tariff schema. The reconciler maps
// canonical records onto normalized dimension and fact rows with
// get-or-create semantics, plus a legacy flat mirror kept for older readers.
package store

import (
	"context"

	"github.com/tripworks/costing-gpt/internal/model"
)

// DefaultTenant scopes rows when the caller supplies no tenant.
const DefaultTenant = "default"

// Dimension and rate-plan defaults applied when source data is silent.
const (
	DefaultRoomType     = "Standard Room"
	DefaultMealPlan     = "Room Only"
	DefaultSeason       = "Regular"
	DefaultCurrency     = "INR"
	DefaultPropertyType = "hotel"
)

// SaveResult reports the outcome of a reconcile. The reconciler never raises
// past its own boundary: persistence failures come back as Saved=false with
// the underlying error in Message, so extraction value survives storage
// trouble.
type SaveResult struct {
	Saved       bool   `json:"saved"`
	Created     bool   `json:"created"` // false means the fact row was updated in place
	TariffID    string `json:"tariff_id,omitempty"`
	LegacySaved bool   `json:"legacy_saved"`
	Message     string `json:"message"`
}

// TariffFilter narrows tariff listings.
type TariffFilter struct {
	TenantID string
	City     string // case-insensitive partial match
	Limit    int
}

// Store defines the persistence interface for the costing pipeline.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) error
	UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus, errMsg string) error
	SetDocumentText(ctx context.Context, id, text string) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)

	// Reconciler
	SaveTariff(ctx context.Context, tenantID string, rec *model.TariffRecord, documentID string) *SaveResult

	// Queries
	GetTariff(ctx context.Context, id string) (*model.Tariff, error)
	ListTariffs(ctx context.Context, filter TariffFilter) ([]model.TariffListing, error)
	BestRate(ctx context.Context, tenantID, city string) (*model.TariffListing, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
