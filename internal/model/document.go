package model

import "time"

// DocumentStatus tracks a document through the processing pipeline.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document records one uploaded rate-sheet artifact.
type Document struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	FileName    string         `json:"file_name"`
	ContentType string         `json:"content_type"`
	StorageURL  string         `json:"storage_url"`
	Status      DocumentStatus `json:"status"`
	RawText     string         `json:"raw_text,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SupportedContentTypes enumerates the media types the upload boundary
// accepts. Anything else is rejected with a 400-class error.
var SupportedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}
