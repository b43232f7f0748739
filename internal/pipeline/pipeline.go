// Package pipeline drives a document from upload through analysis,
// extraction, and persistence.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/analyzer"
	"github.com/tripworks/costing-gpt/internal/blob"
	"github.com/tripworks/costing-gpt/internal/extract"
	"github.com/tripworks/costing-gpt/internal/model"
	"github.com/tripworks/costing-gpt/internal/store"
)

// Result reports what processing a single document produced.
type Result struct {
	Document *model.Document     `json:"document"`
	Method   model.Method        `json:"method"`
	Record   *model.TariffRecord `json:"record,omitempty"`
	Save     *store.SaveResult   `json:"save,omitempty"`
}

// Pipeline owns the upload-to-tariff flow for one deployment.
type Pipeline struct {
	store        store.Store
	blobs        blob.Store
	analyzer     analyzer.Analyzer
	orchestrator *extract.Orchestrator
}

func New(st store.Store, blobs blob.Store, az analyzer.Analyzer, orch *extract.Orchestrator) *Pipeline {
	return &Pipeline{
		store:        st,
		blobs:        blobs,
		analyzer:     az,
		orchestrator: orch,
	}
}

// Process stores the raw bytes, records the document, runs analysis and the
// extraction cascade, and persists whatever was extracted. A document no
// method can read ends in the failed state without an error; errors are
// reserved for infrastructure faults.
func (p *Pipeline) Process(ctx context.Context, tenantID, fileName, contentType string, data []byte) (*Result, error) {
	doc := &model.Document{
		TenantID:    tenantID,
		FileName:    fileName,
		ContentType: contentType,
	}
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, eris.Wrap(err, "pipeline: create document")
	}

	storageURL, err := p.blobs.Put(ctx, doc.ID, data, contentType)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("store upload: %s", eris.ToString(err, false)))
		return nil, eris.Wrap(err, "pipeline: store upload")
	}
	doc.StorageURL = storageURL

	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusProcessing, ""); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark processing")
	}
	doc.Status = model.DocumentStatusProcessing

	analyzed, err := p.analyzer.Analyze(ctx, data, contentType)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("analysis: %s", eris.ToString(err, false)))
		return nil, eris.Wrap(err, "pipeline: analyze")
	}

	outcome := p.orchestrator.Extract(ctx, analyzed)
	res := &Result{Document: doc, Method: outcome.Method, Record: outcome.Record}

	if outcome.Record == nil {
		p.fail(ctx, doc, "no extraction method produced a usable record")
		return res, nil
	}

	res.Save = p.save(ctx, tenantID, outcome.Record, doc.ID)

	if err := p.store.SetDocumentText(ctx, doc.ID, analyzed.Content); err != nil {
		zap.L().Warn("pipeline: save raw text", zap.String("document", doc.ID), zap.Error(err))
	}
	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusCompleted, ""); err != nil {
		return res, eris.Wrap(err, "pipeline: mark completed")
	}
	doc.Status = model.DocumentStatusCompleted

	zap.L().Info("pipeline: document processed",
		zap.String("document", doc.ID),
		zap.String("method", string(outcome.Method)),
		zap.Bool("saved", res.Save.Saved),
	)
	return res, nil
}

// save persists the record, retrying once after running migrations. A save
// that fails because the schema was never created heals itself on the first
// document instead of failing the upload.
func (p *Pipeline) save(ctx context.Context, tenantID string, rec *model.TariffRecord, documentID string) *store.SaveResult {
	res := p.store.SaveTariff(ctx, tenantID, rec, documentID)
	if res.Saved {
		return res
	}
	if err := p.store.Migrate(ctx); err != nil {
		zap.L().Error("pipeline: migrate before retry", zap.Error(err))
		return res
	}
	return p.store.SaveTariff(ctx, tenantID, rec, documentID)
}

func (p *Pipeline) fail(ctx context.Context, doc *model.Document, reason string) {
	doc.Status = model.DocumentStatusFailed
	doc.Error = reason
	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusFailed, reason); err != nil {
		zap.L().Error("pipeline: mark failed", zap.String("document", doc.ID), zap.Error(err))
	}
}
