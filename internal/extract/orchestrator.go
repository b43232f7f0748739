package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/analyzer"
	"github.com/tripworks/costing-gpt/internal/metrics"
	"github.com/tripworks/costing-gpt/internal/model"
)

// Orchestrator runs the extraction cascade: trained-model fields, regex
// heuristics, then the LLM. Each method is attempted at most once, in order,
// and the first accepted record wins. Acceptance differs per method:
// structured succeeds whenever the tariff document type is present, regex
// only under the completeness gate, the LLM whenever it names a hotel.
type Orchestrator struct {
	llm       *LLMExtractor
	collector *metrics.Collector
	now       func() time.Time
}

// NewOrchestrator creates an Orchestrator. The collector may be nil.
func NewOrchestrator(llmExtractor *LLMExtractor, collector *metrics.Collector) *Orchestrator {
	return &Orchestrator{
		llm:       llmExtractor,
		collector: collector,
		now:       time.Now,
	}
}

// Extract resolves an analyzer result to a canonical record and the method
// that produced it. All three methods failing is an expected outcome for
// unrecognized documents, reported as MethodNone with a nil record — not an
// error.
func (o *Orchestrator) Extract(ctx context.Context, res *analyzer.Result) model.Outcome {
	now := o.now().UTC()

	o.attempt(model.MethodStructured)
	if rec := FromStructured(res, now); rec != nil {
		zap.L().Info("extract: structured model accepted",
			zap.String("hotel", rec.HotelName),
		)
		return o.done(model.Outcome{Record: rec, Method: model.MethodStructured})
	}

	content := ""
	if res != nil {
		content = res.Content
	}

	o.attempt(model.MethodRegex)
	if rec := FromText(content, now); PassesGate(rec) {
		zap.L().Info("extract: regex heuristics accepted",
			zap.String("hotel", rec.HotelName),
		)
		return o.done(model.Outcome{Record: rec, Method: model.MethodRegex})
	}

	o.attempt(model.MethodLLM)
	if rec := o.llm.Extract(ctx, content, now); rec != nil && rec.HotelName != "" {
		zap.L().Info("extract: llm accepted",
			zap.String("hotel", rec.HotelName),
		)
		return o.done(model.Outcome{Record: rec, Method: model.MethodLLM})
	}

	zap.L().Info("extract: all methods exhausted")
	return o.done(model.Outcome{Method: model.MethodNone})
}

func (o *Orchestrator) attempt(m model.Method) {
	if o.collector != nil {
		o.collector.RecordAttempt(m)
	}
}

func (o *Orchestrator) done(out model.Outcome) model.Outcome {
	if o.collector != nil {
		o.collector.RecordOutcome(out.Method)
	}
	return out
}
