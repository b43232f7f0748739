package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tripworks/costing-gpt/internal/analyzer"
	"github.com/tripworks/costing-gpt/internal/blob"
	"github.com/tripworks/costing-gpt/internal/chat"
	"github.com/tripworks/costing-gpt/internal/extract"
	"github.com/tripworks/costing-gpt/internal/metrics"
	"github.com/tripworks/costing-gpt/internal/pipeline"
	"github.com/tripworks/costing-gpt/internal/store"
	"github.com/tripworks/costing-gpt/pkg/llm"
)

// appEnv holds the initialized store, clients, and pipeline shared by the
// serve/process/import commands.
type appEnv struct {
	Store     store.Store
	Pipeline  *pipeline.Pipeline
	Chat      *chat.Service
	Collector *metrics.Collector
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "costing.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initLLM() llm.Client {
	if cfg.LLM.Key == "" {
		zap.L().Warn("no model key configured, LLM extraction fallback and chat disabled")
		return nil
	}
	switch cfg.LLM.Provider {
	case "anthropic":
		return llm.NewAnthropic(cfg.LLM.Key)
	case "azure":
		return llm.NewAzureOpenAI(cfg.LLM.Key, cfg.LLM.Endpoint)
	default:
		return llm.NewOpenAI(cfg.LLM.Key)
	}
}

// initEnv sets up the store, blob storage, analyzer, extraction cascade, and
// chat service for a given mode. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	az := analyzer.New(analyzer.Config{
		Endpoint: cfg.Analyzer.Endpoint,
		Key:      cfg.Analyzer.Key,
		ModelID:  cfg.Analyzer.ModelID,
	})

	client := initLLM()
	var extractor *extract.LLMExtractor
	if client != nil && cfg.Extract.LLMFallback {
		limiter := rate.NewLimiter(rate.Limit(cfg.LLM.RatePerSecond), 1)
		extractor = extract.NewLLMExtractor(client, cfg.LLM.Model, limiter)
	}

	collector := metrics.NewCollector()
	orch := extract.NewOrchestrator(extractor, collector)

	chatModel := cfg.Chat.Model
	if chatModel == "" {
		chatModel = cfg.LLM.Model
	}

	return &appEnv{
		Store:     st,
		Pipeline:  pipeline.New(st, blobs, az, orch),
		Chat:      chat.NewService(client, chatModel, st),
		Collector: collector,
	}, nil
}
