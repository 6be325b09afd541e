package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nairobi-rag/config"
	"nairobi-rag/llm"
	"nairobi-rag/llm/providers"
	"nairobi-rag/llm/vector"
	"nairobi-rag/logger"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"
)

// Options tunes a Service.
type Options struct {
	TopK        int
	Temperature float32
	// Per query; zero means no limit
	Timeout   time.Duration
	BatchSize int
}

// Service answers questions from a loaded vector index. It is immutable
// after New and safe for concurrent use.
type Service struct {
	store     vector.VectorStore
	retriever *Retriever
	generator *Generator
	stats     llm.IndexStats
	timeout   time.Duration
}

// New wires a service around an opened index.
func New(ctx context.Context, store vector.VectorStore, embedder embedding.Embedder, chatModel model.BaseChatModel, opts Options) (*Service, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read index stats: %w", err)
	}
	return newService(ctx, store, stats, embedder, chatModel, opts)
}

func newService(ctx context.Context, store vector.VectorStore, stats llm.IndexStats, embedder embedding.Embedder, chatModel model.BaseChatModel, opts Options) (*Service, error) {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}

	generator, err := NewGenerator(ctx, chatModel, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	return &Service{
		store:     store,
		retriever: NewRetriever(vector.NewEmbeddingService(embedder, opts.BatchSize), store, opts.TopK),
		generator: generator,
		stats:     stats,
		timeout:   opts.Timeout,
	}, nil
}

// Load builds the models from cfg and opens the persisted index. Missing
// credentials come back as *config.MissingCredentialError and index
// problems as *vector.IndexLoadError; both are fatal to the caller.
func Load(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.FromContext(ctx)

	chatModel, err := providers.NewChatModel(ctx, cfg.Chat)
	if err != nil {
		return nil, err
	}
	embedder, err := providers.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, err
	}

	storeCfg := vector.NewStoreConfig(cfg.Index)
	store, err := vector.Open(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		store.Close()
		return nil, &vector.IndexLoadError{Location: storeCfg.Location(), Err: err}
	}
	if err := checkModel(stats, cfg.Embedding.Model); err != nil {
		store.Close()
		return nil, &vector.IndexLoadError{Location: storeCfg.Location(), Err: err}
	}

	svc, err := newService(ctx, store, stats, embedder, chatModel, Options{
		TopK:        cfg.Chat.TopK,
		Temperature: cfg.Chat.Temperature,
		Timeout:     cfg.Chat.Timeout(),
		BatchSize:   cfg.Embedding.BatchSize,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	log.Info("vector index loaded",
		zap.String("location", svc.stats.Location),
		zap.Int64("chunks", svc.stats.Chunks),
		zap.Int("dimension", svc.stats.Dimension),
		zap.String("chat_model", cfg.Chat.Model),
	)
	return svc, nil
}

// checkModel rejects an index embedded with a different model than the one
// queries will be embedded with.
func checkModel(stats llm.IndexStats, configured string) error {
	if stats.Model != "" && stats.Model != configured {
		return fmt.Errorf("index was built with embedding model %q but %q is configured", stats.Model, configured)
	}
	return nil
}

// Answer retrieves the chunks closest to query and asks the model to answer
// from them. Sources follow retrieval order.
func (s *Service) Answer(ctx context.Context, query string) (*llm.AnswerResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := logger.FromContext(ctx)
	start := time.Now()

	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		log.Error("retrieval failed", zap.Error(err))
		return nil, &AnswerGenerationError{Stage: StageRetrieve, Err: err}
	}

	answer, err := s.generator.Generate(ctx, query, docs)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		return nil, &AnswerGenerationError{Stage: StageGenerate, Err: err}
	}

	result := &llm.AnswerResult{
		Query:   query,
		Answer:  answer,
		Sources: Sources(docs),
	}
	log.Info("query answered",
		zap.Strings("sources", result.Sources),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// Stats describes the loaded index.
func (s *Service) Stats() llm.IndexStats {
	return s.stats
}

// Close releases the index.
func (s *Service) Close() error {
	return s.store.Close()
}
