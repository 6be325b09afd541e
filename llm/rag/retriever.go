package rag

import (
	"context"
	"fmt"

	"nairobi-rag/llm/vector"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// DefaultTopK is the number of chunks handed to the model.
const DefaultTopK = 3

// Document metadata keys
const (
	MetaSource     = "source"
	MetaOrigin     = "origin"
	MetaChunkIndex = "chunk_index"
)

// Retriever finds the chunks closest to a query by cosine similarity.
type Retriever struct {
	embedder *vector.EmbeddingService
	store    vector.VectorStore
	topK     int
}

var _ retriever.Retriever = (*Retriever)(nil)

// NewRetriever creates a retriever over store. Queries must be embedded
// with the model the index was built with.
func NewRetriever(embedder *vector.EmbeddingService, store vector.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns the topK nearest chunks, best first. Each document carries
// its source identifier under MetaSource and its similarity as the score.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := r.topK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, res := range results {
		doc := &schema.Document{
			ID:      res.Chunk.ID,
			Content: res.Chunk.Content,
			MetaData: map[string]any{
				MetaSource:     res.Chunk.Source,
				MetaOrigin:     res.Chunk.Origin,
				MetaChunkIndex: res.Chunk.ChunkIndex,
			},
		}
		docs = append(docs, doc.WithScore(float64(res.Score)))
	}
	return docs, nil
}

// Sources lists the source identifiers of docs in order, duplicates kept.
func Sources(docs []*schema.Document) []string {
	sources := make([]string, 0, len(docs))
	for _, d := range docs {
		if s, ok := d.MetaData[MetaSource].(string); ok {
			sources = append(sources, s)
		}
	}
	return sources
}
