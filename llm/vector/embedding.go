package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
)

// ErrEmptyText is returned when asked to embed an empty string
var ErrEmptyText = errors.New("text cannot be empty")

// EmbeddingService wraps an eino embedder and hands out float32 vectors.
// The dimension is learned from the first non-empty vector it sees.
type EmbeddingService struct {
	embedder  embedding.Embedder
	batchSize int

	mu  sync.RWMutex
	dim int
}

// NewEmbeddingService creates a new embedding service. A batchSize <= 0
// sends every text in a single request.
func NewEmbeddingService(embedder embedding.Embedder, batchSize int) *EmbeddingService {
	return &EmbeddingService{
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// Embed generates an embedding vector for a single text
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	vec := toFloat32(vectors[0])
	if err := s.observe(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch embeds texts in order, batchSize texts per request
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	size := s.batchSize
	if size <= 0 {
		size = len(texts)
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch := texts[start:end]

		for i, t := range batch {
			if t == "" {
				return nil, fmt.Errorf("text %d: %w", start+i, ErrEmptyText)
			}
		}

		vectors, err := s.embedder.EmbedStrings(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}

		for _, v := range vectors {
			vec := toFloat32(v)
			if err := s.observe(len(vec)); err != nil {
				return nil, err
			}
			result = append(result, vec)
		}
	}

	return result, nil
}

// Dimension returns the embedding dimension, or 0 before the first call
func (s *EmbeddingService) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

func (s *EmbeddingService) observe(dim int) error {
	if dim == 0 {
		return fmt.Errorf("empty embedding returned")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		s.dim = dim
		return nil
	}
	if s.dim != dim {
		return fmt.Errorf("embedding dimension changed from %d to %d", s.dim, dim)
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
