package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls [][]string
	dim   int
	err   error
}

func (e *countingEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		vec := make([]float64, e.dim)
		vec[0] = float64(len(t))
		out[i] = vec
	}
	return out, nil
}

func TestEmbeddingService_EmbedBatchSplitsRequests(t *testing.T) {
	emb := &countingEmbedder{dim: 4}
	svc := NewEmbeddingService(emb, 2)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	assert.Len(t, emb.calls, 3)
	assert.Equal(t, float32(3), vectors[2][0])
	assert.Equal(t, 4, svc.Dimension())
}

func TestEmbeddingService_RejectsEmptyText(t *testing.T) {
	svc := NewEmbeddingService(&countingEmbedder{dim: 2}, 0)

	_, err := svc.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.EmbedBatch(context.Background(), []string{"ok", ""})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestEmbeddingService_WrapsEmbedderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := NewEmbeddingService(&countingEmbedder{dim: 2, err: boom}, 0)

	_, err := svc.Embed(context.Background(), "Nairobi")
	assert.ErrorIs(t, err, boom)
}

func TestEmbeddingService_DimensionChange(t *testing.T) {
	emb := &countingEmbedder{dim: 3}
	svc := NewEmbeddingService(emb, 0)

	_, err := svc.Embed(context.Background(), "first")
	require.NoError(t, err)

	emb.dim = 5
	_, err = svc.Embed(context.Background(), "second")
	assert.Error(t, err)
}
