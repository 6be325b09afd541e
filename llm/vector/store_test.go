package vector

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"nairobi-rag/config"
	"nairobi-rag/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks() []llm.Chunk {
	return []llm.Chunk{
		{Source: "giraffe_centre.txt", ChunkIndex: 0, Content: "Giraffe feeding platform", Vector: []float32{1, 0, 0}},
		{Source: "giraffe_centre.txt", ChunkIndex: 1, Content: "Rothschild giraffes", Vector: []float32{0.9, 0.1, 0}},
		{Source: "karura_forest.txt", ChunkIndex: 0, Content: "Karura waterfall trail", Vector: []float32{0, 1, 0}},
		{Source: "nairobi_museum.txt", ChunkIndex: 0, Content: "Museum galleries", Vector: []float32{0, 0, 1},
			Metadata: map[string]interface{}{"origin": "data/web_txt/nairobi_museum.txt"}},
	}
}

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "index", "index.db")
	store, err := CreateSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Replace(context.Background(), testChunks(), "test-embed"))
	return store, path
}

func TestSQLiteStore_SearchOrdersByCosine(t *testing.T) {
	store, _ := newTestSQLiteStore(t)

	results, err := store.Search(context.Background(), []float32{1, 0.05, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Giraffe feeding platform", results[0].Chunk.Content)
	assert.Equal(t, "Rothschild giraffes", results[1].Chunk.Content)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	for _, r := range results {
		assert.Equal(t, "giraffe_centre.txt", r.Chunk.Source)
	}
}

func TestSQLiteStore_SearchDimensionMismatch(t *testing.T) {
	store, _ := newTestSQLiteStore(t)

	_, err := store.Search(context.Background(), []float32{1, 0}, 3)
	assert.Error(t, err)
}

func TestSQLiteStore_ReplaceRebuilds(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	// Load into memory, then replace
	_, err := store.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)

	require.NoError(t, store.Replace(ctx, []llm.Chunk{
		{Source: "bomas_of_kenya.txt", Content: "Traditional dances", Vector: []float32{1, 0, 0}},
	}, "other-embed"))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	results, err := store.Search(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bomas_of_kenya.txt", results[0].Chunk.Source)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "other-embed", stats.Model)
	assert.Equal(t, 3, stats.Dimension)
}

func TestSQLiteStore_ReopenKeepsMetadata(t *testing.T) {
	store, path := newTestSQLiteStore(t)
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.Search(context.Background(), []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "nairobi_museum.txt", results[0].Chunk.Source)
	assert.Equal(t, "data/web_txt/nairobi_museum.txt", results[0].Chunk.Metadata["origin"])
	assert.NotEmpty(t, results[0].Chunk.ID)
}

func TestOpen_MissingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := Open(context.Background(), StoreConfig{Backend: BackendSQLite, Path: path})

	var loadErr *IndexLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Location)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "opening must not create the index file")
}

func TestOpen_EmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := CreateSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(context.Background(), StoreConfig{Path: path})

	var loadErr *IndexLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, ErrIndexEmpty)
}

func TestOpen_CorruptIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database at all, just text"), 0o644))

	_, err := Open(context.Background(), StoreConfig{Path: path})

	var loadErr *IndexLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestOpen_CorruptDimension(t *testing.T) {
	store, path := newTestSQLiteStore(t)
	_, err := store.db.ExecContext(context.Background(), "UPDATE index_meta SET value = 'abc' WHERE key = 'dimension'")
	require.NoError(t, err)

	_, err = store.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid dimension "abc"`)

	_, err = Open(context.Background(), StoreConfig{Path: path})
	var loadErr *IndexLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Location)
}

func TestParseDimension(t *testing.T) {
	dim, err := parseDimension("768")
	require.NoError(t, err)
	assert.Equal(t, 768, dim)

	dim, err = parseDimension("")
	require.NoError(t, err)
	assert.Zero(t, dim)

	_, err = parseDimension("-3")
	assert.Error(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), StoreConfig{Backend: "faiss"})
	assert.Error(t, err)
}

func TestOpen_Loaded(t *testing.T) {
	_, path := newTestSQLiteStore(t)

	store, err := Open(context.Background(), StoreConfig{Path: path})
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, float32(0), cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, float32(0), cosine([]float32{1}, []float32{1, 1}))
}

func TestVectorSerialization(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	assert.Equal(t, v, deserializeVector(serializeVector(v)))
}

func TestChunkID_Stable(t *testing.T) {
	assert.Equal(t, ChunkID("a.txt", 1), ChunkID("a.txt", 1))
	assert.NotEqual(t, ChunkID("a.txt", 1), ChunkID("a.txt", 2))
	assert.Len(t, ChunkID("a.txt", 1), 32)
}

func TestNewStoreConfig(t *testing.T) {
	cfg := NewStoreConfig(config.IndexConfig{
		Backend: BackendRedis,
		Redis:   config.RedisConfig{Addr: "redis:6380", IndexName: "attractions"},
	})

	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "attractions", cfg.Redis.IndexName)
	assert.Equal(t, DefaultRedisConfig().KeyPrefix, cfg.Redis.KeyPrefix)
	assert.Equal(t, "redis://redis:6380/attractions", cfg.Location())
}
