package vector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"

	"nairobi-rag/config"
	"nairobi-rag/llm"
)

// VectorStore is the persisted vector index. Chunks carry their vectors;
// embedding happens before the store is reached.
type VectorStore interface {
	// Replace drops everything in the index and stores chunks in its place
	Replace(ctx context.Context, chunks []llm.Chunk, model string) error

	// Search returns the topK chunks nearest to vec by cosine similarity,
	// best first
	Search(ctx context.Context, vec []float32, topK int) ([]llm.SearchResult, error)

	// Count returns the number of chunks in the index
	Count(ctx context.Context) (int64, error)

	// Stats describes the index
	Stats(ctx context.Context) (llm.IndexStats, error)

	// Close closes any connections or resources
	Close() error
}

// IndexLoadError reports an index that is missing, empty or unreadable
type IndexLoadError struct {
	Location string
	Err      error
}

func (e *IndexLoadError) Error() string {
	return fmt.Sprintf("failed to load vector index at %s: %v", e.Location, e.Err)
}

func (e *IndexLoadError) Unwrap() error {
	return e.Err
}

// ErrIndexEmpty is wrapped by IndexLoadError when the index holds no chunks
var ErrIndexEmpty = errors.New("index contains no chunks")

// parseDimension reads the stored vector dimension. A missing value is 0.
func parseDimension(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	dim, err := strconv.Atoi(value)
	if err != nil || dim < 0 {
		return 0, fmt.Errorf("invalid dimension %q in index metadata", value)
	}
	return dim, nil
}

// Open opens an existing index and verifies it can serve queries
func Open(ctx context.Context, cfg StoreConfig) (VectorStore, error) {
	var (
		store VectorStore
		err   error
	)

	switch cfg.Backend {
	case "", BackendSQLite:
		store, err = OpenSQLiteStore(ctx, cfg.Path)
	case BackendRedis:
		store, err = NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, &IndexLoadError{Location: cfg.Location(), Err: err}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		store.Close()
		return nil, &IndexLoadError{Location: cfg.Location(), Err: err}
	}
	if stats.Chunks == 0 {
		store.Close()
		return nil, &IndexLoadError{Location: cfg.Location(), Err: ErrIndexEmpty}
	}

	return store, nil
}

// Create opens the index for writing, creating it when needed
func Create(ctx context.Context, cfg StoreConfig) (VectorStore, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return CreateSQLiteStore(ctx, cfg.Path)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

// Index backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StoreConfig holds configuration for vector store implementations
type StoreConfig struct {
	Backend string
	Path    string // SQLite file
	Redis   RedisConfig
}

// NewStoreConfig builds a StoreConfig from the application configuration
func NewStoreConfig(c config.IndexConfig) StoreConfig {
	redisCfg := DefaultRedisConfig()
	redisCfg.Password = c.Redis.Password
	redisCfg.DB = c.Redis.DB
	if c.Redis.Addr != "" {
		redisCfg.Addr = c.Redis.Addr
	}
	if c.Redis.PoolSize > 0 {
		redisCfg.PoolSize = c.Redis.PoolSize
	}
	if c.Redis.IndexName != "" {
		redisCfg.IndexName = c.Redis.IndexName
	}

	return StoreConfig{
		Backend: c.Backend,
		Path:    c.Path,
		Redis:   redisCfg,
	}
}

// Location names the index for messages
func (c StoreConfig) Location() string {
	if c.Backend == BackendRedis {
		return fmt.Sprintf("redis://%s/%s", c.Redis.Addr, c.Redis.IndexName)
	}
	return c.Path
}

// cosine returns the cosine similarity of a and b, or 0 when either is zero
// or their lengths differ
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// ChunkID derives a stable chunk ID from its source and position
func ChunkID(source string, chunkIndex int) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte(fmt.Sprintf("#%d", chunkIndex)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
