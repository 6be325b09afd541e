package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nairobi-rag/llm"

	"github.com/redis/go-redis/v9"
)

const (
	defaultEFConstruction = 200
	defaultM              = 16

	// Field names in Redis hash
	fieldContent    = "content"
	fieldVector     = "vector"
	fieldSource     = "source"
	fieldOrigin     = "origin"
	fieldChunkIndex = "chunk_index"
	fieldCreatedAt  = "created_at"
	fieldMetadata   = "metadata"
	fieldScore      = "score"
)

// RedisStore implements VectorStore using Redis with RediSearch vector search
type RedisStore struct {
	client *redis.Client
	config RedisConfig
}

var _ VectorStore = (*RedisStore)(nil)

// RedisConfig holds Redis connection and index configuration
type RedisConfig struct {
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	PoolSize       int    `yaml:"pool_size"`
	IndexName      string `yaml:"index_name"`
	KeyPrefix      string `yaml:"key_prefix"`
	EFConstruction int    `yaml:"ef_construction"`
	M              int    `yaml:"m"`
}

// DefaultRedisConfig returns the default Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:           "localhost:6379",
		PoolSize:       10,
		IndexName:      "nairobi-attractions",
		KeyPrefix:      "nairobi:chunk:",
		EFConstruction: defaultEFConstruction,
		M:              defaultM,
	}
}

func (c RedisConfig) metaKey() string {
	return c.IndexName + ":meta"
}

// NewRedisStore connects to Redis. The search index is created by Replace.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	def := DefaultRedisConfig()
	if cfg.IndexName == "" {
		cfg.IndexName = def.IndexName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.EFConstruction <= 0 {
		cfg.EFConstruction = def.EFConstruction
	}
	if cfg.M <= 0 {
		cfg.M = def.M
	}

	// RESP2 keeps FT.SEARCH replies as flat arrays
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, config: cfg}, nil
}

// createIndex creates the HNSW vector index for vectors of dim dimensions
func (s *RedisStore) createIndex(ctx context.Context, dim int) error {
	// FT.CREATE nairobi-attractions
	//   ON HASH PREFIX 1 "nairobi:chunk:"
	//   SCHEMA vector VECTOR HNSW 10 TYPE FLOAT32 DIM <dim> DISTANCE_METRIC COSINE EF_CONSTRUCTION 200 M 16
	//          content TEXT
	//          source TAG
	//          chunk_index NUMERIC
	_, err := s.client.Do(ctx, "FT.CREATE", s.config.IndexName,
		"ON", "HASH",
		"PREFIX", "1", s.config.KeyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(s.config.EFConstruction),
		"M", strconv.Itoa(s.config.M),
		fieldContent, "TEXT",
		fieldSource, "TAG",
		fieldChunkIndex, "NUMERIC",
	).Result()
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Replace drops the index together with its documents and rebuilds it
func (s *RedisStore) Replace(ctx context.Context, chunks []llm.Chunk, model string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}
	dim := len(chunks[0].Vector)
	if dim == 0 {
		return fmt.Errorf("chunk %s has no vector", chunks[0].ID)
	}

	// DD removes the indexed hashes too; a missing index is fine
	if err := s.client.Do(ctx, "FT.DROPINDEX", s.config.IndexName, "DD").Err(); err != nil &&
		!isUnknownIndex(err) {
		return fmt.Errorf("failed to drop index: %w", err)
	}

	if err := s.createIndex(ctx, dim); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	now := time.Now().Format(time.RFC3339)
	for _, c := range chunks {
		if len(c.Vector) != dim {
			return fmt.Errorf("chunk %s has dimension %d, expected %d", c.ID, len(c.Vector), dim)
		}
		if c.ID == "" {
			c.ID = ChunkID(c.Source, c.ChunkIndex)
		}
		if c.CreatedAt == "" {
			c.CreatedAt = now
		}

		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		pipe.HSet(ctx, s.config.KeyPrefix+c.ID,
			fieldContent, c.Content,
			fieldVector, serializeVector(c.Vector),
			fieldSource, c.Source,
			fieldOrigin, c.Origin,
			fieldChunkIndex, c.ChunkIndex,
			fieldCreatedAt, c.CreatedAt,
			fieldMetadata, metadataJSON,
		)
	}
	pipe.HSet(ctx, s.config.metaKey(),
		"model", model,
		"dimension", dim,
		"indexed_at", now,
	)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// Search runs a KNN query against the HNSW index
func (s *RedisStore) Search(ctx context.Context, vec []float32, topK int) ([]llm.SearchResult, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 3
	}

	// FT.SEARCH nairobi-attractions "*=>[KNN 3 @vector $query_vector AS score]"
	//   PARAMS 2 query_vector "<bytes>"
	//   SORTBY score
	//   LIMIT 0 3
	//   DIALECT 2
	queryStr := fmt.Sprintf("*=>[KNN %d @vector $query_vector AS %s]", topK, fieldScore)
	result, err := s.client.Do(ctx, "FT.SEARCH", s.config.IndexName, queryStr,
		"PARAMS", "2", "query_vector", serializeVector(vec),
		"RETURN", "6", fieldContent, fieldSource, fieldOrigin, fieldChunkIndex, fieldMetadata, fieldScore,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results, err := parseSearchResults(result, s.config.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	return results, nil
}

// parseSearchResults parses an FT.SEARCH reply: a count followed by
// (key, fields) pairs. The score field holds the cosine distance.
func parseSearchResults(result interface{}, keyPrefix string) ([]llm.SearchResult, error) {
	values, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result format %T", result)
	}

	results := []llm.SearchResult{}
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}

		chunk, distance := parseChunkFields(strings.TrimPrefix(key, keyPrefix), fields)
		results = append(results, llm.SearchResult{
			Chunk: chunk,
			Score: 1 - distance,
		})
	}
	return results, nil
}

// parseChunkFields parses chunk fields from a Redis reply
func parseChunkFields(id string, fields []interface{}) (llm.Chunk, float32) {
	chunk := llm.Chunk{ID: id}
	var distance float32

	for i := 0; i+1 < len(fields); i += 2 {
		name, ok := fields[i].(string)
		if !ok {
			continue
		}
		value, ok := fields[i+1].(string)
		if !ok {
			continue
		}

		switch name {
		case fieldContent:
			chunk.Content = value
		case fieldSource:
			chunk.Source = value
		case fieldOrigin:
			chunk.Origin = value
		case fieldChunkIndex:
			chunk.ChunkIndex, _ = strconv.Atoi(value)
		case fieldMetadata:
			_ = json.Unmarshal([]byte(value), &chunk.Metadata)
		case fieldScore:
			if d, err := strconv.ParseFloat(value, 32); err == nil {
				distance = float32(d)
			}
		}
	}
	return chunk, distance
}

// Count returns num_docs from FT.INFO
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	info, err := s.client.Do(ctx, "FT.INFO", s.config.IndexName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get index info: %w", err)
	}
	return parseNumDocs(info)
}

func parseNumDocs(info interface{}) (int64, error) {
	values, ok := info.([]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected info format %T", info)
	}

	for i := 0; i+1 < len(values); i += 2 {
		if key, ok := values[i].(string); ok && key == "num_docs" {
			switch v := values[i+1].(type) {
			case int64:
				return v, nil
			case string:
				return strconv.ParseInt(v, 10, 64)
			}
		}
	}
	return 0, nil
}

// Stats reports num_docs and the metadata written by Replace
func (s *RedisStore) Stats(ctx context.Context) (llm.IndexStats, error) {
	stats := llm.IndexStats{Location: fmt.Sprintf("redis://%s/%s", s.config.Addr, s.config.IndexName)}

	n, err := s.Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.Chunks = n

	meta, err := s.client.HGetAll(ctx, s.config.metaKey()).Result()
	if err != nil {
		return stats, fmt.Errorf("failed to read index metadata: %w", err)
	}
	stats.Model = meta["model"]
	if stats.Dimension, err = parseDimension(meta["dimension"]); err != nil {
		return stats, err
	}
	return stats, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}
