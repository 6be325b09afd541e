package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"nairobi-rag/llm"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	origin      TEXT NOT NULL DEFAULT '',
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	vector      BLOB NOT NULL,
	metadata    TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore keeps chunks and their vectors in a single SQLite file.
// Vectors are held in memory after load and searched by brute force.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu     sync.RWMutex
	loaded bool
	chunks []llm.Chunk
}

var _ VectorStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens an existing index file and loads it into memory.
// The file is never created here.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	s, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

// CreateSQLiteStore opens the index file for writing, creating the file and
// its schema when needed.
func CreateSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	s, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func openSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Replace drops all stored chunks and writes chunks in one transaction
func (s *SQLiteStore) Replace(ctx context.Context, chunks []llm.Chunk, model string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source, origin, chunk_index, content, vector, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	dim := 0
	now := time.Now().Format(time.RFC3339)
	for _, c := range chunks {
		if len(c.Vector) == 0 {
			return fmt.Errorf("chunk %s has no vector", c.ID)
		}
		if dim == 0 {
			dim = len(c.Vector)
		} else if len(c.Vector) != dim {
			return fmt.Errorf("chunk %s has dimension %d, expected %d", c.ID, len(c.Vector), dim)
		}

		if c.ID == "" {
			c.ID = ChunkID(c.Source, c.ChunkIndex)
		}
		if c.CreatedAt == "" {
			c.CreatedAt = now
		}

		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, c.ID, c.Source, c.Origin, c.ChunkIndex,
			c.Content, serializeVector(c.Vector), string(meta), c.CreatedAt); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	for key, value := range map[string]string{
		"model":      model,
		"dimension":  strconv.Itoa(dim),
		"indexed_at": now,
	} {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO index_meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("writing index metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}

	s.mu.Lock()
	s.loaded = false
	s.chunks = nil
	s.mu.Unlock()

	return nil
}

// Search scores every stored chunk against vec and returns the topK best
func (s *SQLiteStore) Search(ctx context.Context, vec []float32, topK int) ([]llm.SearchResult, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 3
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]llm.SearchResult, 0, len(s.chunks))
	for _, c := range s.chunks {
		if len(c.Vector) != len(vec) {
			return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(vec), len(c.Vector))
		}
		results = append(results, llm.SearchResult{Chunk: c, Score: cosine(vec, c.Vector)})
	}

	// Stable so equal scores keep insertion order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of stored chunks
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Stats reports chunk count and the embedding model recorded at index time
func (s *SQLiteStore) Stats(ctx context.Context) (llm.IndexStats, error) {
	stats := llm.IndexStats{Location: s.path}

	n, err := s.Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.Chunks = n

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return stats, fmt.Errorf("reading index metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return stats, fmt.Errorf("scanning index metadata: %w", err)
		}
		switch key {
		case "model":
			stats.Model = value
		case "dimension":
			dim, err := parseDimension(value)
			if err != nil {
				return stats, err
			}
			stats.Dimension = dim
		}
	}
	return stats, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.load(ctx)
}

// load reads every chunk into memory in insertion order
func (s *SQLiteStore) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, origin, chunk_index, content, vector, metadata, created_at
		FROM chunks ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()

	var chunks []llm.Chunk
	for rows.Next() {
		var (
			c    llm.Chunk
			blob []byte
			meta string
		)
		if err := rows.Scan(&c.ID, &c.Source, &c.Origin, &c.ChunkIndex, &c.Content, &blob, &meta, &c.CreatedAt); err != nil {
			return fmt.Errorf("scanning chunk: %w", err)
		}
		if len(blob)%4 != 0 {
			return fmt.Errorf("chunk %s: vector blob has invalid length %d", c.ID, len(blob))
		}
		c.Vector = deserializeVector(blob)
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
				return fmt.Errorf("chunk %s: decoding metadata: %w", c.ID, err)
			}
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading chunks: %w", err)
	}

	s.mu.Lock()
	s.chunks = chunks
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// serializeVector converts a float32 slice to little-endian bytes
func serializeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeVector converts little-endian bytes back to a float32 slice
func deserializeVector(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
