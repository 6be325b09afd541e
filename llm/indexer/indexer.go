package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"nairobi-rag/llm"
	"nairobi-rag/llm/parser"
	"nairobi-rag/llm/vector"
	"nairobi-rag/logger"
	"nairobi-rag/pubsub"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// DefaultPattern matches the text documents written by ingestion.
const DefaultPattern = "**/*.{txt,md}"

// ErrNothingToIndex is returned when no file produced a chunk. The existing
// index is left untouched in that case.
var ErrNothingToIndex = errors.New("no chunks to index")

// Options configures an Indexer.
type Options struct {
	Dirs    []string
	Pattern string
	Chunk   vector.ChunkConfig
	// Recorded in the index next to the vectors
	Model string
	// Receives an UpdatedEvent per file
	Events pubsub.Publisher[FileResult]
}

// FileResult describes one indexed file.
type FileResult struct {
	Path   string
	Source string
	Chunks int
	Err    error
}

// Result summarises an indexing run.
type Result struct {
	Files   []FileResult
	Chunks  int
	Elapsed time.Duration
}

// Failed returns the files that could not be read.
func (r Result) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Empty returns the files that were read but held no text.
func (r Result) Empty() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err == nil && f.Chunks == 0 {
			out = append(out, f)
		}
	}
	return out
}

// Indexer chunks and embeds the ingested text files and rebuilds the
// vector index from them.
type Indexer struct {
	opts     Options
	parsers  *parser.Registry
	embedder *vector.EmbeddingService
	store    vector.VectorStore
}

// New creates an Indexer writing into store.
func New(opts Options, parsers *parser.Registry, embedder *vector.EmbeddingService, store vector.VectorStore) *Indexer {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.Events == nil {
		opts.Events = pubsub.Nop[FileResult]{}
	}
	return &Indexer{
		opts:     opts,
		parsers:  parsers,
		embedder: embedder,
		store:    store,
	}
}

// Discover lists the files to index, sorted, across every configured
// directory. Missing directories are skipped.
func (ix *Indexer) Discover() ([]string, error) {
	var files []string
	for _, dir := range ix.opts.Dirs {
		if dir == "" {
			continue
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, ix.opts.Pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// Run rebuilds the index from scratch. Unreadable files are reported in the
// result and skipped; embedding or storage failures abort the run.
func (ix *Indexer) Run(ctx context.Context) (Result, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	files, err := ix.Discover()
	if err != nil {
		return Result{}, err
	}
	log.Info("indexing started", zap.Int("files", len(files)), zap.Strings("dirs", ix.opts.Dirs))

	var (
		result Result
		chunks []llm.Chunk
	)
	now := time.Now().Format(time.RFC3339)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fileChunks, err := ix.chunkFile(ctx, path, now)
		fr := FileResult{Path: path, Source: filepath.Base(path), Chunks: len(fileChunks), Err: err}
		switch {
		case err != nil:
			log.Warn("skipping file", zap.String("path", path), zap.Error(err))
		case len(fileChunks) == 0:
			log.Warn("file has no text", zap.String("path", path))
		}
		result.Files = append(result.Files, fr)
		chunks = append(chunks, fileChunks...)
		ix.opts.Events.Publish(pubsub.UpdatedEvent, fr)
	}

	if len(chunks) == 0 {
		return result, ErrNothingToIndex
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return result, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	if err := ix.store.Replace(ctx, chunks, ix.opts.Model); err != nil {
		return result, fmt.Errorf("write index: %w", err)
	}

	result.Chunks = len(chunks)
	result.Elapsed = time.Since(start)
	log.Info("indexing finished",
		zap.Int("files", len(files)),
		zap.Int("chunks", result.Chunks),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// chunkFile parses path and splits it. The chunk source is the file name,
// the identifier the ingestion step gave the document.
func (ix *Indexer) chunkFile(ctx context.Context, path, createdAt string) ([]llm.Chunk, error) {
	doc, err := ix.parsers.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}

	segments := vector.Split(doc.Content, ix.opts.Chunk)
	source := filepath.Base(path)

	chunks := make([]llm.Chunk, 0, len(segments))
	for _, seg := range segments {
		metadata := map[string]interface{}{
			"title":       doc.Title,
			"chunk_count": len(segments),
		}
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		chunks = append(chunks, llm.Chunk{
			ID:         vector.ChunkID(path, seg.Index),
			Content:    seg.Content,
			Source:     source,
			Origin:     path,
			ChunkIndex: seg.Index,
			Metadata:   metadata,
			CreatedAt:  createdAt,
		})
	}
	return chunks, nil
}
