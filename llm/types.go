package llm

// Chunk is one embedded segment of a text document as stored in the vector index.
// Source is the identifier of the text document it came from (its file name).
type Chunk struct {
	ID         string                 `json:"id"`
	Content    string                 `json:"content"`
	Source     string                 `json:"source"`
	Origin     string                 `json:"origin"`
	ChunkIndex int                    `json:"chunk_index"`
	Vector     []float32              `json:"vector,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  string                 `json:"created_at"`
}

// SearchResult represents a search result with relevance score
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// AnswerResult is what the chat service hands back for one query.
// Sources keeps retrieval order and is not deduplicated.
type AnswerResult struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// IndexStats describes a loaded vector index.
type IndexStats struct {
	Location  string
	Chunks    int64
	Dimension int
	Model     string
}
