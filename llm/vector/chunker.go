package vector

import (
	"strings"
	"unicode"
)

// ChunkConfig configures how text documents are split before embedding
type ChunkConfig struct {
	ChunkSize    int // Maximum chunk size in characters
	ChunkOverlap int // Characters carried over from the previous chunk
	MinChunkSize int // Chunks shorter than this are dropped
}

// DefaultChunkConfig returns the default chunk configuration
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 100,
	}
}

// Segment is a piece of a text document ready to be embedded
type Segment struct {
	Content string
	Index   int
}

// Split breaks content into overlapping segments. Paragraphs ("\n\n") are
// packed first; when that yields nothing the text is packed by sentence.
// Non-empty content always yields at least one segment, even when it is
// shorter than MinChunkSize.
func Split(content string, cfg ChunkConfig) []Segment {
	cfg = cfg.normalize()

	content = strings.TrimSpace(content)
	if content == "" {
		return []Segment{}
	}

	parts := pack(strings.Split(content, "\n\n"), "\n\n", cfg)
	if len(parts) == 0 {
		parts = pack(splitIntoSentences(content), " ", cfg)
	}

	var segments []Segment
	for _, p := range parts {
		if len(p) <= cfg.ChunkSize {
			segments = append(segments, Segment{Content: p})
			continue
		}
		for _, sub := range forceSplit(p, cfg.ChunkSize, cfg.ChunkOverlap) {
			segments = append(segments, Segment{Content: sub})
		}
	}

	// Drop fragments and number what is left
	kept := segments[:0]
	for _, s := range segments {
		if len(s.Content) >= cfg.MinChunkSize {
			s.Index = len(kept)
			kept = append(kept, s)
		}
	}

	if len(kept) == 0 {
		for i, sub := range forceSplit(content, cfg.ChunkSize, cfg.ChunkOverlap) {
			kept = append(kept, Segment{Content: sub, Index: i})
		}
	}

	return kept
}

func (c ChunkConfig) normalize() ChunkConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 5
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = 100
	}
	return c
}

// pack greedily joins units with sep until the next unit would overflow
// ChunkSize, then starts a new chunk seeded with the tail of the previous one.
func pack(units []string, sep string, cfg ChunkConfig) []string {
	var chunks []string
	var current strings.Builder

	flush := func() string {
		text := strings.TrimSpace(current.String())
		if len(text) >= cfg.MinChunkSize {
			chunks = append(chunks, text)
		}
		current.Reset()
		return text
	}

	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(unit) > cfg.ChunkSize {
			prev := flush()
			if overlap := getTailOverlap(prev, cfg.ChunkOverlap); overlap != "" {
				current.WriteString(overlap)
				current.WriteString(sep)
			}
		}

		current.WriteString(unit)
		current.WriteString(sep)
	}

	if current.Len() > 0 {
		flush()
	}

	return chunks
}

// splitIntoSentences splits text into sentences
func splitIntoSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if !isSentenceEnd(runes[i]) {
			continue
		}
		next := runeAt(runes, i+1)
		if next == 0 || unicode.IsSpace(next) || next == '"' || next == '\'' || next == ')' || next == ']' {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}

	if rest := strings.TrimSpace(current.String()); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// runeAt safely returns a rune at index or 0 if out of bounds
func runeAt(runes []rune, i int) rune {
	if i < 0 || i >= len(runes) {
		return 0
	}
	return runes[i]
}

// getTailOverlap gets the last N characters from text, trying to break at word boundary
func getTailOverlap(text string, size int) string {
	if size <= 0 || len(text) == 0 {
		return ""
	}
	if size >= len(text) {
		return text
	}

	tail := text[len(text)-size:]
	if firstSpace := strings.Index(tail, " "); firstSpace > 0 {
		return tail[firstSpace+1:]
	}
	return tail
}

// forceSplit cuts text into fixed-size rune windows that overlap by overlap runes.
func forceSplit(text string, size, overlap int) []string {
	var out []string

	runes := []rune(text)
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		out = append(out, string(runes[start:end]))
		start = end - overlap
	}

	return out
}
