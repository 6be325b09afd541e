package vector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("   \n\n  ", DefaultChunkConfig()))
}

func TestSplit_PacksParagraphs(t *testing.T) {
	para := strings.Repeat("Nairobi National Park lies south of the city centre. ", 4)
	content := strings.Join([]string{para, para, para, para}, "\n\n")

	cfg := ChunkConfig{ChunkSize: 500, ChunkOverlap: 50, MinChunkSize: 20}
	segments := Split(content, cfg)

	require.NotEmpty(t, segments)
	for i, s := range segments {
		assert.Equal(t, i, s.Index)
		assert.LessOrEqual(t, len(s.Content), cfg.ChunkSize)
		assert.GreaterOrEqual(t, len(s.Content), cfg.MinChunkSize)
	}
	assert.Greater(t, len(segments), 1)
}

func TestSplit_KeepsShortDocumentWhole(t *testing.T) {
	segments := Split("  Giraffe Centre opens 9am.\n", DefaultChunkConfig())
	require.Len(t, segments, 1)
	assert.Equal(t, Segment{Content: "Giraffe Centre opens 9am.", Index: 0}, segments[0])
}

func TestSplit_DropsShortTrailingFragment(t *testing.T) {
	para := strings.Repeat("Bomas of Kenya shows traditional dances. ", 3)
	cfg := ChunkConfig{ChunkSize: 125, ChunkOverlap: 0, MinChunkSize: 50}

	segments := Split(para+"\n\nEnd.", cfg)

	require.Len(t, segments, 1)
	assert.Equal(t, strings.TrimSpace(para), segments[0].Content)
}

func TestSplit_ForceSplitsOversizedParagraph(t *testing.T) {
	long := strings.Repeat("x", 2500)
	cfg := ChunkConfig{ChunkSize: 1000, ChunkOverlap: 100, MinChunkSize: 10}

	segments := Split(long, cfg)

	require.Len(t, segments, 3)
	assert.Len(t, segments[0].Content, 1000)
	assert.Len(t, segments[1].Content, 1000)
	assert.Len(t, segments[2].Content, 700)
}

func TestForceSplit_Terminates(t *testing.T) {
	out := forceSplit("abcdefghij", 4, 2)
	assert.Equal(t, []string{"abcd", "cdef", "efgh", "ghij"}, out)
}

func TestSplitIntoSentences(t *testing.T) {
	got := splitIntoSentences("The museum opened in 1910. Is it open today? Yes! trailing")
	assert.Equal(t, []string{
		"The museum opened in 1910.",
		"Is it open today?",
		"Yes!",
		"trailing",
	}, got)
}

func TestGetTailOverlap(t *testing.T) {
	assert.Equal(t, "", getTailOverlap("hello", 0))
	assert.Equal(t, "hello", getTailOverlap("hello", 10))
	assert.Equal(t, "world", getTailOverlap("hello big world", 7))
}
