package rag

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"nairobi-rag/llm"
	"nairobi-rag/llm/vector"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keywords = []string{"giraffe", "karura", "museum"}

// keywordEmbedder maps a text onto counts of a few fixed words.
type keywordEmbedder struct{}

func (keywordEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		vec := make([]float64, len(keywords)+1)
		for j, k := range keywords {
			vec[j] = float64(strings.Count(lower, k))
		}
		vec[len(keywords)] = 0.01
		out[i] = vec
	}
	return out, nil
}

// fakeChatModel answers with a fixed text and fails while failures > 0.
type fakeChatModel struct {
	mu          sync.Mutex
	answer      string
	failures    int
	calls       int
	lastInput   []*schema.Message
	temperature *float32
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.lastInput = input
	f.temperature = model.GetCommonOptions(&model.Options{}, opts...).Temperature

	if f.failures > 0 {
		f.failures--
		return nil, errors.New("model unavailable")
	}
	return schema.AssistantMessage(f.answer, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func chunk(t *testing.T, source string, idx int, content string) llm.Chunk {
	t.Helper()
	vectors, err := keywordEmbedder{}.EmbedStrings(context.Background(), []string{content})
	require.NoError(t, err)

	vec := make([]float32, len(vectors[0]))
	for i, x := range vectors[0] {
		vec[i] = float32(x)
	}
	return llm.Chunk{
		ID:         vector.ChunkID(source, idx),
		Source:     source,
		Origin:     filepath.Join("data", "web_txt", source),
		ChunkIndex: idx,
		Content:    content,
		Vector:     vec,
	}
}

// newTestStore indexes chunks from two sources: A about giraffes and B
// about Karura Forest.
func newTestStore(t *testing.T) vector.VectorStore {
	t.Helper()

	store, err := vector.CreateSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	chunks := []llm.Chunk{
		chunk(t, "giraffe_centre.txt", 0, "The Giraffe Centre breeds the Rothschild giraffe."),
		chunk(t, "giraffe_centre.txt", 1, "Visitors feed a giraffe from the raised platform."),
		chunk(t, "giraffe_centre.txt", 2, "Each giraffe has a name; Daisy is the best known giraffe."),
		chunk(t, "karura_forest.txt", 0, "Karura Forest has waterfalls and caves."),
		chunk(t, "karura_forest.txt", 1, "Cycling trails cross Karura from end to end."),
	}
	require.NoError(t, store.Replace(context.Background(), chunks, "keyword-test"))
	return store
}

func newTestService(t *testing.T, chat *fakeChatModel) *Service {
	t.Helper()
	svc, err := New(context.Background(), newTestStore(t), keywordEmbedder{}, chat, Options{TopK: 3})
	require.NoError(t, err)
	return svc
}

func TestRetriever_TopKOrderedWithSources(t *testing.T) {
	store := newTestStore(t)
	r := NewRetriever(vector.NewEmbeddingService(keywordEmbedder{}, 0), store, 0)

	docs, err := r.Retrieve(context.Background(), "Where can I see waterfalls in Karura?")
	require.NoError(t, err)
	require.Len(t, docs, DefaultTopK)

	assert.Equal(t, "karura_forest.txt", docs[0].MetaData[MetaSource])
	assert.Equal(t, "karura_forest.txt", docs[1].MetaData[MetaSource])
	assert.GreaterOrEqual(t, docs[0].Score(), docs[1].Score())
	assert.GreaterOrEqual(t, docs[1].Score(), docs[2].Score())
	assert.Equal(t, filepath.Join("data", "web_txt", "karura_forest.txt"), docs[0].MetaData[MetaOrigin])
}

func TestAnswer_SourcesOnlyFromRetrievedDocument(t *testing.T) {
	chat := &fakeChatModel{answer: "You can feed the giraffes at the Giraffe Centre."}
	svc := newTestService(t, chat)

	result, err := svc.Answer(context.Background(), "Where can I feed a giraffe?")
	require.NoError(t, err)

	assert.Equal(t, "You can feed the giraffes at the Giraffe Centre.", result.Answer)
	assert.Equal(t, []string{"giraffe_centre.txt", "giraffe_centre.txt", "giraffe_centre.txt"}, result.Sources)
	assert.NotContains(t, result.Sources, "karura_forest.txt")
}

func TestAnswer_PromptCarriesContextAndQuestion(t *testing.T) {
	chat := &fakeChatModel{answer: "Daisy."}
	svc := newTestService(t, chat)

	_, err := svc.Answer(context.Background(), "  Which giraffe is the best known?  ")
	require.NoError(t, err)

	require.Len(t, chat.lastInput, 2)
	assert.Equal(t, schema.System, chat.lastInput[0].Role)
	assert.Contains(t, chat.lastInput[0].Content, "Use the following pieces of context")
	assert.Contains(t, chat.lastInput[0].Content, "Daisy is the best known giraffe.")
	assert.NotContains(t, chat.lastInput[0].Content, "Karura")
	assert.Contains(t, chat.lastInput[1].Content, "Question: Which giraffe is the best known?")

	require.NotNil(t, chat.temperature)
	assert.InDelta(t, 0.2, *chat.temperature, 1e-6)
}

func TestAnswer_ModelFailureThenRecovery(t *testing.T) {
	chat := &fakeChatModel{answer: "Karura has waterfalls.", failures: 1}
	svc := newTestService(t, chat)

	_, err := svc.Answer(context.Background(), "Tell me about giraffes")
	var genErr *AnswerGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageGenerate, genErr.Stage)
	assert.Contains(t, err.Error(), "model unavailable")

	result, err := svc.Answer(context.Background(), "Does Karura have waterfalls?")
	require.NoError(t, err)
	assert.Equal(t, "Karura has waterfalls.", result.Answer)
	assert.Equal(t, "karura_forest.txt", result.Sources[0])
	assert.Equal(t, 2, chat.calls)
}

func TestAnswer_EmptyQuery(t *testing.T) {
	chat := &fakeChatModel{answer: "unused"}
	svc := newTestService(t, chat)

	_, err := svc.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, chat.calls)
}

func TestAnswer_EmptyModelAnswer(t *testing.T) {
	chat := &fakeChatModel{answer: "  "}
	svc := newTestService(t, chat)

	_, err := svc.Answer(context.Background(), "giraffe")
	var genErr *AnswerGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageGenerate, genErr.Stage)
}

func TestService_Stats(t *testing.T) {
	svc := newTestService(t, &fakeChatModel{answer: "ok"})

	stats := svc.Stats()
	assert.Equal(t, int64(5), stats.Chunks)
	assert.Equal(t, "keyword-test", stats.Model)
	assert.Equal(t, len(keywords)+1, stats.Dimension)
}

func TestSources_KeepsOrderAndDuplicates(t *testing.T) {
	docs := []*schema.Document{
		{MetaData: map[string]any{MetaSource: "b.txt"}},
		{MetaData: map[string]any{MetaSource: "a.txt"}},
		{MetaData: map[string]any{MetaSource: "b.txt"}},
		{MetaData: map[string]any{}},
	}
	assert.Equal(t, []string{"b.txt", "a.txt", "b.txt"}, Sources(docs))
}
