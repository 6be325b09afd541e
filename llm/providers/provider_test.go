package providers

import (
	"context"
	"errors"
	"testing"

	"nairobi-rag/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeContentEmbedder struct {
	model    string
	contents []*genai.Content
	resp     *genai.EmbedContentResponse
	err      error
}

func (f *fakeContentEmbedder) EmbedContent(_ context.Context, model string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.model = model
	f.contents = contents
	return f.resp, f.err
}

func TestGeminiEmbedder_ConvertsVectors(t *testing.T) {
	fake := &fakeContentEmbedder{
		resp: &genai.EmbedContentResponse{
			Embeddings: []*genai.ContentEmbedding{
				{Values: []float32{0.5, 1}},
				{Values: []float32{-1, 0}},
			},
		},
	}
	e := NewGeminiEmbedder(fake, "gemini-embedding-001")

	vectors, err := e.EmbedStrings(context.Background(), []string{"giraffe", "park"})
	require.NoError(t, err)

	assert.Equal(t, "gemini-embedding-001", fake.model)
	require.Len(t, fake.contents, 2)
	assert.Equal(t, [][]float64{{0.5, 1}, {-1, 0}}, vectors)
}

func TestGeminiEmbedder_CountMismatch(t *testing.T) {
	fake := &fakeContentEmbedder{
		resp: &genai.EmbedContentResponse{
			Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}},
		},
	}
	e := NewGeminiEmbedder(fake, "m")

	_, err := e.EmbedStrings(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings, got 1")
}

func TestGeminiEmbedder_WrapsError(t *testing.T) {
	cause := errors.New("quota exceeded")
	e := NewGeminiEmbedder(&fakeContentEmbedder{err: cause}, "m")

	_, err := e.EmbedStrings(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, cause)
}

func TestGeminiEmbedder_Empty(t *testing.T) {
	fake := &fakeContentEmbedder{}
	vectors, err := NewGeminiEmbedder(fake, "m").EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, fake.model)
}

func TestNewChatModel_MissingCredential(t *testing.T) {
	t.Setenv("NAIROBI_TEST_KEY", "")
	cfg := config.ChatConfig{ModelConfig: config.ModelConfig{
		Provider:  config.ProviderGemini,
		Model:     "gemini-2.5-flash",
		APIKeyEnv: "NAIROBI_TEST_KEY",
	}}

	_, err := NewChatModel(context.Background(), cfg)

	var missing *config.MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "NAIROBI_TEST_KEY", missing.Env)
	assert.Contains(t, err.Error(), "NAIROBI_TEST_KEY is missing")
}

func TestNewEmbedder_MissingCredential(t *testing.T) {
	t.Setenv("NAIROBI_TEST_KEY", "")
	cfg := config.EmbeddingConfig{ModelConfig: config.ModelConfig{
		Provider:  config.ProviderOpenAI,
		Model:     "text-embedding-3-small",
		APIKeyEnv: "NAIROBI_TEST_KEY",
	}}

	_, err := NewEmbedder(context.Background(), cfg)

	var missing *config.MissingCredentialError
	assert.ErrorAs(t, err, &missing)
}

func TestNewChatModel_UnknownProvider(t *testing.T) {
	cfg := config.ChatConfig{ModelConfig: config.ModelConfig{Provider: "bard", APIKeyEnv: config.NoAPIKey}}

	_, err := NewChatModel(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown chat provider "bard"`)
}
