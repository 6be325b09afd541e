package providers

import (
	"context"
	"fmt"

	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"
)

// ContentEmbedder is the part of the genai client used for embeddings.
// *genai.Models satisfies it.
type ContentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder adapts the Gemini embedding API to einoEmbedding.Embedder.
type GeminiEmbedder struct {
	client ContentEmbedder
	model  string
}

var _ einoEmbedding.Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates an embedder for model.
func NewGeminiEmbedder(client ContentEmbedder, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

// EmbedStrings embeds texts in one request and returns one vector per text,
// in input order.
func (g *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoEmbedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	modelName := g.model
	options := einoEmbedding.GetCommonOptions(&einoEmbedding.Options{Model: &modelName}, opts...)
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := g.client.EmbedContent(ctx, modelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini embed: expected %d embeddings, got %d", len(texts), got)
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("gemini embed: empty embedding at %d", i)
		}
		v := make([]float64, len(e.Values))
		for j, x := range e.Values {
			v[j] = float64(x)
		}
		vectors[i] = v
	}
	return vectors, nil
}
