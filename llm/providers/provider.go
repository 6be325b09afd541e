package providers

import (
	"context"
	"fmt"

	"nairobi-rag/config"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	geminiModel "github.com/cloudwego/eino-ext/components/model/gemini"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// NewChatModel creates the answering model described by cfg. A missing API
// key is returned as *config.MissingCredentialError before any client is built.
func NewChatModel(ctx context.Context, cfg config.ChatConfig) (model.BaseChatModel, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := newGenAIClient(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return geminiModel.NewChatModel(ctx, &geminiModel.Config{
			Client: client,
			Model:  cfg.Model,
		})

	case config.ProviderOpenAI:
		return openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}

// NewEmbedder creates the embedding model described by cfg. The same
// configuration must be used at index time and at query time.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (einoEmbedding.Embedder, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := newGenAIClient(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return NewGeminiEmbedder(client.Models, cfg.Model), nil

	case config.ProviderOpenAI:
		return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}
