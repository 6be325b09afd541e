package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// DefaultTemperature keeps answers close to the retrieved text.
const DefaultTemperature float32 = 0.2

const systemPrompt = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{context}`

const userPrompt = `Question: {question}
Helpful Answer:`

// Generator answers a question from retrieved chunks with one model call.
type Generator struct {
	chain       compose.Runnable[map[string]any, *schema.Message]
	temperature float32
}

// NewGenerator compiles the prompt template and chatModel into a chain.
func NewGenerator(ctx context.Context, chatModel model.BaseChatModel, temperature float32) (*Generator, error) {
	tpl := prompt.FromMessages(schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	)

	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(tpl).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, err
	}

	return &Generator{chain: chain, temperature: temperature}, nil
}

// Generate asks the model to answer query using docs as context.
func (g *Generator) Generate(ctx context.Context, query string, docs []*schema.Document) (string, error) {
	msg, err := g.chain.Invoke(ctx, map[string]any{
		"context":  joinContext(docs),
		"question": query,
	}, compose.WithChatModelOption(model.WithTemperature(g.temperature)))
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(msg.Content)
	if answer == "" {
		return "", errors.New("model returned an empty answer")
	}
	return answer, nil
}

func joinContext(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}
