package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/common"
	"github.com/corvid-labs/lectern/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses the Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses the Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// NewService creates the LLMService for the configured default provider.
// Embeddings always come from Gemini; when Claude is the generation
// provider the two are composed behind one interface.
func NewService(config *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	gemini, err := NewGeminiService(&config.Gemini, logger)
	if err != nil {
		return nil, err
	}

	switch ProviderType(config.LLM.DefaultProvider) {
	case ProviderGemini, "":
		return gemini, nil
	case ProviderClaude:
		claude, err := NewClaudeService(&config.Claude, logger)
		if err != nil {
			gemini.Close()
			return nil, err
		}
		return &compositeService{generator: claude, embedder: gemini}, nil
	default:
		gemini.Close()
		return nil, fmt.Errorf("unknown LLM provider: %s", config.LLM.DefaultProvider)
	}
}

// compositeService pairs a generation provider with an embedding provider.
type compositeService struct {
	generator interfaces.LLMService
	embedder  *GeminiService
}

func (c *compositeService) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.Embed(ctx, text)
}

func (c *compositeService) Generate(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
	return c.generator.Generate(ctx, req)
}

func (c *compositeService) ModelName() string {
	return c.generator.ModelName()
}

func (c *compositeService) EmbedModelName() string {
	return c.embedder.EmbedModelName()
}

func (c *compositeService) Close() error {
	genErr := c.generator.Close()
	if err := c.embedder.Close(); err != nil {
		return err
	}
	return genErr
}
