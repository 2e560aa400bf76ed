package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/common"
)

func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = "test-gemini-key"
	cfg.Claude.APIKey = "test-claude-key"
	return cfg
}

func TestNewService_GeminiProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.DefaultProvider = common.LLMProviderGemini

	svc, err := NewService(cfg, arbor.NewLogger())

	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, cfg.Gemini.Model, svc.ModelName())
	assert.Equal(t, cfg.Gemini.EmbedModel, svc.EmbedModelName())
}

func TestNewService_ClaudeProviderComposesGeminiEmbedder(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.DefaultProvider = common.LLMProviderClaude

	svc, err := NewService(cfg, arbor.NewLogger())

	require.NoError(t, err)
	defer svc.Close()
	// Generation goes to Claude, embeddings still come from Gemini.
	assert.Equal(t, cfg.Claude.Model, svc.ModelName())
	assert.Equal(t, cfg.Gemini.EmbedModel, svc.EmbedModelName())
}

func TestNewService_MissingGeminiKeyFails(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = ""

	_, err := NewService(cfg, arbor.NewLogger())

	assert.Error(t, err)
}

func TestNewService_MissingClaudeKeyFails(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.DefaultProvider = common.LLMProviderClaude
	cfg.Claude.APIKey = ""

	_, err := NewService(cfg, arbor.NewLogger())

	assert.Error(t, err)
}

func TestNewService_UnknownProviderFails(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.DefaultProvider = "llama"

	_, err := NewService(cfg, arbor.NewLogger())

	assert.Error(t, err)
}

func TestClaudeService_EmbedUnsupported(t *testing.T) {
	svc, err := NewClaudeService(&common.ClaudeConfig{APIKey: "test-key", Model: "claude"}, arbor.NewLogger())
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), "text")

	assert.Error(t, err)
}
