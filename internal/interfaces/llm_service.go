package interfaces

import (
	"context"
)

// Message represents a single message in a generation conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// GenerateRequest is a provider-agnostic content generation request.
type GenerateRequest struct {
	Messages          []Message
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
	OutputSchema      map[string]interface{} // JSON schema for structured output (Gemini only)
}

// LLMService defines the interface for the remote language model boundary:
// embedding generation and content generation. Implementations wrap a cloud
// provider SDK; tests inject fakes.
type LLMService interface {
	// Embed generates a fixed-dimension embedding vector for the given
	// text. The dimension is constant for one service configuration;
	// vectors of different dimensions must never be compared.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Generate produces a completion for the given request.
	Generate(ctx context.Context, req *GenerateRequest) (string, error)

	// ModelName returns the identifier of the configured generation model.
	ModelName() string

	// EmbedModelName returns the identifier of the configured embedding model.
	EmbedModelName() string

	// Close releases provider resources.
	Close() error
}
