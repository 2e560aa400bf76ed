// Package synthesis builds one generation request from a query and its
// retrieved context and returns the raw answer text.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

// Synthesizer wraps the remote generation call for answer synthesis.
type Synthesizer struct {
	llmService interfaces.LLMService
	logger     arbor.ILogger
}

// NewSynthesizer creates a new response synthesizer
func NewSynthesizer(llmService interfaces.LLMService, logger arbor.ILogger) *Synthesizer {
	return &Synthesizer{
		llmService: llmService,
		logger:     logger,
	}
}

// Synthesize answers the query from the supplied context fragments. An empty
// response from the generation service is a failure
// (models.ErrGenerationEmptyResponse), not an empty string.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, contextFragments []string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query cannot be empty")
	}

	req := &interfaces.GenerateRequest{
		SystemInstruction: SystemPrompt,
		Messages: []interfaces.Message{
			{Role: "user", Content: buildPrompt(query, contextFragments)},
		},
	}

	answer, err := s.llmService.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}

	if strings.TrimSpace(answer) == "" {
		return "", models.ErrGenerationEmptyResponse
	}

	s.logger.Debug().
		Int("context_fragments", len(contextFragments)).
		Int("answer_length", len(answer)).
		Msg("Synthesized answer")

	return answer, nil
}

// buildPrompt concatenates the numbered context sections and the query.
func buildPrompt(query string, contextFragments []string) string {
	var b strings.Builder

	b.WriteString("## Context\n\n")
	if len(contextFragments) == 0 {
		b.WriteString("(no context available)\n")
	}
	for i, fragment := range contextFragments {
		fmt.Fprintf(&b, "### Section %d\n%s\n\n", i+1, fragment)
	}

	b.WriteString("## Question\n\n")
	b.WriteString(query)

	return b.String()
}
