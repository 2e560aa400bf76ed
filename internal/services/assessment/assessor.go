// Package assessment scores a generated answer against its retrieved
// context via one structured generation request.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

// Assessor wraps the remote structured-assessment call.
type Assessor struct {
	llmService interfaces.LLMService
	logger     arbor.ILogger
}

// NewAssessor creates a new performance assessor
func NewAssessor(llmService interfaces.LLMService, logger arbor.ILogger) *Assessor {
	return &Assessor{
		llmService: llmService,
		logger:     logger,
	}
}

// assessmentSchema is the JSON schema enforced on the structured response.
var assessmentSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"context_relevance": map[string]interface{}{
			"type":        "number",
			"description": "How relevant the retrieved context is to the query, 0 to 1",
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"response_quality": map[string]interface{}{
			"type":        "number",
			"description": "How well the answer uses the context, 0 to 1",
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"suggested_improvements": map[string]interface{}{
			"type":        "array",
			"description": "Concrete suggestions to improve retrieval or the answer",
			"items": map[string]interface{}{
				"type": "string",
			},
		},
	},
	"required": []string{"context_relevance", "response_quality", "suggested_improvements"},
}

const assessmentInstruction = `You evaluate retrieval-augmented answers. Given a query, the retrieved context, and the generated answer, score on a 0-1 scale:
- context_relevance: how relevant the retrieved context is to the query
- response_quality: how accurately and completely the answer uses the context
Also list concrete suggested_improvements. Respond with JSON only.`

// assessmentResponse mirrors the structured fields the model must return.
type assessmentResponse struct {
	ContextRelevance      *float64 `json:"context_relevance"`
	ResponseQuality       *float64 `json:"response_quality"`
	SuggestedImprovements []string `json:"suggested_improvements"`
}

// Assess issues one structured generation request and parses the result. A
// response that cannot be parsed into the three expected fields fails with
// *models.AssessmentParseError - zeros are never silently substituted.
func (a *Assessor) Assess(ctx context.Context, query string, contextFragments []string, answer string) (*models.Assessment, error) {
	req := &interfaces.GenerateRequest{
		SystemInstruction: assessmentInstruction,
		OutputSchema:      assessmentSchema,
		Messages: []interfaces.Message{
			{Role: "user", Content: buildAssessmentPrompt(query, contextFragments, answer)},
		},
	}

	raw, err := a.llmService.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("assessment request failed: %w", err)
	}

	parsed, err := parseAssessment(raw)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Float64("context_relevance", parsed.ContextRelevance).
		Float64("response_quality", parsed.ResponseQuality).
		Int("suggestions", len(parsed.SuggestedImprovements)).
		Msg("Assessed answer quality")

	return parsed, nil
}

// parseAssessment extracts the assessment fields from the model response.
// Providers that ignore the output schema may wrap the JSON in code fences
// or prose; the first JSON object in the text is used.
func parseAssessment(raw string) (*models.Assessment, error) {
	jsonStr := extractJSONObject(raw)
	if jsonStr == "" {
		return nil, &models.AssessmentParseError{Raw: raw, Cause: fmt.Errorf("no JSON object in response")}
	}

	var resp assessmentResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, &models.AssessmentParseError{Raw: raw, Cause: err}
	}

	if resp.ContextRelevance == nil || resp.ResponseQuality == nil || resp.SuggestedImprovements == nil {
		return nil, &models.AssessmentParseError{Raw: raw, Cause: fmt.Errorf("missing required assessment fields")}
	}

	return &models.Assessment{
		ContextRelevance:      clamp01(*resp.ContextRelevance),
		ResponseQuality:       clamp01(*resp.ResponseQuality),
		SuggestedImprovements: resp.SuggestedImprovements,
	}, nil
}

func buildAssessmentPrompt(query string, contextFragments []string, answer string) string {
	var b strings.Builder

	b.WriteString("## Query\n\n")
	b.WriteString(query)

	b.WriteString("\n\n## Retrieved Context\n\n")
	for i, fragment := range contextFragments {
		fmt.Fprintf(&b, "### Section %d\n%s\n\n", i+1, fragment)
	}

	b.WriteString("## Generated Answer\n\n")
	b.WriteString(answer)

	return b.String()
}

// extractJSONObject returns the first balanced JSON object in the text.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
