package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

type fakeLLMService struct {
	generateFunc func(ctx context.Context, req *interfaces.GenerateRequest) (string, error)
	lastRequest  *interfaces.GenerateRequest
}

func (f *fakeLLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLLMService) Generate(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
	f.lastRequest = req
	if f.generateFunc != nil {
		return f.generateFunc(ctx, req)
	}
	return "", nil
}

func (f *fakeLLMService) ModelName() string      { return "fake-model" }
func (f *fakeLLMService) EmbedModelName() string { return "fake-embed-model" }
func (f *fakeLLMService) Close() error           { return nil }

func TestAssess_ParsesStructuredResponse(t *testing.T) {
	llm := &fakeLLMService{
		generateFunc: func(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
			return `{"context_relevance": 0.8, "response_quality": 0.9, "suggested_improvements": ["add more context"]}`, nil
		},
	}
	a := NewAssessor(llm, arbor.NewLogger())

	result, err := a.Assess(context.Background(), "query", []string{"ctx"}, "answer")

	require.NoError(t, err)
	assert.Equal(t, 0.8, result.ContextRelevance)
	assert.Equal(t, 0.9, result.ResponseQuality)
	assert.Equal(t, []string{"add more context"}, result.SuggestedImprovements)
}

func TestAssess_RequestsStructuredOutput(t *testing.T) {
	llm := &fakeLLMService{
		generateFunc: func(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
			return `{"context_relevance": 0.5, "response_quality": 0.5, "suggested_improvements": []}`, nil
		},
	}
	a := NewAssessor(llm, arbor.NewLogger())

	_, err := a.Assess(context.Background(), "the query", []string{"frag one", "frag two"}, "the answer")
	require.NoError(t, err)

	require.NotNil(t, llm.lastRequest)
	assert.NotNil(t, llm.lastRequest.OutputSchema)
	prompt := llm.lastRequest.Messages[0].Content
	assert.Contains(t, prompt, "the query")
	assert.Contains(t, prompt, "frag one")
	assert.Contains(t, prompt, "frag two")
	assert.Contains(t, prompt, "the answer")
}

func TestAssess_CodeFencedJSON(t *testing.T) {
	llm := &fakeLLMService{
		generateFunc: func(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
			return "```json\n{\"context_relevance\": 0.4, \"response_quality\": 0.6, \"suggested_improvements\": []}\n```", nil
		},
	}
	a := NewAssessor(llm, arbor.NewLogger())

	result, err := a.Assess(context.Background(), "query", nil, "answer")

	require.NoError(t, err)
	assert.Equal(t, 0.4, result.ContextRelevance)
	assert.Equal(t, 0.6, result.ResponseQuality)
}

func TestAssess_MissingFieldsIsParseError(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "missing response_quality", response: `{"context_relevance": 0.8, "suggested_improvements": []}`},
		{name: "missing context_relevance", response: `{"response_quality": 0.8, "suggested_improvements": []}`},
		{name: "missing suggestions", response: `{"context_relevance": 0.8, "response_quality": 0.9}`},
		{name: "no JSON at all", response: "I think the answer was pretty good."},
		{name: "malformed JSON", response: `{"context_relevance": `},
		{name: "empty response", response: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLMService{
				generateFunc: func(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
					return tt.response, nil
				},
			}
			a := NewAssessor(llm, arbor.NewLogger())

			result, err := a.Assess(context.Background(), "query", nil, "answer")

			assert.Nil(t, result, "no partial assessment on parse failure")
			var parseErr *models.AssessmentParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.response, parseErr.Raw)
		})
	}
}

func TestAssess_ScoresClampedToUnitRange(t *testing.T) {
	llm := &fakeLLMService{
		generateFunc: func(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
			return `{"context_relevance": 1.7, "response_quality": -0.3, "suggested_improvements": []}`, nil
		},
	}
	a := NewAssessor(llm, arbor.NewLogger())

	result, err := a.Assess(context.Background(), "query", nil, "answer")

	require.NoError(t, err)
	assert.Equal(t, 1.0, result.ContextRelevance)
	assert.Equal(t, 0.0, result.ResponseQuality)
}

func TestAssess_GenerationErrorPropagates(t *testing.T) {
	cause := errors.New("provider down")
	llm := &fakeLLMService{
		generateFunc: func(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
			return "", cause
		},
	}
	a := NewAssessor(llm, arbor.NewLogger())

	_, err := a.Assess(context.Background(), "query", nil, "answer")

	assert.ErrorIs(t, err, cause)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "bare object", text: `{"a": 1}`, want: `{"a": 1}`},
		{name: "object in prose", text: `Sure! Here it is: {"a": 1} hope that helps`, want: `{"a": 1}`},
		{name: "nested objects", text: `{"a": {"b": 2}}`, want: `{"a": {"b": 2}}`},
		{name: "brace inside string", text: `{"a": "}"}`, want: `{"a": "}"}`},
		{name: "unbalanced", text: `{"a": 1`, want: ""},
		{name: "no object", text: "nothing here", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONObject(tt.text))
		})
	}
}
