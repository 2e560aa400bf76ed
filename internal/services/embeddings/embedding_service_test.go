package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

type fakeLLMService struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)
	calls     int
}

func (f *fakeLLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.embedFunc != nil {
		return f.embedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeLLMService) Generate(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeLLMService) ModelName() string      { return "fake-model" }
func (f *fakeLLMService) EmbedModelName() string { return "fake-embed-model" }
func (f *fakeLLMService) Close() error           { return nil }

func TestGenerateEmbedding_Success(t *testing.T) {
	llm := &fakeLLMService{}
	svc := NewService(llm, 3, 0, arbor.NewLogger())

	vector, err := svc.GenerateEmbedding(context.Background(), "some text")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, 1, llm.calls)
}

func TestGenerateEmbedding_EmptyTextRejected(t *testing.T) {
	llm := &fakeLLMService{}
	svc := NewService(llm, 3, 0, arbor.NewLogger())

	_, err := svc.GenerateEmbedding(context.Background(), "")

	assert.Error(t, err)
	assert.Zero(t, llm.calls, "remote service must not be called for empty text")
}

func TestGenerateEmbedding_RemoteFailureIsTyped(t *testing.T) {
	cause := errors.New("quota exceeded")
	llm := &fakeLLMService{
		embedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, cause
		},
	}
	svc := NewService(llm, 3, 0, arbor.NewLogger())

	vector, err := svc.GenerateEmbedding(context.Background(), "text")

	assert.Nil(t, vector, "no placeholder vector on failure")
	var embErr *models.EmbeddingServiceError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, "fake-embed-model", embErr.Model)
	assert.ErrorIs(t, err, cause)
}

func TestGenerateEmbedding_EmptyVectorIsError(t *testing.T) {
	llm := &fakeLLMService{
		embedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{}, nil
		},
	}
	svc := NewService(llm, 3, 0, arbor.NewLogger())

	_, err := svc.GenerateEmbedding(context.Background(), "text")

	var embErr *models.EmbeddingServiceError
	assert.ErrorAs(t, err, &embErr)
}

func TestGenerateEmbedding_RateLimiterSpacesCalls(t *testing.T) {
	llm := &fakeLLMService{}
	interval := 30 * time.Millisecond
	svc := NewService(llm, 3, interval, arbor.NewLogger())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := svc.GenerateEmbedding(context.Background(), "text")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// First call is immediate, the next two wait one interval each.
	assert.GreaterOrEqual(t, elapsed, 2*interval)
}

func TestGenerateQueryEmbedding_DelegatesToEmbed(t *testing.T) {
	llm := &fakeLLMService{}
	svc := NewService(llm, 3, 0, arbor.NewLogger())

	vector, err := svc.GenerateQueryEmbedding(context.Background(), "a query")

	require.NoError(t, err)
	assert.NotEmpty(t, vector)
	assert.Equal(t, 1, llm.calls)
}

func TestServiceMetadata(t *testing.T) {
	svc := NewService(&fakeLLMService{}, 768, 0, arbor.NewLogger())

	assert.Equal(t, "fake-embed-model", svc.ModelName())
	assert.Equal(t, 768, svc.Dimension())
}
