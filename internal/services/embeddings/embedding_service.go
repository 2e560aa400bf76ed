// Package embeddings wraps the remote embedding call used by both ingestion
// and querying.
package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

// Service implements the EmbeddingService interface. A rate limiter bounds
// the request rate against the remote embedding service so a large document
// cannot overwhelm it.
type Service struct {
	llmService interfaces.LLMService
	limiter    *rate.Limiter
	dimension  int
	logger     arbor.ILogger
}

// NewService creates a new embedding service. minInterval is the minimum
// spacing between remote calls; zero disables rate limiting.
func NewService(llmService interfaces.LLMService, dimension int, minInterval time.Duration, logger arbor.ILogger) interfaces.EmbeddingService {
	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}

	return &Service{
		llmService: llmService,
		limiter:    limiter,
		dimension:  dimension,
		logger:     logger,
	}
}

// GenerateEmbedding creates a vector embedding for text. A remote failure
// surfaces as *models.EmbeddingServiceError carrying the cause; a zero or
// placeholder vector is never substituted.
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &models.EmbeddingServiceError{Model: s.ModelName(), Cause: err}
		}
	}

	start := time.Now()
	embedding, err := s.llmService.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		return nil, &models.EmbeddingServiceError{Model: s.ModelName(), Cause: err}
	}

	if len(embedding) == 0 {
		return nil, &models.EmbeddingServiceError{
			Model: s.ModelName(),
			Cause: fmt.Errorf("service returned empty embedding"),
		}
	}

	s.logger.Debug().
		Str("model", s.ModelName()).
		Int("embedding_dim", len(embedding)).
		Dur("duration", duration).
		Msg("Generated embedding")

	return embedding, nil
}

// GenerateQueryEmbedding generates an embedding for a search query.
func (s *Service) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return s.GenerateEmbedding(ctx, query)
}

// ModelName returns the embedding model identifier
func (s *Service) ModelName() string {
	return s.llmService.EmbedModelName()
}

// Dimension returns the embedding dimension
func (s *Service) Dimension() int {
	return s.dimension
}
