// Package query answers natural-language queries against stored document
// embeddings.
package query

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
	"github.com/corvid-labs/lectern/internal/services/assessment"
	"github.com/corvid-labs/lectern/internal/services/ranking"
	"github.com/corvid-labs/lectern/internal/services/synthesis"
)

// Service implements the QueryService interface. The steps of one query are
// strictly sequential - each depends on the previous step's output - and the
// whole query fails atomically: a QueryResult is always complete.
type Service struct {
	embeddings  interfaces.EmbeddingStorage
	embedder    interfaces.EmbeddingService
	synthesizer *synthesis.Synthesizer
	assessor    *assessment.Assessor
	defaultTopK int
	logger      arbor.ILogger
}

// NewService creates a new query service
func NewService(
	embeddings interfaces.EmbeddingStorage,
	embedder interfaces.EmbeddingService,
	synthesizer *synthesis.Synthesizer,
	assessor *assessment.Assessor,
	defaultTopK int,
	logger arbor.ILogger,
) *Service {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &Service{
		embeddings:  embeddings,
		embedder:    embedder,
		synthesizer: synthesizer,
		assessor:    assessor,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// Answer runs one query end to end: load candidate embeddings for exactly
// the given documents, embed the query, rank by cosine similarity,
// synthesize an answer from the top fragments, and assess it. topK <= 0
// selects the configured default.
//
// An empty documentIDs list means an empty candidate set, not all documents.
func (s *Service) Answer(ctx context.Context, query string, documentIDs []string, topK int) (*models.QueryResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	records, err := s.embeddings.GetEmbeddings(ctx, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate embeddings: %w", err)
	}

	queryVector, err := s.embedder.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates := make([]ranking.Candidate, len(records))
	for i, rec := range records {
		candidates[i] = ranking.Candidate{Text: rec.Text, Vector: rec.Vector}
	}

	ranked := ranking.Rank(queryVector, candidates, topK)
	contextFragments := make([]string, len(ranked))
	for i, c := range ranked {
		contextFragments[i] = c.Text
	}

	answer, err := s.synthesizer.Synthesize(ctx, query, contextFragments)
	if err != nil {
		return nil, err
	}

	assess, err := s.assessor.Assess(ctx, query, contextFragments, answer)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("candidates", len(candidates)).
		Int("context_fragments", len(contextFragments)).
		Int("documents", len(documentIDs)).
		Msg("Query answered")

	return &models.QueryResult{
		Query:      query,
		Context:    contextFragments,
		Answer:     answer,
		Assessment: *assess,
	}, nil
}
