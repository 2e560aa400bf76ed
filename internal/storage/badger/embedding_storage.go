package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

// EmbeddingStorage implements the EmbeddingStorage interface for Badger.
// All records for one document are written in a single Badger transaction so
// a concurrent reader sees either all of them or none.
type EmbeddingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEmbeddingStorage creates a new EmbeddingStorage instance
func NewEmbeddingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EmbeddingStorage {
	return &EmbeddingStorage{
		db:     db,
		logger: logger,
	}
}

func (s *EmbeddingStorage) PutEmbeddings(ctx context.Context, documentID string, records []*models.EmbeddingRecord) error {
	if documentID == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	for _, rec := range records {
		if rec.DocumentID != documentID {
			return fmt.Errorf("embedding record %s belongs to document %s, not %s", rec.ID, rec.DocumentID, documentID)
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		for _, rec := range records {
			if err := s.db.Store().TxUpsert(txn, rec.ID, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put embeddings for %s: %w", documentID, err)
	}

	s.logger.Debug().
		Str("document_id", documentID).
		Int("count", len(records)).
		Msg("Persisted embedding records")

	return nil
}

// GetEmbeddings returns the records for exactly the given document ids, in
// source order per document. An empty id list yields an empty result, never
// a full scan.
func (s *EmbeddingStorage) GetEmbeddings(ctx context.Context, documentIDs []string) ([]*models.EmbeddingRecord, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	var result []*models.EmbeddingRecord
	for _, docID := range documentIDs {
		var records []models.EmbeddingRecord
		query := badgerhold.Where("DocumentID").Eq(docID).SortBy("Ordinal")
		if err := s.db.Store().Find(&records, query); err != nil {
			return nil, fmt.Errorf("failed to get embeddings for %s: %w", docID, err)
		}
		for i := range records {
			result = append(result, &records[i])
		}
	}
	return result, nil
}

func (s *EmbeddingStorage) DeleteEmbeddings(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("document ID is required")
	}

	query := badgerhold.Where("DocumentID").Eq(documentID)
	if err := s.db.Store().DeleteMatching(&models.EmbeddingRecord{}, query); err != nil {
		return fmt.Errorf("failed to delete embeddings for %s: %w", documentID, err)
	}
	return nil
}

func (s *EmbeddingStorage) CountEmbeddings(ctx context.Context, documentID string) (int, error) {
	query := badgerhold.Where("DocumentID").Eq(documentID)
	count, err := s.db.Store().Count(&models.EmbeddingRecord{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings for %s: %w", documentID, err)
	}
	return int(count), nil
}
