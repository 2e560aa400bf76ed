package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

// DocumentStorage implements the DocumentStorage interface for Badger
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DocumentStorage) SaveDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *DocumentStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (s *DocumentStorage) DeleteDocument(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Document{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// UpdateProcessingMetadata replaces the processing metadata of a document.
// Badgerhold upserts are atomic per key, so readers see either the old or
// the new metadata, never a mix.
func (s *DocumentStorage) UpdateProcessingMetadata(ctx context.Context, id string, meta models.ProcessingMetadata) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	doc.Processing = meta
	doc.UpdatedAt = time.Now()

	if err := s.db.Store().Update(id, doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
		}
		return fmt.Errorf("failed to update document metadata: %w", err)
	}
	return nil
}

func (s *DocumentStorage) ListPending(ctx context.Context, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		return nil, nil
	}

	var all []models.Document
	if err := s.db.Store().Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var pending []*models.Document
	for i := range all {
		doc := &all[i]
		if doc.Processing.RAGEnabled && !doc.Processing.Processed {
			pending = append(pending, doc)
			if len(pending) >= limit {
				break
			}
		}
	}
	return pending, nil
}

func (s *DocumentStorage) CountDocuments(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Document{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}
