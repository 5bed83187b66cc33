package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retail-ops/internal/apperrors"
	"retail-ops/internal/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DocumentRepositoryImpl handles all database operations for documents using
// GORM. This is the implementation; consumers declare the interfaces they
// need (search engine, handlers).
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepositoryImpl {
	return &DocumentRepositoryImpl{db: db}
}

// Create inserts a document together with its tag associations in one
// transaction. A partial write (embedding stored but tags missing, or the
// reverse) must never survive, so the whole unit rolls back on any error.
func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *models.DocumentCreate, vec []float32) (*models.Document, error) {
	document := &models.Document{
		Title:     doc.Title,
		Category:  doc.Category,
		Outline:   doc.Outline,
		Content:   doc.Content,
		Embedding: pgvector.NewVector(vec),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(document).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		for _, name := range doc.Tags {
			if err := attachTagTx(tx, document.ID, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}

// GetByID retrieves a document by its KSUID.
// Soft-deleted documents are automatically excluded.
func (r *DocumentRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document

	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// List returns documents newest-first with pagination.
// KSUIDs are time-ordered, so id DESC is creation order.
func (r *DocumentRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	var documents []*models.Document

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&documents).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return documents, nil
}

// Update modifies a document and, when tags are supplied, rebuilds its
// associations - all inside one transaction. The caller passes a fresh
// embedding whenever title or content changed; nil leaves the vector alone.
func (r *DocumentRepositoryImpl) Update(ctx context.Context, id string, update *models.DocumentUpdate, vec []float32) (*models.Document, error) {
	var doc models.Document

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doc, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("document %s: %w", id, apperrors.ErrNotFound)
			}
			return fmt.Errorf("failed to find document: %w", err)
		}

		updates := make(map[string]interface{})
		if update.Title != nil {
			updates["title"] = *update.Title
		}
		if update.Category != nil {
			updates["category"] = *update.Category
		}
		if update.Outline != nil {
			updates["outline"] = *update.Outline
		}
		if update.Content != nil {
			updates["content"] = *update.Content
		}
		if vec != nil {
			updates["embedding"] = pgvector.NewVector(vec)
		}

		if len(updates) > 0 {
			if err := tx.Model(&doc).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update document: %w", err)
			}
		}

		if update.Tags != nil {
			if err := replaceTagsTx(tx, id, *update.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// Delete performs a soft delete on the document. Tag associations stay in
// place; usage counters are lifetime counters and are never decremented.
func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id)

	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// Feedback atomically increments one of the feedback counters.
func (r *DocumentRepositoryImpl) Feedback(ctx context.Context, id string, kind models.FeedbackKind) error {
	var column string
	switch kind {
	case models.FeedbackHelpful:
		column = "helpful_count"
	case models.FeedbackUnhelpful:
		column = "unhelpful_count"
	default:
		return fmt.Errorf("unknown feedback kind %q: %w", kind, apperrors.ErrValidation)
	}

	result := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))

	if result.Error != nil {
		return fmt.Errorf("failed to record feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// FindCandidates returns every document that can participate in semantic
// search (has an embedding, optionally restricted by category), annotated
// with the pgvector <-> Euclidean distance to the query vector and ordered
// nearest-first. The filter clause is parameterized; no values are ever
// spliced into the SQL text.
func (r *DocumentRepositoryImpl) FindCandidates(ctx context.Context, queryVec []float32, categoryFilter string) ([]models.Candidate, error) {
	vec := pgvector.NewVector(queryVec)

	query := `
		SELECT d.id, d.title, d.category, d.outline, d.content,
		       d.helpful_count, d.unhelpful_count,
		       d.embedding <-> ? AS distance
		FROM documents d
		WHERE d.deleted_at IS NULL AND d.embedding IS NOT NULL`
	args := []interface{}{vec}

	if categoryFilter != "" {
		query += ` AND LOWER(d.category) = LOWER(?)`
		args = append(args, categoryFilter)
	}
	query += ` ORDER BY distance ASC`

	var candidates []models.Candidate
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return candidates, nil
}

// ExactCandidates returns documents whose title contains the query as a
// case-insensitive substring, newest-first.
func (r *DocumentRepositoryImpl) ExactCandidates(ctx context.Context, query, categoryFilter string) ([]models.Candidate, error) {
	tx := r.db.WithContext(ctx).Model(&models.Document{}).
		Select("id, title, category, outline, content, helpful_count, unhelpful_count").
		Where("title ILIKE ?", "%"+escapeLike(query)+"%")

	if categoryFilter != "" {
		tx = tx.Where("LOWER(category) = LOWER(?)", categoryFilter)
	}

	var candidates []models.Candidate
	if err := tx.Order("id DESC").Scan(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to find exact candidates: %w", err)
	}
	return candidates, nil
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
