package repository

import (
	"context"
	"errors"
	"fmt"

	"retail-ops/internal/apperrors"
	"retail-ops/internal/models"

	"gorm.io/gorm"
)

// TagRepositoryImpl maintains the tag/category controlled vocabulary and
// the (document, tag) association set.
type TagRepositoryImpl struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) *TagRepositoryImpl {
	return &TagRepositoryImpl{db: db}
}

// attachTagTx attaches one tag to a document inside an existing transaction.
// Idempotent: if the association already exists nothing changes, including
// the usage counter. On a first-time attach the tag row is created with
// usage_count 1, or its counter is bumped by one.
func attachTagTx(tx *gorm.DB, documentID, name string) error {
	var existing models.DocumentTag
	err := tx.First(&existing, "document_id = ? AND tag_name = ?", documentID, name).Error
	if err == nil {
		return nil // already associated
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check association: %w", err)
	}

	var tag models.Tag
	err = tx.First(&tag, "name = ?", name).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		tag = models.Tag{Name: name, UsageCount: 1}
		if err := tx.Create(&tag).Error; err != nil {
			return fmt.Errorf("failed to create tag %q: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up tag %q: %w", name, err)
	default:
		if err := tx.Model(&models.Tag{}).
			Where("name = ?", name).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to bump tag usage: %w", err)
		}
	}

	assoc := models.DocumentTag{DocumentID: documentID, TagName: name}
	if err := tx.Create(&assoc).Error; err != nil {
		// Concurrent attach of the same pair: the composite key makes the
		// duplicate insert fail, which is the idempotent outcome we want.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to create association: %w", err)
	}
	return nil
}

// replaceTagsTx drops every association for the document and re-attaches the
// new set. Removed tags keep their usage_count: it tracks lifetime
// attachments ever made, not currently-live references.
func replaceTagsTx(tx *gorm.DB, documentID string, names []string) error {
	if err := tx.Where("document_id = ?", documentID).
		Delete(&models.DocumentTag{}).Error; err != nil {
		return fmt.Errorf("failed to clear associations: %w", err)
	}
	for _, name := range names {
		if err := attachTagTx(tx, documentID, name); err != nil {
			return err
		}
	}
	return nil
}

// AttachTag attaches a tag to a document in its own transaction.
func (r *TagRepositoryImpl) AttachTag(ctx context.Context, documentID, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return attachTagTx(tx, documentID, name)
	})
}

// ReplaceTags rebuilds a document's tag set in one transaction.
func (r *TagRepositoryImpl) ReplaceTags(ctx context.Context, documentID string, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceTagsTx(tx, documentID, names)
	})
}

// TagsForDocument returns the tag names attached to one document.
// Always a non-nil slice.
func (r *TagRepositoryImpl) TagsForDocument(ctx context.Context, documentID string) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).Model(&models.DocumentTag{}).
		Where("document_id = ?", documentID).
		Order("tag_name").
		Pluck("tag_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return names, nil
}

// TagsForDocuments aggregates tag names for a batch of documents in one
// query. Documents without tags get an empty slice, never nil.
func (r *TagRepositoryImpl) TagsForDocuments(ctx context.Context, documentIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(documentIDs))
	for _, id := range documentIDs {
		result[id] = []string{}
	}
	if len(documentIDs) == 0 {
		return result, nil
	}

	var assocs []models.DocumentTag
	err := r.db.WithContext(ctx).
		Where("document_id IN ?", documentIDs).
		Order("tag_name").
		Find(&assocs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}

	for _, a := range assocs {
		result[a.DocumentID] = append(result[a.DocumentID], a.TagName)
	}
	return result, nil
}

// ListTags returns the whole tag vocabulary, most used first.
func (r *TagRepositoryImpl) ListTags(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.WithContext(ctx).
		Order("usage_count DESC, name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// DeleteTag removes a tag from the vocabulary along with its associations.
// Documents already carrying the name keep it as an orphaned string.
func (r *TagRepositoryImpl) DeleteTag(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Tag{}, "name = ?", name)
		if result.Error != nil {
			return fmt.Errorf("failed to delete tag: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("tag %q: %w", name, apperrors.ErrNotFound)
		}
		if err := tx.Where("tag_name = ?", name).
			Delete(&models.DocumentTag{}).Error; err != nil {
			return fmt.Errorf("failed to delete associations: %w", err)
		}
		return nil
	})
}

// Category vocabulary

func (r *TagRepositoryImpl) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	cat := &models.Category{Name: name}
	if err := r.db.WithContext(ctx).Create(cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("category %q already exists: %w", name, apperrors.ErrValidation)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return cat, nil
}

func (r *TagRepositoryImpl) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category from the vocabulary. Documents carrying
// the name are not touched; they become orphaned but stay valid.
func (r *TagRepositoryImpl) DeleteCategory(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, "name = ?", name)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category %q: %w", name, apperrors.ErrNotFound)
	}
	return nil
}
