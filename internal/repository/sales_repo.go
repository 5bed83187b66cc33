package repository

import (
	"context"
	"fmt"

	"retail-ops/internal/models"

	"gorm.io/gorm"
)

// SalesRepositoryImpl is the historical sales source backing the
// forecasting orchestrator.
type SalesRepositoryImpl struct {
	db *gorm.DB
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(db *gorm.DB) *SalesRepositoryImpl {
	return &SalesRepositoryImpl{db: db}
}

// ReadSeries returns the ordered (date, quantity) series for one product.
// Rows on the same date are additive observations, so they are summed into
// a single point at read time.
func (r *SalesRepositoryImpl) ReadSeries(ctx context.Context, productID string) ([]models.SalesPoint, error) {
	var points []models.SalesPoint
	err := r.db.WithContext(ctx).Model(&models.SalesRecord{}).
		Select("transaction_date AS date, SUM(quantity) AS quantity").
		Where("product_id = ?", productID).
		Group("transaction_date").
		Order("transaction_date ASC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read series for %s: %w", productID, err)
	}
	return points, nil
}

// ListProductIDs returns every distinct product with at least one record.
func (r *SalesRepositoryImpl) ListProductIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.SalesRecord{}).
		Distinct("product_id").
		Order("product_id").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product ids: %w", err)
	}
	return ids, nil
}

// ReloadAll replaces the whole sales table with a fresh ingestion batch.
// Truncate plus reinsert in one transaction - the source data is a full
// export, not a delta.
func (r *SalesRepositoryImpl) ReloadAll(ctx context.Context, records []models.SalesRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SalesRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear sales data: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("failed to insert sales data: %w", err)
		}
		return nil
	})
}

// AppendBatch adds one ingestion batch without touching existing rows.
func (r *SalesRepositoryImpl) AppendBatch(ctx context.Context, records []models.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(records, 500).Error; err != nil {
		return fmt.Errorf("failed to append sales data: %w", err)
	}
	return nil
}
