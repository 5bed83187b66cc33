package repository

import (
	"context"
	"testing"
	"time"

	"retail-ops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReadSeriesSumsSameDateObservations(t *testing.T) {
	repo := NewSalesRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, []models.SalesRecord{
		{ProductID: "p1", TransactionDate: date(2026, 6, 2), Quantity: 3},
		{ProductID: "p1", TransactionDate: date(2026, 6, 1), Quantity: 5},
		// Same-date rows are additive observations, not replacements.
		{ProductID: "p1", TransactionDate: date(2026, 6, 2), Quantity: 4},
		{ProductID: "p2", TransactionDate: date(2026, 6, 1), Quantity: 99},
	}))

	series, err := repo.ReadSeries(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, 5.0, series[0].Quantity)
	assert.Equal(t, 7.0, series[1].Quantity)
	assert.True(t, series[0].Date.Before(series[1].Date))
}

func TestReadSeriesUnknownProductIsEmpty(t *testing.T) {
	repo := NewSalesRepository(testDB(t))

	series, err := repo.ReadSeries(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestListProductIDs(t *testing.T) {
	repo := NewSalesRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, []models.SalesRecord{
		{ProductID: "b", TransactionDate: date(2026, 6, 1), Quantity: 1},
		{ProductID: "a", TransactionDate: date(2026, 6, 1), Quantity: 1},
		{ProductID: "a", TransactionDate: date(2026, 6, 2), Quantity: 1},
	}))

	ids, err := repo.ListProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestReloadAllTruncatesPriorData(t *testing.T) {
	repo := NewSalesRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, []models.SalesRecord{
		{ProductID: "old", TransactionDate: date(2026, 1, 1), Quantity: 10},
	}))

	require.NoError(t, repo.ReloadAll(ctx, []models.SalesRecord{
		{ProductID: "new", TransactionDate: date(2026, 6, 1), Quantity: 2},
	}))

	ids, err := repo.ListProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}
