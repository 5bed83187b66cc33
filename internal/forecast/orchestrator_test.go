package forecast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"retail-ops/internal/apperrors"
	"retail-ops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSales struct {
	series map[string][]models.SalesPoint
}

func (m *memSales) ReadSeries(ctx context.Context, productID string) ([]models.SalesPoint, error) {
	return m.series[productID], nil
}

func (m *memSales) ListProductIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.series))
	for id := range m.series {
		ids = append(ids, id)
	}
	return ids, nil
}

type recordingSink struct {
	events []ProgressEvent
}

func (r *recordingSink) Publish(e ProgressEvent) {
	r.events = append(r.events, e)
}

func history(days int) []models.SalesPoint {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	series := make([]models.SalesPoint, days)
	for i := range series {
		series[i] = models.SalesPoint{Date: start.AddDate(0, 0, i), Quantity: float64(5 + i%3)}
	}
	return series
}

func newTestOrchestrator(t *testing.T, sales *memSales) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)
	return NewOrchestrator(sales, store, NewTrendFitter(), 14, 2, nil), dir
}

func TestTrainInsufficientData(t *testing.T) {
	sales := &memSales{series: map[string][]models.SalesPoint{"p1": history(10)}}
	o, _ := newTestOrchestrator(t, sales)

	err := o.Train(context.Background(), "p1")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	_, err = o.Predict(context.Background(), "p1", 7)
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestTrainThenPredict(t *testing.T) {
	sales := &memSales{series: map[string][]models.SalesPoint{"p2": history(20)}}
	o, _ := newTestOrchestrator(t, sales)

	require.NoError(t, o.Train(context.Background(), "p2"))

	preds, err := o.Predict(context.Background(), "p2", 7)
	require.NoError(t, err)
	require.Len(t, preds, 7)

	// Chronological, starting the day after the last historical date
	last := history(20)[19].Date
	for i, p := range preds {
		assert.Equal(t, last.AddDate(0, 0, i+1).Format("2006-01-02"), p.Date)
	}
}

func TestFailedRetrainLeavesArtifactUntouched(t *testing.T) {
	sales := &memSales{series: map[string][]models.SalesPoint{"p": history(20)}}
	o, dir := newTestOrchestrator(t, sales)

	require.NoError(t, o.Train(context.Background(), "p"))

	path := filepath.Join(dir, "p.gob")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// History shrinks below the minimum: the retrain must fail and leave
	// the persisted artifact byte-for-byte unchanged.
	sales.series["p"] = history(10)
	err = o.Train(context.Background(), "p")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// And prediction still works off the prior model.
	preds, err := o.Predict(context.Background(), "p", 3)
	require.NoError(t, err)
	assert.Len(t, preds, 3)
}

func TestPredictLoadsFromDiskOnColdCache(t *testing.T) {
	sales := &memSales{series: map[string][]models.SalesPoint{"p": history(20)}}
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	trainer := NewOrchestrator(sales, store, NewTrendFitter(), 14, 1, nil)
	require.NoError(t, trainer.Train(context.Background(), "p"))

	// Fresh orchestrator, empty memory cache, same disk: the lifecycle
	// cache falls through to the persisted artifact.
	server := NewOrchestrator(sales, store, NewTrendFitter(), 14, 1, nil)
	assert.False(t, server.Cached("p"))

	preds, err := server.Predict(context.Background(), "p", 5)
	require.NoError(t, err)
	assert.Len(t, preds, 5)
	assert.True(t, server.Cached("p"))
}

func TestPredictSurfacesCorruptArtifact(t *testing.T) {
	sales := &memSales{series: map[string][]models.SalesPoint{}}
	o, dir := newTestOrchestrator(t, sales)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.gob"), []byte("not a gob"), 0o644))

	_, err := o.Predict(context.Background(), "p", 7)
	assert.ErrorIs(t, err, apperrors.ErrStorageCorruption)
	assert.NotErrorIs(t, err, ErrNotTrained)
}

func TestTrainAllIsolatesFailures(t *testing.T) {
	sales := &memSales{series: map[string][]models.SalesPoint{
		"ok1":   history(20),
		"ok2":   history(30),
		"short": history(5),
	}}
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	sink := &recordingSink{}
	o := NewOrchestrator(sales, store, NewTrendFitter(), 14, 1, sink)

	result, err := o.TrainAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.ElementsMatch(t, []string{"ok1", "ok2"}, result.Trained)
	assert.Contains(t, result.Skipped, "short")
	assert.Empty(t, result.Failed)
	assert.NotEmpty(t, result.RunID)

	// started + one per product + finished
	require.Len(t, sink.events, 5)
	assert.Equal(t, "started", sink.events[0].Status)
	assert.Equal(t, "finished", sink.events[len(sink.events)-1].Status)
}

func TestPredictValidation(t *testing.T) {
	o, _ := newTestOrchestrator(t, &memSales{series: map[string][]models.SalesPoint{}})

	_, err := o.Predict(context.Background(), "", 7)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = o.Predict(context.Background(), "p", 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
