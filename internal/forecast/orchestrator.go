package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"retail-ops/internal/apperrors"
	"retail-ops/internal/middleware"
	"retail-ops/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotTrained distinguishes "no model for this product yet" from a plain
// missing entity, so callers can prompt for training instead of a 404 retry.
var ErrNotTrained = fmt.Errorf("model not trained: %w", apperrors.ErrNotFound)

// SalesSource is the historical sales data the orchestrator trains from.
type SalesSource interface {
	ReadSeries(ctx context.Context, productID string) ([]models.SalesPoint, error)
	ListProductIDs(ctx context.Context) ([]string, error)
}

// ArtifactStore is durable model storage: save and load by key only.
type ArtifactStore interface {
	Save(key string, model *Model) error
	Load(key string) (*Model, error)
}

// ProgressSink receives batch-training progress events. The websocket hub
// implements it; a no-op sink is fine for tests.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// ProgressEvent is one unit of batch-training progress.
type ProgressEvent struct {
	RunID     string `json:"run_id"`
	ProductID string `json:"product_id,omitempty"`
	Status    string `json:"status"` // started | trained | skipped | failed | finished
	Error     string `json:"error,omitempty"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
}

// BatchResult aggregates a whole-catalog training run. Per-product failures
// are isolated and reported here, never aborting the batch.
type BatchResult struct {
	RunID   string            `json:"run_id"`
	Total   int               `json:"total"`
	Trained []string          `json:"trained"`
	Skipped map[string]string `json:"skipped"` // product -> reason
	Failed  map[string]string `json:"failed"`  // product -> error
}

// Orchestrator owns the forecast model lifecycle: explicit training that
// persists and caches artifacts, and prediction served through the
// lifecycle cache. Training never runs implicitly inside a predict.
type Orchestrator struct {
	sales     SalesSource
	store     ArtifactStore
	cache     *Cache[*Model]
	fitter    Fitter
	minPoints int
	workers   int
	progress  ProgressSink

	// Serializes Train per product so a re-train cannot interleave its
	// save and cache publish with another train of the same key.
	trainMu sync.Map // productID -> *sync.Mutex
}

// NewOrchestrator wires the orchestrator. The cache reads through to the
// artifact store; training is the only writer.
func NewOrchestrator(sales SalesSource, store ArtifactStore, fitter Fitter, minPoints, workers int, progress ProgressSink) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		sales:     sales,
		store:     store,
		cache:     NewCache(store.Load),
		fitter:    fitter,
		minPoints: minPoints,
		workers:   workers,
		progress:  progress,
	}
}

// Train fits and persists the model for one product. Fewer than the minimum
// distinct time points reports ErrInsufficientData and leaves any previously
// trained artifact untouched, on disk and in memory.
func (o *Orchestrator) Train(ctx context.Context, productID string) error {
	ctx, span := middleware.StartSpan(ctx, "Forecast.Train",
		attribute.String("product_id", productID),
	)
	defer span.End()

	if productID == "" {
		return fmt.Errorf("product_id must not be empty: %w", apperrors.ErrValidation)
	}

	mu := o.lockFor(productID)
	mu.Lock()
	defer mu.Unlock()

	series, err := o.sales.ReadSeries(ctx, productID)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return err
	}

	// One point per distinct date; the repository aggregates duplicates.
	if len(series) < o.minPoints {
		return fmt.Errorf("product %s has %d distinct time points, need %d: %w",
			productID, len(series), o.minPoints, apperrors.ErrInsufficientData)
	}

	model, err := o.fitter.Fit(productID, series)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return fmt.Errorf("failed to fit model for %s: %w", productID, err)
	}

	// Persist first, then publish to the cache: the cache must never hold
	// an artifact that durable storage does not.
	if err := o.store.Save(productID, model); err != nil {
		middleware.AddSpanError(ctx, err)
		return err
	}
	o.cache.Put(productID, model)

	log.Printf("✓ Trained forecast model for %s (%d points)", productID, len(series))
	return nil
}

// Predict serves a forecast through the lifecycle cache: memory, then disk.
// It never trains. Absent model reports ErrNotTrained.
func (o *Orchestrator) Predict(ctx context.Context, productID string, horizonDays int) ([]Prediction, error) {
	ctx, span := middleware.StartSpan(ctx, "Forecast.Predict",
		attribute.String("product_id", productID),
		attribute.Int("horizon_days", horizonDays),
	)
	defer span.End()

	if productID == "" {
		return nil, fmt.Errorf("product_id must not be empty: %w", apperrors.ErrValidation)
	}
	if horizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive: %w", apperrors.ErrValidation)
	}

	model, err := o.cache.GetOrLoad(productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStorageCorruption) {
			middleware.AddSpanError(ctx, err)
			return nil, err
		}
		if IsNotFound(err) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotTrained)
		}
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	return model.Forecast(horizonDays)
}

// TrainAll trains every product discovered in the sales history over a
// fixed worker pool. Per-product failures are caught, logged and collected;
// the batch always runs to completion. Interruption via ctx takes effect
// between products, never mid-fit.
func (o *Orchestrator) TrainAll(ctx context.Context) (*BatchResult, error) {
	ctx, span := middleware.StartSpan(ctx, "Forecast.TrainAll")
	defer span.End()

	ids, err := o.sales.ListProductIDs(ctx)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	result := &BatchResult{
		RunID:   uuid.NewString(),
		Total:   len(ids),
		Trained: []string{},
		Skipped: map[string]string{},
		Failed:  map[string]string{},
	}
	o.publish(ProgressEvent{RunID: result.RunID, Status: "started", Total: result.Total})
	log.Printf("🚀 Batch training run %s: %d products, %d workers", result.RunID, len(ids), o.workers)

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	done := 0

	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pid := range jobs {
				err := o.Train(ctx, pid)

				mu.Lock()
				done++
				status := "trained"
				errMsg := ""
				switch {
				case err == nil:
					result.Trained = append(result.Trained, pid)
				case errors.Is(err, apperrors.ErrInsufficientData):
					status = "skipped"
					errMsg = err.Error()
					result.Skipped[pid] = err.Error()
					log.Printf("⚠️  Skipping %s: %v", pid, err)
				default:
					status = "failed"
					errMsg = err.Error()
					result.Failed[pid] = err.Error()
					log.Printf("❌ Training failed for %s: %v", pid, err)
				}
				progress := done
				mu.Unlock()

				o.publish(ProgressEvent{
					RunID:     result.RunID,
					ProductID: pid,
					Status:    status,
					Error:     errMsg,
					Done:      progress,
					Total:     result.Total,
				})
			}
		}()
	}

feed:
	for _, pid := range ids {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- pid:
		}
	}
	close(jobs)
	wg.Wait()

	o.publish(ProgressEvent{RunID: result.RunID, Status: "finished", Done: result.Total, Total: result.Total})
	span.SetAttributes(
		attribute.Int("trained", len(result.Trained)),
		attribute.Int("skipped", len(result.Skipped)),
		attribute.Int("failed", len(result.Failed)),
	)
	log.Printf("🎉 Batch run %s complete: %d trained, %d skipped, %d failed",
		result.RunID, len(result.Trained), len(result.Skipped), len(result.Failed))

	return result, ctx.Err()
}

// Cached reports whether a product's model is resident in memory.
// Used by tests and monitoring, never by the serving path.
func (o *Orchestrator) Cached(productID string) bool {
	return o.cache.Contains(productID)
}

func (o *Orchestrator) publish(event ProgressEvent) {
	if o.progress != nil {
		o.progress.Publish(event)
	}
}

func (o *Orchestrator) lockFor(productID string) *sync.Mutex {
	mu, _ := o.trainMu.LoadOrStore(productID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
