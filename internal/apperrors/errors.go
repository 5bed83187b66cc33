package apperrors

import "errors"

// Sentinel errors shared across services and repositories.
// Handlers map these to HTTP statuses with errors.Is, so collaborator
// failures must be wrapped (fmt.Errorf with %w) rather than replaced.
var (
	// ErrNotFound: the requested entity (document, model, tag, category)
	// does not exist. Not retryable.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData: too few historical points to train a model.
	// Distinct from ErrNotFound so callers know to collect more data
	// instead of retrying.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrValidation: malformed input, rejected before any write occurs.
	ErrValidation = errors.New("validation failed")

	// ErrStorageCorruption: a persisted artifact failed to deserialize.
	// Fatal for that key - never silently skipped.
	ErrStorageCorruption = errors.New("storage corruption")

	// ErrUpstreamUnavailable: durable store or embedding backend
	// unreachable. Propagated to the caller, never degraded into a
	// partial result.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
