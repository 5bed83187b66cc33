package embedding

import (
	"context"
	"fmt"
	"log"
)

// Handle is the process-wide embedding model handle. It is built exactly
// once at startup (the eager instantiation of the lifecycle-cache pattern:
// no trainer, no per-request miss path) and is immutable afterwards, so
// concurrent Encode calls need no coordination. Callers must hold on to the
// handle rather than reloading it per request.
type Handle struct {
	client *Client
	dim    int
}

// Load probes the inference service once and pins the model dimension.
// A dimension mismatch here is a deployment error: stored document vectors
// would no longer live in the same space as query vectors.
func Load(ctx context.Context, client *Client, wantDim int) (*Handle, error) {
	vec, err := client.Encode(ctx, "warmup")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model: %w", err)
	}
	if len(vec) != wantDim {
		return nil, fmt.Errorf("embedding model %q returned dimension %d, expected %d",
			client.Model, len(vec), wantDim)
	}

	log.Printf("✓ Embedding model loaded: %s (dim=%d)", client.Model, wantDim)
	return &Handle{client: client, dim: wantDim}, nil
}

// Dim returns the fixed output dimensionality.
func (h *Handle) Dim() int {
	return h.dim
}

// Encode returns the unit vector for text, verifying dimensionality.
func (h *Handle) Encode(ctx context.Context, text string) ([]float32, error) {
	vec, err := h.client.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != h.dim {
		return nil, fmt.Errorf("embedding dimension changed mid-flight: got %d, expected %d", len(vec), h.dim)
	}
	return vec, nil
}
