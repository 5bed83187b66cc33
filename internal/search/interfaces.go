package search

import (
	"context"

	"retail-ops/internal/models"
)

// Interfaces live with their consumer: the engine declares exactly what it
// needs from the store and the embedding provider.

// Encoder produces the query's unit vector.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// CandidateSource is the narrow view of the document store the engine
// ranks over.
type CandidateSource interface {
	FindCandidates(ctx context.Context, queryVec []float32, categoryFilter string) ([]models.Candidate, error)
	ExactCandidates(ctx context.Context, query, categoryFilter string) ([]models.Candidate, error)
}

// TagSource aggregates tag names per document for result decoration.
type TagSource interface {
	TagsForDocuments(ctx context.Context, documentIDs []string) (map[string][]string, error)
}
