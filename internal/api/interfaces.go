package api

import (
	"context"

	"retail-ops/internal/forecast"
	"retail-ops/internal/models"
	"retail-ops/internal/search"
)

// Consumer-side interfaces: handlers declare what they need from the
// services; implementations stay oblivious.

// SearchEngine is what the search and ask endpoints need.
type SearchEngine interface {
	Search(ctx context.Context, req search.Request) ([]models.ScoredResult, error)
	Ask(ctx context.Context, question string) (*models.Answer, error)
}

// Forecaster is what the forecast endpoints need.
type Forecaster interface {
	Train(ctx context.Context, productID string) error
	TrainAll(ctx context.Context) (*forecast.BatchResult, error)
	Predict(ctx context.Context, productID string, horizonDays int) ([]forecast.Prediction, error)
}

// Encoder turns document text into its embedding vector.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}
