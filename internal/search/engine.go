package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"retail-ops/internal/apperrors"
	"retail-ops/internal/middleware"
	"retail-ops/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Weights are the fusion constants of the ranking engine. They come from
// config rather than being scattered through the scoring code.
type Weights struct {
	// CategoryBoost is added when the document category equals the query,
	// case-insensitively.
	CategoryBoost float64
	// TitleBoost is added when the query is a case-insensitive substring
	// of the title.
	TitleBoost float64
	// AbstentionThreshold is the vector distance beyond which Ask treats
	// the nearest document as irrelevant.
	AbstentionThreshold float64
}

// Request is one search call.
type Request struct {
	Query          string            `json:"query"`
	TopK           int               `json:"top_k"`
	Mode           models.SearchMode `json:"mode"`
	CategoryFilter string            `json:"category_filter"`
}

// Engine is the hybrid retrieval ranking engine. Read-only: it never
// mutates the store, and an empty result list is a valid outcome.
type Engine struct {
	enc     Encoder
	docs    CandidateSource
	tags    TagSource
	weights Weights
}

// NewEngine creates a ranking engine. Accepts interfaces, returns a struct.
func NewEngine(enc Encoder, docs CandidateSource, tags TagSource, weights Weights) *Engine {
	return &Engine{enc: enc, docs: docs, tags: tags, weights: weights}
}

// Search ranks documents for a query.
//
// In exact mode every title-substring match gets the fixed maximal score and
// results come back newest-first: the tie-break is recency, deliberately
// independent of relevance. In smart mode the fused score is
//
//	min(1 - distance + categoryBoost + titleBoost, 1.0)
//
// sorted descending. Scores from the two modes are not comparable and are
// per-request artifacts only.
func (e *Engine) Search(ctx context.Context, req Request) ([]models.ScoredResult, error) {
	ctx, span := middleware.StartSpan(ctx, "Search.Search",
		attribute.String("query", req.Query),
		attribute.String("mode", string(req.Mode)),
		attribute.Int("top_k", req.TopK),
	)
	defer span.End()

	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", apperrors.ErrValidation)
	}
	if req.TopK <= 0 {
		return nil, fmt.Errorf("top_k must be positive: %w", apperrors.ErrValidation)
	}

	var (
		results []models.ScoredResult
		err     error
	)
	switch req.Mode {
	case models.ModeExact:
		results, err = e.searchExact(ctx, req)
	case models.ModeSmart:
		results, err = e.searchSmart(ctx, req)
	default:
		return nil, fmt.Errorf("unknown search mode %q: %w", req.Mode, apperrors.ErrValidation)
	}
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	if err := e.attachTags(ctx, results); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	middleware.AddSpanEvent(ctx, "search_completed",
		attribute.Int("result_count", len(results)),
	)
	return results, nil
}

func (e *Engine) searchExact(ctx context.Context, req Request) ([]models.ScoredResult, error) {
	candidates, err := e.docs.ExactCandidates(ctx, req.Query, req.CategoryFilter)
	if err != nil {
		return nil, err
	}

	// Store returns id DESC already; keep the ordering stable here so the
	// engine does not depend on it.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ID > candidates[j].ID
	})

	if len(candidates) > req.TopK {
		candidates = candidates[:req.TopK]
	}

	results := make([]models.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, toResult(c, exactScore))
	}
	return results, nil
}

func (e *Engine) searchSmart(ctx context.Context, req Request) ([]models.ScoredResult, error) {
	queryVec, err := e.enc.Encode(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	candidates, err := e.docs.FindCandidates(ctx, queryVec, req.CategoryFilter)
	if err != nil {
		return nil, err
	}

	results := make([]models.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, toResult(c, e.fuseScore(req.Query, c)))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > req.TopK {
		results = results[:req.TopK]
	}
	return results, nil
}

// exactScore is the fixed maximal score every exact-mode match receives.
const exactScore = 1.0

// fuseScore combines the vector similarity with the lexical boosts.
// base = 1 - distance sits roughly in [-1, 1] for unit vectors under the
// Euclidean operator; the fused score is capped at 1.0.
func (e *Engine) fuseScore(query string, c models.Candidate) float64 {
	score := 1 - c.Distance

	if strings.EqualFold(c.Category, query) {
		score += e.weights.CategoryBoost
	}
	if containsFold(c.Title, query) {
		score += e.weights.TitleBoost
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Ask is the question-answering flow: nearest document by raw distance, with
// abstention. When the distance exceeds the threshold the content is exposed
// only as debug context, never surfaced as the answer.
func (e *Engine) Ask(ctx context.Context, question string) (*models.Answer, error) {
	ctx, span := middleware.StartSpan(ctx, "Search.Ask",
		attribute.String("question", question),
	)
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question must not be empty: %w", apperrors.ErrValidation)
	}

	queryVec, err := e.enc.Encode(ctx, question)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	candidates, err := e.docs.FindCandidates(ctx, queryVec, "")
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	if len(candidates) == 0 {
		return &models.Answer{Question: question, Found: false}, nil
	}

	best := candidates[0]
	middleware.AddSpanEvent(ctx, "nearest_candidate",
		attribute.String("document_id", best.ID),
		attribute.Float64("distance", best.Distance),
	)

	if best.Distance > e.weights.AbstentionThreshold {
		return &models.Answer{
			Question:     question,
			Found:        false,
			Distance:     best.Distance,
			DebugContent: best.Content,
		}, nil
	}

	return &models.Answer{
		Question: question,
		Found:    true,
		Policy:   best.Content,
		Distance: best.Distance,
	}, nil
}

func (e *Engine) attachTags(ctx context.Context, results []models.ScoredResult) error {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}

	tags, err := e.tags.TagsForDocuments(ctx, ids)
	if err != nil {
		return err
	}

	for i := range results {
		if t, ok := tags[results[i].ID]; ok && t != nil {
			results[i].Tags = t
		} else {
			results[i].Tags = []string{}
		}
	}
	return nil
}

func toResult(c models.Candidate, score float64) models.ScoredResult {
	return models.ScoredResult{
		ID:             c.ID,
		Title:          c.Title,
		Category:       c.Category,
		Outline:        c.Outline,
		Content:        c.Content,
		HelpfulCount:   c.HelpfulCount,
		UnhelpfulCount: c.UnhelpfulCount,
		Score:          score,
	}
}

// containsFold reports whether substr occurs in s, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
