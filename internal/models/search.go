package models

// SearchMode selects between lexical title matching and semantic ranking.
type SearchMode string

const (
	ModeExact SearchMode = "exact"
	ModeSmart SearchMode = "smart"
)

// Candidate is a document annotated with its vector distance to the query,
// as returned by the store's native distance operator. Exact-mode candidates
// carry a zero distance which the engine never reads.
type Candidate struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Category       string  `json:"category"`
	Outline        string  `json:"outline"`
	Content        string  `json:"content"`
	HelpfulCount   int     `json:"helpful_count"`
	UnhelpfulCount int     `json:"unhelpful_count"`
	Distance       float64 `json:"distance"`
}

// ScoredResult is one ranked search hit. Score is a per-request ranking
// artifact: [0,1] in smart mode, constant 1.0 in exact mode, and not
// comparable across modes. It must never be persisted as a confidence value.
type ScoredResult struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Outline        string   `json:"outline"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags"`
	HelpfulCount   int      `json:"helpful_count"`
	UnhelpfulCount int      `json:"unhelpful_count"`
	Score          float64  `json:"score"`
}

// Answer is the question-answering result. When Found is false the nearest
// content is exposed only as debug context, never as the answer.
type Answer struct {
	Question     string  `json:"question"`
	Found        bool    `json:"found"`
	Policy       string  `json:"retrieved_policy,omitempty"`
	Distance     float64 `json:"distance"`
	DebugContent string  `json:"debug_content,omitempty"`
}
