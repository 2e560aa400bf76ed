package models

// QueryResult is the composed answer to one natural-language query. It is
// transient: built for the duration of one request/response and never
// persisted. A QueryResult is always complete - the query orchestrator
// returns a typed error instead of a partial result.
type QueryResult struct {
	Query      string     `json:"query"`
	Context    []string   `json:"context"` // Selected fragment texts, most relevant first
	Answer     string     `json:"answer"`
	Assessment Assessment `json:"assessment"`
}

// Assessment holds the self-scored quality of a generated answer against the
// retrieved context. Scores are on a 0-1 scale.
type Assessment struct {
	ContextRelevance      float64  `json:"context_relevance"`
	ResponseQuality       float64  `json:"response_quality"`
	SuggestedImprovements []string `json:"suggested_improvements"`
}
