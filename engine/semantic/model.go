package semantic

import "github.com/WessleyAI/courtside/engine/domain"

// Hit is one search result with nested fields restored from the payload.
type Hit struct {
	PointID    string                   `json:"point_id"`
	RecordID   string                   `json:"id"`
	Score      float32                  `json:"score"`
	Text       string                   `json:"text"`
	Headline   string                   `json:"headline,omitempty"`
	Date       string                   `json:"date,omitempty"`
	Sport      string                   `json:"sport,omitempty"`
	Status     string                   `json:"status,omitempty"`
	Performers []domain.PerformanceStat `json:"performers"`
	Context    domain.GameContext       `json:"context"`
}

// VectorRecord is a single point to store in Qdrant.
type VectorRecord struct {
	ID        string // point UUID
	Embedding []float32
	Payload   map[string]any // string, []string, numeric or bool values
}

// Filter narrows a search. Empty fields match everything.
type Filter struct {
	Sport       string
	ContentType string
}
