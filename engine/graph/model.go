package graph

// Record is a game or article node. Teams and athletes link to it through
// FEATURED_IN edges.
type Record struct {
	ID          string `json:"id"`
	Sport       string `json:"sport"`
	ContentType string `json:"content_type"`
	Status      string `json:"status,omitempty"`
	Headline    string `json:"headline,omitempty"`
	EventDate   string `json:"event_date,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}
