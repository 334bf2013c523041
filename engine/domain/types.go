// Package domain defines the canonical sports records produced by the
// ingestion pipeline and consumed by the vector store and retriever.
package domain

// Sport identifies the league a record belongs to.
type Sport string

const (
	SportNBA Sport = "nba"
	SportNFL Sport = "nfl"
)

// ContentType distinguishes game scoreboard records from news articles.
type ContentType string

const (
	ContentNews  ContentType = "news"
	ContentScore ContentType = "score"
)

// Status is the lifecycle state of a record. Games move pre → in → post;
// articles are always news.
type Status string

const (
	StatusPre  Status = "pre"
	StatusIn   Status = "in"
	StatusPost Status = "post"
	StatusNews Status = "news"
)

// ValidSports is the set of supported sports.
var ValidSports = map[Sport]bool{SportNBA: true, SportNFL: true}

// ValidContentTypes is the set of supported content types.
var ValidContentTypes = map[ContentType]bool{ContentNews: true, ContentScore: true}

// PerformanceStat is one statistical leader entry for one category,
// optionally scoped to a team abbreviation.
type PerformanceStat struct {
	Category     string `json:"category"`
	AthleteName  string `json:"athlete_name"`
	DisplayValue string `json:"display_value"`
	Team         string `json:"team,omitempty"`
}

// GameContext is ancillary situational info for a game. Absent fields stay
// empty and are omitted when serialized.
type GameContext struct {
	Venue     string `json:"venue,omitempty"`
	Location  string `json:"location,omitempty"`
	Weather   string `json:"weather,omitempty"`
	Odds      string `json:"odds,omitempty"`
	Broadcast string `json:"broadcast,omitempty"`
}

// IsZero reports whether no context field is set.
func (c GameContext) IsZero() bool {
	return c == GameContext{}
}

// Discovery holds search-optimisation hints attached to a record.
type Discovery struct {
	Keywords         []string `json:"keywords,omitempty"`
	Hashtags         []string `json:"hashtags,omitempty"`
	SocialHandles    []string `json:"social_handles,omitempty"`
	SuggestedQueries []string `json:"suggested_queries,omitempty"`
}

// IsZero reports whether the discovery block carries no hints.
func (d Discovery) IsZero() bool {
	return len(d.Keywords) == 0 && len(d.Hashtags) == 0 &&
		len(d.SocialHandles) == 0 && len(d.SuggestedQueries) == 0
}

// SportsMetadata is the canonical structured record for one game or
// article. It is built fresh on every ingestion run and never mutated.
type SportsMetadata struct {
	Sport       Sport       `json:"sport"`
	ContentType ContentType `json:"content_type"`
	ContentHash string      `json:"content_hash"`
	SourceFile  string      `json:"source_file"`

	Teams    []string `json:"teams,omitempty"`
	Athletes []string `json:"athletes,omitempty"`

	Headline  string `json:"headline,omitempty"`
	Summary   string `json:"summary,omitempty"`
	EventDate string `json:"event_date,omitempty"`
	Status    Status `json:"status,omitempty"`

	Scores     []string          `json:"scores,omitempty"`
	Performers []PerformanceStat `json:"performers,omitempty"`
	Context    *GameContext      `json:"context,omitempty"`
	TeamStats  string            `json:"team_stats,omitempty"`
	Discovery  Discovery         `json:"discovery"`
}

// KnowledgeCard is the unit handed to the vector store: a stable id, the
// synthesized summary and its metadata.
type KnowledgeCard struct {
	ID        string         `json:"id"`
	ChunkText string         `json:"chunk_text"`
	Metadata  SportsMetadata `json:"metadata"`
}

// CardEvent announces that a card was written to the store.
type CardEvent struct {
	ID          string      `json:"id"`
	ContentHash string      `json:"content_hash"`
	Sport       Sport       `json:"sport"`
	ContentType ContentType `json:"content_type"`
	Status      Status      `json:"status"`
	Headline    string      `json:"headline,omitempty"`
}

// EventFor builds the change notification for a stored card.
func EventFor(c KnowledgeCard) CardEvent {
	return CardEvent{
		ID:          c.ID,
		ContentHash: c.Metadata.ContentHash,
		Sport:       c.Metadata.Sport,
		ContentType: c.Metadata.ContentType,
		Status:      c.Metadata.Status,
		Headline:    c.Metadata.Headline,
	}
}
