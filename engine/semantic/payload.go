package semantic

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/WessleyAI/courtside/engine/domain"
)

// Payload keys written for every card.
const (
	KeyRecordID    = "record_id"
	KeyNamespace   = "namespace"
	KeyChunkText   = "chunk_text"
	KeySport       = "sport"
	KeyContentType = "content_type"
	KeyContentHash = "content_hash"
	KeySourceFile  = "source_file"
	KeyHeadline    = "headline"
	KeyEventDate   = "event_date"
	KeyStatus      = "status"
	KeyPerformers  = "performers"
	KeyContext     = "context"
)

// PointID maps a card identifier onto the UUID Qdrant requires. The same
// identifier in the same namespace always yields the same point.
func PointID(namespace, recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"/"+recordID)).String()
}

// Flatten converts a card into flat payload values. Empty fields are left
// out. Performers and context are stored as JSON strings.
func Flatten(c domain.KnowledgeCard) map[string]any {
	m := c.Metadata
	p := map[string]any{
		KeyRecordID:    c.ID,
		KeyChunkText:   c.ChunkText,
		KeySport:       string(m.Sport),
		KeyContentType: string(m.ContentType),
		KeyContentHash: m.ContentHash,
	}
	putString(p, KeySourceFile, m.SourceFile)
	putString(p, KeyHeadline, m.Headline)
	putString(p, "summary", m.Summary)
	putString(p, KeyEventDate, m.EventDate)
	putString(p, KeyStatus, string(m.Status))
	putString(p, "team_stats", m.TeamStats)
	putList(p, "teams", m.Teams)
	putList(p, "athletes", m.Athletes)
	putList(p, "scores", m.Scores)
	putList(p, "keywords", m.Discovery.Keywords)
	putList(p, "hashtags", m.Discovery.Hashtags)
	putList(p, "social_handles", m.Discovery.SocialHandles)
	putList(p, "suggested_queries", m.Discovery.SuggestedQueries)

	if len(m.Performers) > 0 {
		if b, err := json.Marshal(m.Performers); err == nil {
			p[KeyPerformers] = string(b)
		}
	}
	if m.Context != nil && !m.Context.IsZero() {
		if b, err := json.Marshal(m.Context); err == nil {
			p[KeyContext] = string(b)
		}
	}
	return p
}

// RecordFor builds the point for a card and its embedding.
func RecordFor(namespace string, c domain.KnowledgeCard, embedding []float32) VectorRecord {
	p := Flatten(c)
	p[KeyNamespace] = namespace
	return VectorRecord{
		ID:        PointID(namespace, c.ID),
		Embedding: embedding,
		Payload:   p,
	}
}

// DecodePerformers reverses the performers encoding. Malformed input yields
// an empty list.
func DecodePerformers(s string) []domain.PerformanceStat {
	out := []domain.PerformanceStat{}
	if s == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []domain.PerformanceStat{}
	}
	return out
}

// DecodeContext reverses the context encoding. Malformed input yields an
// empty context.
func DecodeContext(s string) domain.GameContext {
	var c domain.GameContext
	if s == "" {
		return c
	}
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return domain.GameContext{}
	}
	return c
}

func putString(p map[string]any, k, v string) {
	if v != "" {
		p[k] = v
	}
}

func putList(p map[string]any, k string, v []string) {
	if len(v) > 0 {
		p[k] = v
	}
}
