package card

import (
	"strings"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/espn"
)

// IDPrefix is prepended to every card identifier.
const IDPrefix = "doc-"

// StableID derives the card identifier from the feed's own entity id, so a
// game keeps one identifier from preview to final. Records without an id
// fall back to a digest of their raw text.
func StableID(rec espn.Record) string {
	if id := strings.TrimSpace(rec.RawID); id != "" {
		return IDPrefix + id
	}
	return IDPrefix + digest(rec.Raw)
}

// Build runs one decoded record through synthesis, metadata and identity.
func Build(rec espn.Record) (domain.KnowledgeCard, error) {
	meta, err := BuildMetadata(rec)
	if err != nil {
		return domain.KnowledgeCard{}, err
	}
	c := domain.KnowledgeCard{
		ID:        StableID(rec),
		ChunkText: Synthesize(rec),
		Metadata:  meta,
	}
	if err := domain.ValidateCard(c); err != nil {
		return domain.KnowledgeCard{}, err
	}
	return c, nil
}

// Dedupe collapses cards sharing an identifier. The last card in batch
// order wins; the surviving card keeps the position of the first
// occurrence.
func Dedupe(cards []domain.KnowledgeCard) []domain.KnowledgeCard {
	pos := make(map[string]int, len(cards))
	out := make([]domain.KnowledgeCard, 0, len(cards))
	for _, c := range cards {
		if i, ok := pos[c.ID]; ok {
			out[i] = c
			continue
		}
		pos[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}
