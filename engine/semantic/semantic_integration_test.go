//go:build integration

package semantic

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/courtside/engine/domain"
)

func qdrantAddr() string {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		return v
	}
	return "localhost:6334"
}

func testStore(t *testing.T, collection string) *VectorStore {
	t.Helper()
	vs, err := New(qdrantAddr(), collection, "test-ns")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = vs.DeleteCollection(context.Background())
		_ = vs.Close()
	})
	return vs
}

func card(id string, sport domain.Sport, text string) domain.KnowledgeCard {
	return domain.KnowledgeCard{ID: id, ChunkText: text, Metadata: domain.SportsMetadata{
		Sport: sport, ContentType: domain.ContentScore, ContentHash: id,
	}}
}

func TestQdrant_EnsureCollectionIdempotent(t *testing.T) {
	vs := testStore(t, "test_ensure")
	ctx := context.Background()
	require.NoError(t, vs.EnsureCollection(ctx, 4))
	require.NoError(t, vs.EnsureCollection(ctx, 4))
}

func TestQdrant_UpsertOverwritesAndFilters(t *testing.T) {
	vs := testStore(t, "test_upsert_search")
	ctx := context.Background()
	require.NoError(t, vs.EnsureCollection(ctx, 4))

	cards := []domain.KnowledgeCard{
		card("doc-1", domain.SportNBA, "PREVIEW: one"),
		card("doc-2", domain.SportNFL, "FINAL SCORE: two"),
	}
	require.NoError(t, vs.UpsertCards(ctx, cards, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}))

	cards[0].ChunkText = "FINAL SCORE: one"
	require.NoError(t, vs.UpsertCards(ctx, cards[:1], [][]float32{{1, 0, 0, 0}}))

	hits, err := vs.Search(ctx, []float32{1, 0, 0, 0}, 10, Filter{})
	require.NoError(t, err)
	require.Len(t, hits, 2, "re-ingesting the same id replaces the point")
	require.Equal(t, "FINAL SCORE: one", hits[0].Text)

	hits, err = vs.Search(ctx, []float32{1, 0, 0, 0}, 10, Filter{Sport: "nfl"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-2", hits[0].RecordID)
}
