package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/espn"
	"github.com/WessleyAI/courtside/engine/ledger"
	"github.com/WessleyAI/courtside/pkg/metrics"
)

// --- Fakes ---

type fakeEmbedder struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	for k := range f.failOn {
		if strings.Contains(text, k) {
			return nil, domain.ErrEmbedding
		}
	}
	return []float32{1, 0, 0}, nil
}

type fakeStore struct {
	err   error
	calls int
	cards []domain.KnowledgeCard
	embs  [][]float32
}

func (f *fakeStore) UpsertCards(_ context.Context, cards []domain.KnowledgeCard, embs [][]float32) error {
	f.calls++
	f.cards, f.embs = cards, embs
	return f.err
}

type fakeNotifier struct{ events []domain.CardEvent }

func (f *fakeNotifier) Notify(_ context.Context, ev domain.CardEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type fakeGraph struct {
	err   error
	saved []string
}

func (f *fakeGraph) SaveCard(_ context.Context, c domain.KnowledgeCard) error {
	f.saved = append(f.saved, c.ID)
	return f.err
}

type staticSource struct {
	batches []Batch
	skipped []*domain.SourceError
}

func (s staticSource) Collect(context.Context) ([]Batch, []*domain.SourceError) {
	return s.batches, s.skipped
}

type fakeFetcher struct {
	bodies map[string]string
}

func (f fakeFetcher) Fetch(_ context.Context, feed espn.Feed) ([]byte, error) {
	body, ok := f.bodies[feed.Label()]
	if !ok {
		return nil, &domain.SourceError{Source: feed.Label(), Err: domain.ErrSourceUnavailable}
	}
	return []byte(body), nil
}

// --- Fixtures ---

func event(id, state, home, away string) string {
	return `{"id": "` + id + `", "name": "TeamB at TeamA", "date": "2024-01-15T00:30Z",
	  "status": {"type": {"state": "` + state + `"}},
	  "competitions": [{"competitors": [
	    {"team": {"displayName": "TeamA", "abbreviation": "TA"}, "score": "` + home + `"},
	    {"team": {"displayName": "TeamB", "abbreviation": "TB"}, "score": "` + away + `"}
	  ]}]}`
}

const articles = `{"articles": [
  {"id": 77, "headline": "Big trade", "description": "Details.", "published": "2024-01-14",
   "categories": [{"type": "team", "description": "TeamA"}, {"type": "athlete", "description": "Point Guard"}]}
]}`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func scoreBatch(source string, raws ...string) Batch {
	b := Batch{Origin: espn.OriginFromFilename(source)}
	for _, r := range raws {
		b.Records = append(b.Records, json.RawMessage(r))
	}
	return b
}

// --- Sources ---

func TestFileSource_Collect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nba-score.json", `{"events": [`+event("401", "post", "110", "98")+`]}`)
	writeFile(t, dir, "nba-news.json", articles)

	batches, skipped := FileSource{Dir: dir, Files: map[string]string{
		"nba-score.json": "",
		"nba-news.json":  ".articles[]?",
		"nfl-score.json": "",
	}}.Collect(context.Background())

	require.Len(t, batches, 2)
	assert.Equal(t, "nba-news.json", batches[0].Origin.Source)
	assert.Equal(t, domain.ContentNews, batches[0].Origin.ContentType)
	assert.Len(t, batches[0].Records, 1)
	assert.Equal(t, domain.ContentScore, batches[1].Origin.ContentType)

	require.Len(t, skipped, 1)
	assert.Equal(t, "nfl-score.json", skipped[0].Source)
	assert.ErrorIs(t, skipped[0], domain.ErrSourceUnavailable)
}

func TestFileSource_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nfl-score.json", `{"events": [`)
	batches, skipped := FileSource{Dir: dir, Files: map[string]string{"nfl-score.json": ""}}.Collect(context.Background())
	assert.Empty(t, batches)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], domain.ErrMalformedRecord)
}

func TestLiveSource_PartialFailure(t *testing.T) {
	m := metrics.New()
	src := LiveSource{
		Fetcher: fakeFetcher{bodies: map[string]string{
			"basketball-nba-scoreboard": `{"events": [` + event("401", "in", "50", "48") + `]}`,
			"basketball-nba-news":       articles,
		}},
		Feeds:   espn.DefaultFeeds,
		Metrics: m,
	}
	batches, skipped := src.Collect(context.Background())

	require.Len(t, batches, 2)
	for _, b := range batches {
		assert.Equal(t, domain.SportNBA, b.Origin.Sport)
		assert.Len(t, b.Records, 1)
	}
	require.Len(t, skipped, 2)
	for _, s := range skipped {
		assert.True(t, strings.HasPrefix(s.Source, "football-nfl-"), s.Source)
		assert.ErrorIs(t, s, domain.ErrSourceUnavailable)
	}
}

func TestLiveSource_UnknownKind(t *testing.T) {
	src := LiveSource{Fetcher: fakeFetcher{}, Feeds: []espn.Feed{{Sport: "basketball", League: "nba", Kind: "standings"}}}
	batches, skipped := src.Collect(context.Background())
	assert.Empty(t, batches)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], domain.ErrUnknownContentType)
}

// --- Pipeline ---

func TestBuildCards_DedupesLastWins(t *testing.T) {
	p := NewPipeline(nil, nil)
	cards, processed, malformed := p.BuildCards(context.Background(), []Batch{
		scoreBatch("nba-score.json", event("401", "pre", "", ""), event("402", "post", "1", "2")),
		scoreBatch("nba-score.json", event("401", "post", "110", "98"), `{"id": `),
	})
	assert.Equal(t, 4, processed)
	assert.Equal(t, 1, malformed)
	require.Len(t, cards, 2)
	assert.Equal(t, "doc-401", cards[0].ID)
	assert.True(t, strings.HasPrefix(cards[0].ChunkText, "FINAL SCORE: TeamA (110) vs TeamB (98)."), cards[0].ChunkText)
	assert.Equal(t, "doc-402", cards[1].ID)
}

// --- Orchestrator ---

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nba-score.json", `{"events": [`+event("401", "post", "110", "98")+`]}`)
	writeFile(t, dir, "nba-news.json", articles)

	emb := &fakeEmbedder{}
	store := &fakeStore{}
	notes := &fakeNotifier{}
	g := &fakeGraph{}
	led := ledger.NewMemory(0)
	o := New(Deps{Embedder: emb, Store: store, Ledger: led, Notifier: notes, Graph: g, Metrics: metrics.New()})

	src := FileSource{Dir: dir, Files: map[string]string{"nba-score.json": "", "nba-news.json": "", "nfl-news.json": ""}}
	rep, err := o.Run(context.Background(), src, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Processed)
	assert.Equal(t, 2, rep.Upserted)
	assert.Equal(t, []string{"nfl-news.json"}, rep.SkippedSources)
	assert.Equal(t, 1, store.calls, "one upsert per run")
	require.Len(t, store.cards, 2)
	assert.Len(t, store.embs, 2)
	assert.ElementsMatch(t, []string{"doc-77", "doc-401"}, g.saved)
	require.Len(t, notes.events, 2)

	hash, ok, err := led.Get(context.Background(), "doc-401")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, hash)

	// Second run with identical content is a no-op.
	rep, err = o.Run(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Unchanged)
	assert.Equal(t, 0, rep.Upserted)
	assert.Equal(t, 1, store.calls)

	// Force re-upserts.
	rep, err = o.Run(context.Background(), src, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Upserted)
	assert.Equal(t, 2, store.calls)
}

func TestRun_PrefilledLedger(t *testing.T) {
	ctx := context.Background()
	src := staticSource{batches: []Batch{scoreBatch("nba-score.json", event("401", "post", "110", "98"), event("402", "pre", "", ""))}}

	// Fill the ledger from an earlier run against another store.
	led := ledger.NewMemory(0)
	_, err := New(Deps{Embedder: &fakeEmbedder{}, Store: &fakeStore{}, Ledger: led}).Run(ctx, src, Options{})
	require.NoError(t, err)

	fresh := &fakeStore{}
	o := New(Deps{Embedder: &fakeEmbedder{}, Store: fresh, Ledger: led})
	rep, err := o.Run(ctx, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Unchanged)
	assert.Equal(t, 0, fresh.calls)

	rep, err = o.Run(ctx, src, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Unchanged)
	assert.Equal(t, 2, rep.Upserted)
	require.Len(t, fresh.cards, 2)

	// A scoped ledger for a new collection sees nothing.
	fresh = &fakeStore{}
	rep, err = New(Deps{Embedder: &fakeEmbedder{}, Store: fresh, Ledger: ledger.Scoped(led, "other/ns")}).Run(ctx, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Upserted)
	assert.Len(t, fresh.cards, 2)
}

func TestRun_LifecycleOverwritesSameID(t *testing.T) {
	store := &fakeStore{}
	o := New(Deps{Embedder: &fakeEmbedder{}, Store: store, Ledger: ledger.NewMemory(0)})

	_, err := o.Run(context.Background(), staticSource{batches: []Batch{scoreBatch("nba-score.json", event("401", "pre", "", ""))}}, Options{})
	require.NoError(t, err)
	assert.Contains(t, store.cards[0].ChunkText, "PREVIEW")

	rep, err := o.Run(context.Background(), staticSource{batches: []Batch{scoreBatch("nba-score.json", event("401", "post", "110", "98"))}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Upserted, "changed content is re-upserted")
	assert.Equal(t, "doc-401", store.cards[0].ID)
	assert.NotContains(t, store.cards[0].ChunkText, "PREVIEW")
}

func TestRun_EmbedFailureSkipsRecord(t *testing.T) {
	store := &fakeStore{}
	o := New(Deps{Embedder: &fakeEmbedder{failOn: map[string]bool{"NEWS": true}}, Store: store})
	src := staticSource{batches: []Batch{
		scoreBatch("nba-score.json", event("401", "post", "110", "98")),
		{Origin: espn.OriginFromFilename("nba-news.json"), Records: []json.RawMessage{json.RawMessage(`{"id": "9", "headline": "H"}`)}},
	}}
	rep, err := o.Run(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.EmbedFailures)
	assert.Equal(t, 1, rep.Upserted)
	require.Len(t, store.cards, 1)
	assert.Equal(t, "doc-401", store.cards[0].ID)
}

func TestRun_StoreFailureIsHard(t *testing.T) {
	led := ledger.NewMemory(0)
	o := New(Deps{Embedder: &fakeEmbedder{}, Store: &fakeStore{err: domain.ErrStore}, Ledger: led})
	rep, err := o.Run(context.Background(), staticSource{batches: []Batch{scoreBatch("nba-score.json", event("401", "post", "1", "0"))}}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Equal(t, 0, rep.Upserted)

	_, ok, _ := led.Get(context.Background(), "doc-401")
	assert.False(t, ok, "ledger is not advanced when the store write fails")
}

func TestRun_GraphFailureIsWarning(t *testing.T) {
	o := New(Deps{Embedder: &fakeEmbedder{}, Store: &fakeStore{}, Graph: &fakeGraph{err: errors.New("neo4j down")}})
	rep, err := o.Run(context.Background(), staticSource{batches: []Batch{scoreBatch("nfl-score.json", event("9", "post", "1", "0"))}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Upserted)
}

func TestRun_NothingToDo(t *testing.T) {
	store := &fakeStore{}
	o := New(Deps{Embedder: &fakeEmbedder{}, Store: store})
	rep, err := o.Run(context.Background(), staticSource{skipped: []*domain.SourceError{{Source: "x", Err: domain.ErrSourceUnavailable}}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, rep.SkippedSources)
	assert.Equal(t, 0, store.calls)
}

func TestMsgID(t *testing.T) {
	assert.Equal(t, "doc-1:abc", MsgID(domain.CardEvent{ID: "doc-1", ContentHash: "abc"}))
}
