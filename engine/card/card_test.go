package card

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/espn"
)

func eventJSON(state, scoreA, scoreB string) string {
	return `{
	  "id": "401",
	  "name": "TeamB at TeamA",
	  "date": "2024-01-15T00:30Z",
	  "status": {"type": {"state": "` + state + `", "detail": "Q3 4:12"}},
	  "competitions": [{
	    "competitors": [
	      {"team": {"displayName": "TeamA", "abbreviation": "TA"}, "score": "` + scoreA + `"},
	      {"team": {"displayName": "TeamB", "abbreviation": "TB"}, "score": "` + scoreB + `"}
	    ],
	    "venue": {"fullName": "Arena One", "address": {"city": "Springfield"}},
	    "leaders": [{"displayName": "Assists", "leaders": [{"displayValue": "354/492, 22 AST", "athlete": {"displayName": "Point Guard"}}]}]
	  }]
	}`
}

func decode(t *testing.T, raw, file string) espn.Record {
	t.Helper()
	rec, err := espn.DecodeRecord(json.RawMessage(raw), espn.OriginFromFilename(file))
	require.NoError(t, err)
	return rec
}

func TestBuild_FinalGameEndToEnd(t *testing.T) {
	c, err := Build(decode(t, eventJSON("post", "110", "98"), "nba-score.json"))
	require.NoError(t, err)

	assert.Equal(t, "doc-401", c.ID)
	assert.True(t, strings.HasPrefix(c.ChunkText, "FINAL SCORE: TeamA (110) vs TeamB (98)."), c.ChunkText)
	assert.Contains(t, c.ChunkText, "TOP PERFORMERS: Assists: Point Guard (22 AST).")

	m := c.Metadata
	assert.Equal(t, []string{"TeamA 110", "TeamB 98"}, m.Scores)
	assert.Equal(t, domain.SportNBA, m.Sport)
	assert.Equal(t, domain.ContentScore, m.ContentType)
	assert.Equal(t, domain.StatusPost, m.Status)
	assert.ElementsMatch(t, []string{"TeamA", "TeamB"}, m.Teams)
	assert.Equal(t, []string{"Point Guard"}, m.Athletes)
	require.Len(t, m.Performers, 1)
	assert.Equal(t, "22 AST", m.Performers[0].DisplayValue)
	require.NotNil(t, m.Context)
	assert.Equal(t, "Arena One", m.Context.Venue)
	assert.Equal(t, "Springfield", m.Context.Location)
	assert.Empty(t, m.Context.Odds, "missing odds are omitted from metadata")
	assert.Equal(t, "nba-score.json", m.SourceFile)
	assert.NotEmpty(t, m.ContentHash)
	assert.Equal(t, []string{"TeamB at TeamA latest score", "TeamB at TeamA highlights"}, m.Discovery.SuggestedQueries)
}

func TestBuild_LeaderlessCategoriesStayOutOfCard(t *testing.T) {
	c, err := Build(decode(t, `{"id": "1", "status": {"type": {"state": "post"}}, "competitions": [{"leaders": [
	  {"displayName": "Points", "leaders": [null]},
	  {"displayName": "Reb", "leaders": [{}]}
	]}]}`, "nba-score.json"))
	require.NoError(t, err)
	assert.NotContains(t, c.ChunkText, "Unknown")
	assert.Empty(t, c.Metadata.Performers)
	assert.Empty(t, c.Metadata.Athletes)
}

func TestStableID_IndependentOfStatusAndScore(t *testing.T) {
	pre := decode(t, eventJSON("pre", "", ""), "nfl-score.json")
	live := decode(t, eventJSON("in", "7", "3"), "nfl-score.json")
	final := decode(t, eventJSON("post", "24", "17"), "nfl-score.json")

	assert.Equal(t, StableID(pre), StableID(live))
	assert.Equal(t, StableID(live), StableID(final))

	h1, err := ContentHash(pre.Raw)
	require.NoError(t, err)
	h2, err := ContentHash(final.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "content hash follows the content")
}

func TestStableID_FallbackDigest(t *testing.T) {
	a := decode(t, `{"headline": "No id here"}`, "nba-news.json")
	b := decode(t, `{"headline": "No id here"}`, "nba-news.json")
	c := decode(t, `{"headline": "Different"}`, "nba-news.json")

	assert.True(t, strings.HasPrefix(StableID(a), "doc-"))
	assert.Equal(t, StableID(a), StableID(b))
	assert.NotEqual(t, StableID(a), StableID(c))
}

func TestContentHash_KeyOrderInsensitive(t *testing.T) {
	h1, err := ContentHash([]byte(`{"b": 1, "a": {"y": [1, 2], "x": "v"}}`))
	require.NoError(t, err)
	h2, err := ContentHash([]byte(`{"a": {"x": "v", "y": [1, 2]}, "b": 1}`))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := ContentHash([]byte(`{"a": {"x": "v", "y": [2, 1]}, "b": 1}`))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "array order is significant")

	_, err = ContentHash([]byte(`{`))
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestSynthesizeEvent_Branches(t *testing.T) {
	pre := Synthesize(decode(t, eventJSON("pre", "", ""), "nba-score.json"))
	assert.True(t, strings.HasPrefix(pre, "PREVIEW: TeamB at TeamA at Arena One. TIME: 2024-01-15T00:30Z. ODDS: N/A."), pre)
	assert.NotContains(t, pre, "FINAL SCORE")
	assert.NotContains(t, pre, "LIVE GAME")

	live := Synthesize(decode(t, eventJSON("in", "55", "50"), "nba-score.json"))
	assert.True(t, strings.HasPrefix(live, "LIVE GAME (Q3 4:12): TeamA (55) vs TeamB (50). LEADERS: "), live)

	post := Synthesize(decode(t, eventJSON("post", "1", "0"), "nba-score.json"))
	assert.NotContains(t, post, "PREVIEW")

	other := Synthesize(decode(t, eventJSON("postponed", "0", "0"), "nba-score.json"))
	assert.True(t, strings.HasPrefix(other, "FINAL SCORE:"), "unknown states render as final")
}

func TestSynthesizeEvent_Placeholders(t *testing.T) {
	text := SynthesizeEvent(&espn.ParsedEvent{})
	assert.Equal(t, "PREVIEW: Unknown Matchup at TBD. TIME: TBD. ODDS: N/A. PROJECTED LEADERS: .", text)

	text = SynthesizeEvent(&espn.ParsedEvent{State: "in"})
	assert.Equal(t, "LIVE GAME (TBD): . LEADERS: .", text)
}

func TestSynthesizeEvent_TeamStatsBlock(t *testing.T) {
	text := SynthesizeEvent(&espn.ParsedEvent{
		State:       "post",
		Competitors: []espn.CompetitorLine{{Name: "A", Score: "1"}, {Name: "B", Score: "2"}},
		TeamStats:   "A [FG%: 40.0%]",
		Leaders: []espn.LeaderEntry{
			{Category: "Points", Athlete: "X", Value: "30 PTS"},
			{Category: "A Rebounds", Athlete: "Y", Value: "10", Team: "A"},
		},
	})
	assert.Equal(t, "FINAL SCORE: A (1) vs B (2). TEAM STATS: A [FG%: 40.0%]. TOP PERFORMERS: Points: X (30 PTS) | A Rebounds: Y (10).", text)
}

func TestBuild_Article(t *testing.T) {
	raw := `{"id": "77", "headline": "Trade deadline", "description": "Moves are coming.", "published": "2024-02-01",
	  "categories": [{"type": "team", "description": "Boston Celtics"}, {"type": "athlete", "description": "Jay"}, {"type": "guid", "guid": "g-1"}]}`
	c, err := Build(decode(t, raw, "nba-news.json"))
	require.NoError(t, err)

	assert.Equal(t, "doc-77", c.ID)
	assert.Equal(t, "NEWS: Trade deadline. Moves are coming.", c.ChunkText)
	m := c.Metadata
	assert.Equal(t, domain.ContentNews, m.ContentType)
	assert.Equal(t, domain.StatusNews, m.Status)
	assert.Equal(t, "Moves are coming.", m.Summary)
	assert.Equal(t, "2024-02-01", m.EventDate)
	assert.Nil(t, m.Context)
	assert.Empty(t, m.Scores)
	assert.Equal(t, []string{"#BostonCeltics"}, m.Discovery.Hashtags)
	assert.Equal(t, []string{"g-1"}, m.Discovery.SocialHandles)
	assert.ElementsMatch(t, []string{"Jay", "Boston Celtics", "Trade deadline"}, m.Discovery.Keywords)
}

func TestBuildMetadata_UnknownStatusOmitted(t *testing.T) {
	m, err := BuildMetadata(decode(t, eventJSON("postponed", "0", "0"), "nfl-score.json"))
	require.NoError(t, err)
	assert.Empty(t, m.Status)
}

func TestDedupe_LastWriteWins(t *testing.T) {
	cards := []domain.KnowledgeCard{
		{ID: "doc-1", ChunkText: "first"},
		{ID: "doc-2", ChunkText: "other"},
		{ID: "doc-1", ChunkText: "second"},
	}
	out := Dedupe(cards)
	require.Len(t, out, 2)
	assert.Equal(t, "doc-1", out[0].ID)
	assert.Equal(t, "second", out[0].ChunkText)
	assert.Equal(t, "doc-2", out[1].ID)

	assert.Empty(t, Dedupe(nil))
}
