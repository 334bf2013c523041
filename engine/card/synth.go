// Package card turns parsed feed records into knowledge cards: a prose
// summary, structured metadata and a stable identifier.
package card

import (
	"fmt"
	"strings"

	"github.com/WessleyAI/courtside/engine/espn"
)

// Display fallbacks. They appear only in chunk text, never in metadata.
const (
	unknownMatchup = "Unknown Matchup"
	tbd            = "TBD"
)

// Synthesize renders the chunk text for a decoded record.
func Synthesize(rec espn.Record) string {
	if rec.Article != nil {
		return SynthesizeArticle(rec.Article)
	}
	if rec.Event != nil {
		return SynthesizeEvent(rec.Event)
	}
	return ""
}

// SynthesizeEvent renders a game summary. The phrasing depends on the game
// state: "pre" is a preview, "in" a live update, anything else a final.
// A missing state is treated as "pre".
func SynthesizeEvent(ev *espn.ParsedEvent) string {
	leaders := leaderText(ev.Leaders)

	var stats string
	if ev.TeamStats != "" {
		stats = "TEAM STATS: " + ev.TeamStats + ". "
	}

	state := ev.State
	if state == "" {
		state = "pre"
	}

	switch state {
	case "pre":
		return fmt.Sprintf("PREVIEW: %s at %s. TIME: %s. ODDS: %s. PROJECTED LEADERS: %s.",
			or(ev.Name, unknownMatchup), or(ev.Venue, tbd), or(ev.Date, tbd), or(ev.Odds, espn.NotAvailable), leaders)
	case "in":
		return fmt.Sprintf("LIVE GAME (%s): %s. %sLEADERS: %s.",
			or(ev.Detail, tbd), scoreLine(ev.Competitors), stats, leaders)
	default:
		return fmt.Sprintf("FINAL SCORE: %s. %sTOP PERFORMERS: %s.",
			scoreLine(ev.Competitors), stats, leaders)
	}
}

// SynthesizeArticle renders a news summary.
func SynthesizeArticle(a *espn.ParsedArticle) string {
	return fmt.Sprintf("NEWS: %s. %s", a.Headline, a.Description)
}

func scoreLine(cs []espn.CompetitorLine) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Score)
	}
	return strings.Join(parts, " vs ")
}

func leaderText(ls []espn.LeaderEntry) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = fmt.Sprintf("%s: %s (%s)", l.Category, l.Athlete, l.Value)
	}
	return strings.Join(parts, " | ")
}

func or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
