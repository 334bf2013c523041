package espn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/WessleyAI/courtside/engine/domain"
)

// NotAvailable is the display fallback for values the feed does not carry.
const NotAvailable = "N/A"

// teamStatNames are the only competitor statistics surfaced in summaries.
var teamStatNames = map[string]bool{
	"fieldGoalPct":  true,
	"threePointPct": true,
	"freeThrowPct":  true,
}

// Origin describes where a raw record came from.
type Origin struct {
	Sport       domain.Sport
	ContentType domain.ContentType
	Source      string
}

// OriginFromFilename infers sport and content type from a cached feed file
// name such as "nba-news.json".
func OriginFromFilename(name string) Origin {
	lower := strings.ToLower(name)
	o := Origin{Sport: domain.SportNFL, ContentType: domain.ContentScore, Source: name}
	if strings.Contains(lower, "nba") {
		o.Sport = domain.SportNBA
	}
	if strings.Contains(lower, "news") {
		o.ContentType = domain.ContentNews
	}
	return o
}

// Record is a decoded feed entry: exactly one of Event or Article is set,
// matching Origin.ContentType.
type Record struct {
	Origin  Origin
	Raw     json.RawMessage
	RawID   string
	Event   *ParsedEvent
	Article *ParsedArticle
}

// CompetitorLine is a competitor's display name, abbreviation and score.
type CompetitorLine struct {
	Name         string
	Abbreviation string
	Score        string
}

// LeaderEntry is one leader after merging game and team categories.
type LeaderEntry struct {
	Category string
	Athlete  string
	Value    string // cleaned
	Team     string // team abbreviation, empty for game-level leaders
}

// ParsedEvent holds the fields of a scoreboard event used downstream.
type ParsedEvent struct {
	RawID       string
	Name        string
	Date        string
	State       string
	Detail      string
	Competitors []CompetitorLine
	Leaders     []LeaderEntry
	TeamStats   string
	Venue       string
	City        string
	Weather     string
	Odds        string // first odds detail, empty when the feed lists none
	Broadcast   string
}

// ParsedArticle holds the fields of a news article used downstream.
type ParsedArticle struct {
	RawID         string
	Headline      string
	Description   string
	Published     string
	Teams         []string
	Athletes      []string
	SocialHandles []string
}

// DecodeRecord parses one raw feed object according to its origin. A
// syntactically invalid payload or one that is not a JSON object is an
// error; type mismatches in nested values degrade to empty fields.
func DecodeRecord(raw json.RawMessage, origin Origin) (Record, error) {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
		return Record{}, fmt.Errorf("espn: decode: %w: not an object", domain.ErrMalformedRecord)
	}
	rec := Record{Origin: origin, Raw: raw}
	switch origin.ContentType {
	case domain.ContentNews:
		var a Article
		if err := lenientUnmarshal(raw, &a); err != nil {
			return Record{}, err
		}
		rec.Article = ParseArticle(a)
		rec.RawID = rec.Article.RawID
	case domain.ContentScore:
		var ev Event
		if err := lenientUnmarshal(raw, &ev); err != nil {
			return Record{}, err
		}
		rec.Event = ParseEvent(ev)
		rec.RawID = rec.Event.RawID
	default:
		return Record{}, domain.NewValidationError("content_type", string(origin.ContentType), domain.ErrUnknownContentType)
	}
	return rec, nil
}

func lenientUnmarshal(raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	var typeErr *json.UnmarshalTypeError
	if err == nil || errors.As(err, &typeErr) {
		return nil
	}
	return fmt.Errorf("espn: decode: %w: %v", domain.ErrMalformedRecord, err)
}

// ParseEvent extracts teams, scores, leaders, team stats, status and
// context from a scoreboard event.
func ParseEvent(ev Event) *ParsedEvent {
	p := &ParsedEvent{
		RawID:     strings.TrimSpace(ev.ID.String()),
		Name:      ev.Name.String(),
		Date:      ev.Date.String(),
		State:     ev.Status.Type.State.String(),
		Detail:    ev.Status.Type.Detail.String(),
		Weather:   ev.Weather.DisplayValue.String(),
		Broadcast: ev.Broadcast.String(),
	}
	if len(ev.Competitions) == 0 {
		return p
	}
	comp := ev.Competitions[0]

	for _, c := range comp.Competitors {
		name := teamName(c.Team)
		if name == "" {
			continue
		}
		score := c.Score.String()
		if score == "" {
			score = "0"
		}
		p.Competitors = append(p.Competitors, CompetitorLine{
			Name:         name,
			Abbreviation: c.Team.Abbreviation.String(),
			Score:        score,
		})
	}

	p.Leaders = ExtractLeaders(comp)
	p.TeamStats = ExtractTeamStats(comp)
	p.Venue = comp.Venue.FullName.String()
	p.City = comp.Venue.Address.City.String()
	if len(comp.Odds) > 0 {
		p.Odds = comp.Odds[0].Details.String()
	}
	if p.Broadcast == "" {
		p.Broadcast = comp.Broadcast.String()
	}
	return p
}

func teamName(t Team) string {
	if n := strings.TrimSpace(t.DisplayName.String()); n != "" {
		return n
	}
	return strings.TrimSpace(t.Abbreviation.String())
}

// ExtractLeaders merges game-level leader categories with each competitor's
// own categories. Team categories are prefixed with the team abbreviation.
// Only the first leader per category is kept; categories whose first
// leader is null or carries neither athlete nor value are dropped.
func ExtractLeaders(comp Competition) []LeaderEntry {
	var out []LeaderEntry
	for _, cat := range comp.Leaders {
		if e, ok := leaderEntry(cat, ""); ok {
			out = append(out, e)
		}
	}
	for _, c := range comp.Competitors {
		abbr := c.Team.Abbreviation.String()
		for _, cat := range c.Leaders {
			if e, ok := leaderEntry(cat, abbr); ok {
				out = append(out, e)
			}
		}
	}
	return out
}

func leaderEntry(cat LeaderCategory, team string) (LeaderEntry, bool) {
	if len(cat.Leaders) == 0 || cat.Leaders[0] == nil {
		return LeaderEntry{}, false
	}
	first := cat.Leaders[0]
	athlete := strings.TrimSpace(first.Athlete.DisplayName.String())
	value := first.DisplayValue.String()
	if athlete == "" && strings.TrimSpace(value) == "" {
		return LeaderEntry{}, false
	}
	label := cat.DisplayName.String()
	if label == "" {
		label = cat.Name.String()
	}
	if team != "" {
		label = team + " " + label
	}
	if athlete == "" {
		athlete = "Unknown"
	}
	return LeaderEntry{
		Category: label,
		Athlete:  athlete,
		Value:    CleanDisplayValue(value),
		Team:     team,
	}, true
}

// ExtractTeamStats summarises the shooting percentages of each competitor,
// e.g. "LAL [FG%: 50.0%, 3P%: 38.2%] | SAC [FG%: 43.1%]". Competitors with
// none of the recognised stats are omitted.
func ExtractTeamStats(comp Competition) string {
	var groups []string
	for _, c := range comp.Competitors {
		var stats []string
		for _, s := range c.Statistics {
			if !teamStatNames[s.Name.String()] {
				continue
			}
			stats = append(stats, fmt.Sprintf("%s: %s%%", s.Abbreviation, s.DisplayValue))
		}
		if len(stats) == 0 {
			continue
		}
		groups = append(groups, fmt.Sprintf("%s [%s]", c.Team.Abbreviation, strings.Join(stats, ", ")))
	}
	return strings.Join(groups, " | ")
}

// CleanDisplayValue drops ratio components such as "354/492" from a
// comma-separated stat line and trims the rest. An empty result is "N/A".
func CleanDisplayValue(val string) string {
	var kept []string
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.Contains(part, "/") {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return NotAvailable
	}
	return strings.Join(kept, ", ")
}

// ParseArticle extracts headline, dates and tagged names from a news
// article.
func ParseArticle(a Article) *ParsedArticle {
	p := &ParsedArticle{
		RawID:       strings.TrimSpace(a.ID.String()),
		Headline:    a.Headline.String(),
		Description: a.Description.String(),
		Published:   a.Published.String(),
	}
	for _, cat := range a.Categories {
		switch cat.Type.String() {
		case "team":
			if d := cat.Description.String(); d != "" {
				p.Teams = append(p.Teams, d)
			}
		case "athlete":
			if d := cat.Description.String(); d != "" {
				p.Athletes = append(p.Athletes, d)
			}
		case "guid":
			if g := cat.GUID.String(); g != "" {
				p.SocialHandles = append(p.SocialHandles, g)
			}
		}
	}
	return p
}
