package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/espn"
)

// ContentHash digests the canonical form of a raw record: objects are
// re-serialized with sorted keys and numbers keep their literal text, so
// key order in the source never changes the hash.
func ContentHash(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("card: hash: %w: %v", domain.ErrMalformedRecord, err)
	}
	canon, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("card: hash: %w", err)
	}
	return digest(canon), nil
}

func digest(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// BuildMetadata assembles the structured record for a decoded feed entry.
// Values the feed does not carry are left empty so they are omitted on
// write; display placeholders never reach metadata.
func BuildMetadata(rec espn.Record) (domain.SportsMetadata, error) {
	hash, err := ContentHash(rec.Raw)
	if err != nil {
		return domain.SportsMetadata{}, err
	}
	m := domain.SportsMetadata{
		Sport:       rec.Origin.Sport,
		ContentType: rec.Origin.ContentType,
		ContentHash: hash,
		SourceFile:  rec.Origin.Source,
	}
	switch {
	case rec.Event != nil:
		eventMetadata(&m, rec.Event)
	case rec.Article != nil:
		articleMetadata(&m, rec.Article)
	}
	return m, nil
}

func eventMetadata(m *domain.SportsMetadata, ev *espn.ParsedEvent) {
	teams := newSet()
	for _, c := range ev.Competitors {
		teams.add(c.Name)
		m.Scores = append(m.Scores, c.Name+" "+c.Score)
	}
	m.Teams = teams.list()

	athletes := newSet()
	for _, l := range ev.Leaders {
		// "Unknown" is a display placeholder, not a searchable athlete.
		if l.Athlete != "Unknown" {
			athletes.add(l.Athlete)
		}
		m.Performers = append(m.Performers, domain.PerformanceStat{
			Category:     l.Category,
			AthleteName:  l.Athlete,
			DisplayValue: l.Value,
			Team:         l.Team,
		})
	}
	m.Athletes = athletes.list()

	ctx := domain.GameContext{
		Venue:     ev.Venue,
		Location:  ev.City,
		Weather:   ev.Weather,
		Odds:      ev.Odds,
		Broadcast: ev.Broadcast,
	}
	if !ctx.IsZero() {
		m.Context = &ctx
	}

	m.TeamStats = ev.TeamStats
	m.Headline = ev.Name
	m.EventDate = ev.Date
	switch s := domain.Status(ev.State); s {
	case domain.StatusPre, domain.StatusIn, domain.StatusPost:
		m.Status = s
	}

	if ev.Name != "" {
		m.Discovery.Keywords = append([]string{ev.Name}, m.Scores...)
		m.Discovery.SuggestedQueries = []string{ev.Name + " latest score", ev.Name + " highlights"}
	}
}

func articleMetadata(m *domain.SportsMetadata, a *espn.ParsedArticle) {
	m.Headline = a.Headline
	m.Summary = a.Description
	m.EventDate = a.Published
	m.Status = domain.StatusNews
	m.Teams = newSet().addAll(a.Teams).list()
	m.Athletes = newSet().addAll(a.Athletes).list()

	kw := newSet().addAll(m.Athletes).addAll(m.Teams)
	if a.Headline != "" {
		kw.add(a.Headline)
	}
	m.Discovery.Keywords = kw.list()
	for _, t := range m.Teams {
		m.Discovery.Hashtags = append(m.Discovery.Hashtags, "#"+strings.ReplaceAll(t, " ", ""))
	}
	m.Discovery.SocialHandles = newSet().addAll(a.SocialHandles).list()
}

// set keeps first-seen order.
type set struct {
	seen  map[string]bool
	items []string
}

func newSet() *set { return &set{seen: map[string]bool{}} }

func (s *set) add(v string) *set {
	v = strings.TrimSpace(v)
	if v != "" && !s.seen[v] {
		s.seen[v] = true
		s.items = append(s.items, v)
	}
	return s
}

func (s *set) addAll(vs []string) *set {
	for _, v := range vs {
		s.add(v)
	}
	return s
}

func (s *set) list() []string { return s.items }
