// Package graph keeps an entity graph of teams and athletes and the games
// and articles they appear in.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/pkg/repo"
)

const saveCardCypher = `MERGE (r:Record {id: $id}) SET r += $props
FOREACH (name IN $teams | MERGE (t:Team {name: name}) MERGE (t)-[:FEATURED_IN]->(r))
FOREACH (name IN $athletes | MERGE (a:Athlete {name: name}) MERGE (a)-[:FEATURED_IN]->(r))`

const relatedCypher = `MATCH (e {name: $name})-[:FEATURED_IN]->(n:Record)
WHERE e:Team OR e:Athlete
RETURN DISTINCT n ORDER BY n.event_date DESC LIMIT $limit`

// Store provides graph operations on top of the generic Neo4j repository.
type Store struct {
	sessions repo.SessionFunc
	records  *repo.Neo4jRepo[Record, string]
}

// New creates a Store backed by a driver.
func New(driver neo4j.DriverWithContext) *Store {
	return NewWithSessions(repo.DriverSessions(driver))
}

// NewWithSessions creates a Store over an arbitrary session factory.
func NewWithSessions(sessions repo.SessionFunc) *Store {
	return &Store{sessions: sessions, records: newRecordRepo(sessions)}
}

// Dial connects to Neo4j and verifies connectivity.
func Dial(ctx context.Context, url, user, pass string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: connect %s: %w", url, err)
	}
	return driver, nil
}

// RecordFor projects a card onto its graph node.
func RecordFor(c domain.KnowledgeCard) Record {
	m := c.Metadata
	return Record{
		ID:          c.ID,
		Sport:       string(m.Sport),
		ContentType: string(m.ContentType),
		Status:      string(m.Status),
		Headline:    m.Headline,
		EventDate:   m.EventDate,
		ContentHash: m.ContentHash,
	}
}

// SaveCard upserts the record node and links every team and athlete on the
// card to it.
func (s *Store) SaveCard(ctx context.Context, c domain.KnowledgeCard) error {
	sess := s.sessions(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, saveCardCypher, map[string]any{
		"id":       c.ID,
		"props":    recordToMap(RecordFor(c)),
		"teams":    orEmpty(c.Metadata.Teams),
		"athletes": orEmpty(c.Metadata.Athletes),
	})
	if err != nil {
		return fmt.Errorf("graph: save %s: %w", c.ID, err)
	}
	return nil
}

// GetRecord returns a record node by id.
func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	return s.records.Get(ctx, id)
}

// RecordsBySport lists record nodes for one sport.
func (s *Store) RecordsBySport(ctx context.Context, sport string, limit int) ([]Record, error) {
	return s.records.List(ctx, repo.ListOpts{Limit: limit, Filter: map[string]any{"sport": sport}})
}

// RelatedHeadlines returns the records a team or athlete featured in,
// newest first.
func (s *Store) RelatedHeadlines(ctx context.Context, name string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	sess := s.sessions(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, relatedCypher, map[string]any{"name": name, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("graph: related %q: %w", name, err)
	}
	var out []Record
	for result.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](result.Record(), "n")
		if err != nil {
			return nil, err
		}
		out = append(out, recordFromProps(node.Props))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("graph: related %q: %w", name, err)
	}
	return out, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
