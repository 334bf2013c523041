package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/WessleyAI/courtside/pkg/repo"
)

const labelRecord = "Record"

func newRecordRepo(sessions repo.SessionFunc) *repo.Neo4jRepo[Record, string] {
	return repo.NewNeo4jRepo[Record, string](
		sessions,
		labelRecord,
		recordToMap,
		recordFromRecord,
	)
}

func recordToMap(r Record) map[string]any {
	m := map[string]any{
		"id":           r.ID,
		"sport":        r.Sport,
		"content_type": r.ContentType,
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("status", r.Status)
	put("headline", r.Headline)
	put("event_date", r.EventDate)
	put("content_hash", r.ContentHash)
	return m
}

func recordFromRecord(rec *neo4j.Record) (Record, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return Record{}, err
	}
	return recordFromProps(node.Props), nil
}

func recordFromProps(props map[string]any) Record {
	return Record{
		ID:          strProp(props, "id"),
		Sport:       strProp(props, "sport"),
		ContentType: strProp(props, "content_type"),
		Status:      strProp(props, "status"),
		Headline:    strProp(props, "headline"),
		EventDate:   strProp(props, "event_date"),
		ContentHash: strProp(props, "content_hash"),
	}
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
