package espn

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/WessleyAI/courtside/engine/domain"
)

// Envelope paths for the two feed shapes.
const (
	EventsPath   = ".events[]?"
	ArticlesPath = ".articles[]?"
)

// PathFor returns the envelope path holding records of the given type.
func PathFor(ct domain.ContentType) string {
	if ct == domain.ContentNews {
		return ArticlesPath
	}
	return EventsPath
}

// ExtractRecords walks a feed envelope along a dotted path and returns the
// raw records it points at. A segment ending in "[]" iterates an array. A
// trailing "?" makes a missing or mistyped segment yield no records instead
// of an error, e.g. ".events[]?".
func ExtractRecords(body []byte, path string) ([]json.RawMessage, error) {
	optional := strings.HasSuffix(path, "?")
	path = strings.TrimSuffix(path, "?")

	var root json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("espn: extract: %w: %v", domain.ErrMalformedRecord, err)
	}

	nodes := []json.RawMessage{root}
	for _, seg := range strings.Split(strings.TrimPrefix(path, "."), ".") {
		if seg == "" {
			continue
		}
		iterate := strings.HasSuffix(seg, "[]")
		key := strings.TrimSuffix(seg, "[]")

		var next []json.RawMessage
		for _, n := range nodes {
			v, err := step(n, key, iterate)
			if err != nil {
				if optional {
					continue
				}
				return nil, fmt.Errorf("espn: extract %q: %w", path, err)
			}
			next = append(next, v...)
		}
		nodes = next
	}
	return nodes, nil
}

func step(node json.RawMessage, key string, iterate bool) ([]json.RawMessage, error) {
	cur := node
	if key != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(node, &obj); err != nil {
			return nil, fmt.Errorf("%s: not an object", key)
		}
		v, ok := obj[key]
		if !ok {
			return nil, fmt.Errorf("%s: missing", key)
		}
		cur = v
	}
	if !iterate {
		return []json.RawMessage{cur}, nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(cur, &arr); err != nil {
		return nil, fmt.Errorf("%s: not an array", key)
	}
	return arr, nil
}
