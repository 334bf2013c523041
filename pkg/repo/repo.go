// Package repo defines a small generic repository over Neo4j nodes.
package repo

import "context"

// Repository reads and upserts entities keyed by ID.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Merge(ctx context.Context, entity T) error
}

// ListOpts controls pagination and filtering for List operations. Filter
// entries are matched as property equality.
type ListOpts struct {
	Offset int
	Limit  int
	Filter map[string]any
}
