// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"context"

	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/schema"
)

// ListQuery carries the paging/sorting part of a list operation. The zero
// value means "everything, schema order".
type ListQuery struct {
	// OrderBy is a SQL column name, already whitelisted by the caller.
	OrderBy    string
	Descending bool

	// Limit of 0 means no limit.
	Limit  int
	Offset int
}

// Store is the narrow persistence interface the engine consumes.
//
// # Implementations
//
// [PostgresStore] is the production implementation; [MemoryStore] backs
// tests and local development. Both treat a nil expression as "match all".
type Store interface {
	// Insert persists a new row from a props map (fields with columns only).
	Insert(ctx context.Context, entity *schema.Entity, props map[string]any) error

	// Update overwrites the row identified by id.
	Update(ctx context.Context, entity *schema.Entity, id string, props map[string]any) error

	// Delete removes the row identified by id. Deleting an absent row is
	// not an error (last-write-wins model).
	Delete(ctx context.Context, entity *schema.Entity, id string) error

	// SelectOne returns the first matching row, or nil without error on a miss.
	SelectOne(ctx context.Context, entity *schema.Entity, expr *filter.Expr) (map[string]any, error)

	// List returns matching rows under the given paging/sorting.
	List(ctx context.Context, entity *schema.Entity, expr *filter.Expr, query ListQuery) ([]map[string]any, error)

	// Count returns the number of matching rows.
	Count(ctx context.Context, entity *schema.Entity, expr *filter.Expr) (int, error)
}
