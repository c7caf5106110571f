// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"context"
	"sort"
	"sync"

	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/schema"
)

// MemoryStore implements [Store] with an in-process map. It backs unit tests
// and local development where no PostgreSQL instance is available; filter
// expressions are evaluated with [filter.Expr.Matches] instead of SQL.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]map[string]any // table → rows in insertion order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]map[string]any)}
}

// Insert appends a copy of the props as a new row.
func (store *MemoryStore) Insert(_ context.Context, entity *schema.Entity, props map[string]any) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.rows[entity.Table] = append(store.rows[entity.Table], copyProps(props))
	return nil
}

// Update overwrites the row with the matching id. Last write wins.
func (store *MemoryStore) Update(_ context.Context, entity *schema.Entity, id string, props map[string]any) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for i, row := range store.rows[entity.Table] {
		if row["id"] == id {
			store.rows[entity.Table][i] = copyProps(props)
			return nil
		}
	}
	return nil
}

// Delete removes the row with the matching id. Absent rows are not an error.
func (store *MemoryStore) Delete(_ context.Context, entity *schema.Entity, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	rows := store.rows[entity.Table]
	for i, row := range rows {
		if row["id"] == id {
			store.rows[entity.Table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// SelectOne returns a copy of the first matching row, or nil on a miss.
func (store *MemoryStore) SelectOne(_ context.Context, entity *schema.Entity, expr *filter.Expr) (map[string]any, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, row := range store.rows[entity.Table] {
		if expr.Matches(row) {
			return copyProps(row), nil
		}
	}
	return nil, nil
}

// List returns copies of the matching rows under the given paging/sorting.
func (store *MemoryStore) List(_ context.Context, entity *schema.Entity, expr *filter.Expr, query ListQuery) ([]map[string]any, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	// Column name → field name for sort lookup
	sortField := ""
	for i := range entity.Fields {
		if entity.Fields[i].Column() == query.OrderBy {
			sortField = entity.Fields[i].Name
			break
		}
	}

	var matched []map[string]any
	for _, row := range store.rows[entity.Table] {
		if expr.Matches(row) {
			matched = append(matched, copyProps(row))
		}
	}

	if sortField != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessProp(matched[i][sortField], matched[j][sortField])
			if query.Descending {
				return !less
			}
			return less
		})
	}

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}

	return matched, nil
}

// Count returns the number of matching rows.
func (store *MemoryStore) Count(_ context.Context, entity *schema.Entity, expr *filter.Expr) (int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	count := 0
	for _, row := range store.rows[entity.Table] {
		if expr.Matches(row) {
			count++
		}
	}
	return count, nil
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// lessProp orders two untyped prop values using the filter comparator.
func lessProp(a, b any) bool {
	cond := filter.Cond{Field: "x", Op: filter.OpLt, Value: b}
	return (&filter.Expr{AllOf: []filter.Cond{cond}}).Matches(map[string]any{"x": a})
}
