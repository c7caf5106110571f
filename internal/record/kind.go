// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"context"

	"github.com/taibuivan/noriva/internal/describe"
	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/platform/cache"
	"github.com/taibuivan/noriva/internal/role"
	"github.com/taibuivan/noriva/internal/schema"
	"github.com/taibuivan/noriva/pkg/pagination"
)

// # Kind Collection

// Kinds holds one [Kind] facade per registered entity, sharing a single
// store and cache. It is built once at startup and injected.
type Kinds struct {
	registry *schema.Registry
	store    Store
	cache    *cache.Cache
	kinds    map[string]*Kind
}

// NewKinds builds the kind facades for every entity in the registry.
func NewKinds(registry *schema.Registry, store Store, kv *cache.Cache) *Kinds {
	kinds := &Kinds{
		registry: registry,
		store:    store,
		cache:    kv,
		kinds:    make(map[string]*Kind),
	}

	for _, name := range registry.Kinds() {
		entity, _ := registry.Lookup(name)
		kinds.kinds[name] = &Kind{entity: entity, store: store, cache: kv, kinds: kinds}
	}

	return kinds
}

// Kind fetches the facade for one kind name.
func (k *Kinds) Kind(name string) (*Kind, bool) {
	kind, ok := k.kinds[name]
	return kind, ok
}

// # Kind Facade

// Kind is the collection-level facade over all records of one schema.
type Kind struct {
	entity *schema.Entity
	store  Store
	cache  *cache.Cache
	kinds  *Kinds
}

// Entity returns the kind's schema declaration.
func (k *Kind) Entity() *schema.Entity { return k.entity }

/*
Mint builds a new, unpersisted record with schema defaults applied.

Description: Defaults (literal values or zero-arg producers, e.g. generated
ids and timestamps) fill every omitted field; the supplied partial props are
then assigned through validated Set.

Parameters:
  - props: Partial creation props, may be nil.

Returns:
  - *Record: A record with inserted == false
  - error: apperr.OutOfRange when a supplied value fails validation
*/
func (k *Kind) Mint(props map[string]any) (*Record, error) {
	rec := &Record{
		entity: k.entity,
		kind:   k,
		props:  make(map[string]any),
	}

	// Apply declared defaults for omitted fields
	for i := range k.entity.Fields {
		field := &k.entity.Fields[i]
		if field.Virtual() {
			continue
		}
		if _, supplied := props[field.Name]; supplied {
			continue
		}
		if value, ok := field.DefaultValue(); ok {
			rec.props[field.Name] = value
		}
	}

	// Supplied values go through validated assignment
	for name, value := range props {
		field, ok := k.entity.Field(name)
		if !ok || field.Virtual() {
			continue
		}
		if field.Type == schema.TypeSecret {
			plain, _ := value.(string)
			if err := rec.SetPassword(plain); err != nil {
				return nil, err
			}
			continue
		}
		if err := rec.Set(name, value); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

/*
Create mints and immediately persists a record.

Description: Creation props are checked against required fields first, so a
failed check never leaves a partial row.

Returns:
  - *Record: The inserted record
  - error: apperr.MissingRequiredParameter, apperr.OutOfRange, storage failures
*/
func (k *Kind) Create(context context.Context, props map[string]any) (*Record, error) {
	rec, err := k.Mint(props)
	if err != nil {
		return nil, err
	}

	if err := rec.TestCreationProps(props); err != nil {
		return nil, err
	}

	if err := rec.Insert(context); err != nil {
		return nil, err
	}

	return rec, nil
}

/*
FindOrDie fetches a record by id.

Returns:
  - *Record: The hydrated record
  - error: apperr.NotFound when absent
*/
func (k *Kind) FindOrDie(context context.Context, id string) (*Record, error) {
	idField, _ := k.entity.Field("id")

	rec, err := k.FindOne(context, filter.All(filter.Equals(idField, id)))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFound(k.entity.Kind)
	}
	return rec, nil
}

/*
FindOne fetches the first record matching the predicate.

Returns:
  - *Record: The hydrated record, or nil when nothing matches (not an error)
  - error: Storage failures
*/
func (k *Kind) FindOne(context context.Context, expr *filter.Expr) (*Record, error) {
	props, err := k.store.SelectOne(context, k.entity, expr)
	if err != nil {
		return nil, err
	}
	if props == nil {
		return nil, nil
	}
	return k.hydrate(props), nil
}

/*
FindMany fetches every record matching the predicate.

Returns:
  - []*Record: Hydrated records, possibly empty
  - error: Storage failures
*/
func (k *Kind) FindMany(context context.Context, expr *filter.Expr) ([]*Record, error) {
	rows, err := k.store.List(context, k.entity, expr, ListQuery{})
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(rows))
	for _, props := range rows {
		records = append(records, k.hydrate(props))
	}
	return records, nil
}

// Count returns the number of records matching the predicate.
func (k *Kind) Count(context context.Context, expr *filter.Expr) (int, error) {
	return k.store.Count(context, k.entity, expr)
}

/*
DescribeList executes a paged query and describes every item for the viewer.

Parameters:
  - context: context.Context
  - principal: Viewing principal, may be nil (anonymous).
  - params: Paging, sorting, and section selection.
  - expr: Filter expression from the query builder, may be nil.

Returns:
  - *describe.List: Paging block with clamped navigation plus items
  - error: Storage failures
*/
func (k *Kind) DescribeList(context context.Context, principal role.Principal, params describe.ListParams, expr *filter.Expr) (*describe.List, error) {
	total, err := k.store.Count(context, k.entity, expr)
	if err != nil {
		return nil, err
	}

	rows, err := k.store.List(context, k.entity, expr, ListQuery{
		OrderBy:    k.sortColumn(params.SortBy),
		Descending: params.SortOrder == describe.SortDesc,
		Limit:      params.Paging.ItemsPerPage,
		Offset:     params.Paging.Offset(),
	})
	if err != nil {
		return nil, err
	}

	items := make([]*describe.Describe, 0, len(rows))
	for _, props := range rows {
		rec := k.hydrate(props)
		items = append(items, describe.Record(rec, describe.Params{
			Principal: principal,
			Include:   params.Include,
		}))
	}

	return &describe.List{
		Paging: pagination.NewPaging(params.Paging.Page, params.Paging.ItemsPerPage, total),
		Items:  items,
	}, nil
}

// sortColumn whitelists the sort field against the schema, falling back to id.
func (k *Kind) sortColumn(sortBy string) string {
	if field, ok := k.entity.Field(sortBy); ok && !field.Virtual() {
		return field.Column()
	}
	return "id"
}

// hydrate wraps fetched props in a Record marked as persisted.
func (k *Kind) hydrate(props map[string]any) *Record {
	return &Record{
		entity:   k.entity,
		kind:     k,
		props:    props,
		inserted: true,
	}
}
