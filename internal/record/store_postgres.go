// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/platform/dberr"
	"github.com/taibuivan/noriva/internal/schema"
)

// PostgresStore implements [Store] using pgx. Queries are generated from the
// schema's field declarations: column names are the lowercased field names,
// and scan targets are selected by semantic type. No per-entity SQL is
// hand-written.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the production store over a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Insert persists a new row.

Parameters:
  - context: context.Context
  - entity: The schema declaration.
  - props: Field values to store (fields with columns only).

Returns:
  - error: apperr.Conflict on a unique violation, otherwise wrapped failures
*/
func (store *PostgresStore) Insert(context context.Context, entity *schema.Entity, props map[string]any) error {

	// Build the column and placeholder lists in declaration order
	var cols []string
	var placeholders []string
	var args []any

	for i := range entity.Fields {
		field := &entity.Fields[i]
		if field.Virtual() {
			continue
		}
		value, ok := props[field.Name]
		if !ok {
			continue
		}
		cols = append(cols, field.Column())
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, value)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		entity.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	// Execute the insert
	if _, err := store.pool.Exec(context, query, args...); err != nil {
		return dberr.Wrap(err, "record_store_insert")
	}

	return nil
}

/*
Update overwrites the row identified by id.

Returns:
  - error: Wrapped execution failures
*/
func (store *PostgresStore) Update(context context.Context, entity *schema.Entity, id string, props map[string]any) error {

	// $1 is reserved for the id in the WHERE clause
	var assignments []string
	args := []any{id}

	for i := range entity.Fields {
		field := &entity.Fields[i]
		if field.Virtual() || field.Name == "id" {
			continue
		}
		value, ok := props[field.Name]
		if !ok {
			continue
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", field.Column(), len(args)))
	}

	if len(assignments) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`,
		entity.Table, strings.Join(assignments, ", "))

	if _, err := store.pool.Exec(context, query, args...); err != nil {
		return dberr.Wrap(err, "record_store_update")
	}

	return nil
}

/*
Delete removes the row identified by id. Absent rows are not an error.
*/
func (store *PostgresStore) Delete(context context.Context, entity *schema.Entity, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, entity.Table)

	if _, err := store.pool.Exec(context, query, id); err != nil {
		return dberr.Wrap(err, "record_store_delete")
	}

	return nil
}

/*
SelectOne returns the first matching row.

Returns:
  - map[string]any: Props keyed by field name, nil on a miss (not an error)
  - error: Wrapped execution failures
*/
func (store *PostgresStore) SelectOne(context context.Context, entity *schema.Entity, expr *filter.Expr) (map[string]any, error) {
	query, args := store.selectQuery(entity, expr, ListQuery{Limit: 1})

	rows, err := store.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "record_store_select_one")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, dberr.Wrap(err, "record_store_select_one")
		}
		return nil, nil
	}

	props, err := scanRow(rows, entity)
	if err != nil {
		return nil, err
	}
	return props, nil
}

/*
List returns matching rows under the given paging and sorting.
*/
func (store *PostgresStore) List(context context.Context, entity *schema.Entity, expr *filter.Expr, listQuery ListQuery) ([]map[string]any, error) {
	query, args := store.selectQuery(entity, expr, listQuery)

	rows, err := store.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "record_store_list")
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		props, err := scanRow(rows, entity)
		if err != nil {
			return nil, err
		}
		results = append(results, props)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "record_store_list")
	}

	return results, nil
}

/*
Count returns the number of matching rows.
*/
func (store *PostgresStore) Count(context context.Context, entity *schema.Entity, expr *filter.Expr) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, entity.Table)

	where, args := expr.SQL(1)
	if where != "" {
		query += " WHERE " + where
	}

	var count int64
	if err := store.pool.QueryRow(context, query, args...).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "record_store_count")
	}

	return int(count), nil
}

// selectQuery assembles a SELECT over every stored column of the entity.
// Sort columns are whitelisted by the caller; limit/offset are integers, so
// fmt is safe here.
func (store *PostgresStore) selectQuery(entity *schema.Entity, expr *filter.Expr, listQuery ListQuery) (string, []any) {
	cols := make([]string, 0, len(entity.Fields))
	for i := range entity.Fields {
		if entity.Fields[i].Virtual() {
			continue
		}
		cols = append(cols, entity.Fields[i].Column())
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(cols, ", "), entity.Table)

	where, args := expr.SQL(1)
	if where != "" {
		query += " WHERE " + where
	}

	if listQuery.OrderBy != "" {
		direction := "ASC"
		if listQuery.Descending {
			direction = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", listQuery.OrderBy, direction)
	}

	if listQuery.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", listQuery.Limit)
	}
	if listQuery.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", listQuery.Offset)
	}

	return query, args
}

// scanRow reads one row into a props map, selecting scan targets by each
// field's semantic type.
func scanRow(rows pgx.Rows, entity *schema.Entity) (map[string]any, error) {
	var fields []*schema.Field
	var targets []any

	for i := range entity.Fields {
		field := &entity.Fields[i]
		if field.Virtual() {
			continue
		}
		fields = append(fields, field)

		switch field.Type {
		case schema.TypeBoolean:
			targets = append(targets, new(bool))
		case schema.TypeInteger:
			targets = append(targets, new(int64))
		case schema.TypeTimestamp:
			targets = append(targets, new(time.Time))
		default:
			targets = append(targets, new(string))
		}
	}

	if err := rows.Scan(targets...); err != nil {
		return nil, dberr.Wrap(err, "record_store_scan")
	}

	props := make(map[string]any, len(fields))
	for i, field := range fields {
		switch target := targets[i].(type) {
		case *bool:
			props[field.Name] = *target
		case *int64:
			props[field.Name] = *target
		case *time.Time:
			props[field.Name] = *target
		case *string:
			props[field.Name] = *target
		}
	}

	return props, nil
}
