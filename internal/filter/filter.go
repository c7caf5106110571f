// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package filter translates list query parameters into structured filter
expressions against a schema's declared filterable columns.

An [Expr] is a small AST rather than raw SQL: the PostgreSQL store renders it
to a parameterized WHERE clause via [Expr.SQL], and the in-memory store
evaluates it directly via [Expr.Matches]. Only columns an entity explicitly
opts into (queryable, qualifiers, ranged) ever reach an expression.

Grammar accepted from the query string:

  - search=<text>              free-text OR across queryable columns
  - <qualifier>=[op]<value>    op ∈ {>, <, >=, <=, !=, <>}, default equality
  - _start_<ranged>=<value>    inclusive lower bound (>=)
  - _end_<ranged>=<value>      inclusive upper bound (<=)
*/
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/schema"
)

// # Expression AST

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "!="
	OpGt   Op = ">"
	OpGe   Op = ">="
	OpLt   Op = "<"
	OpLe   Op = "<="
	OpLike Op = "LIKE"
)

// Cond is one column comparison. Field is the logical field name (used by
// the in-memory evaluator), Column the SQL column name (used by the
// PostgreSQL renderer).
type Cond struct {
	Field  string
	Column string
	Op     Op
	Value  any
}

// Expr is a filter expression: the OR of AnyOf, AND-combined with every
// entry of AllOf. A nil *Expr means "no filter" (never a trivially-true
// clause).
type Expr struct {
	AnyOf []Cond
	AllOf []Cond
}

// Equals builds an equality condition for a field.
func Equals(field *schema.Field, value any) Cond {
	return Cond{Field: field.Name, Column: field.Column(), Op: OpEq, Value: value}
}

// NotEquals builds an inequality condition for a field.
func NotEquals(field *schema.Field, value any) Cond {
	return Cond{Field: field.Name, Column: field.Column(), Op: OpNe, Value: value}
}

// All combines conditions into an AND expression. Returns nil for no input.
func All(conds ...Cond) *Expr {
	if len(conds) == 0 {
		return nil
	}
	return &Expr{AllOf: conds}
}

// And merges two expressions. Either side may be nil.
func And(a, b *Expr) *Expr {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := &Expr{
		AnyOf: append(append([]Cond{}, a.AnyOf...), b.AnyOf...),
		AllOf: append(append([]Cond{}, a.AllOf...), b.AllOf...),
	}
	return merged
}

// # SQL Rendering

/*
SQL renders the expression to a parameterized WHERE fragment.

Parameters:
  - start: The first placeholder ordinal ($start), so callers can append
    further parameters.

Returns:
  - string: SQL fragment without the WHERE keyword
  - []any: Positional arguments matching the placeholders
*/
func (e *Expr) SQL(start int) (string, []any) {
	if e == nil {
		return "", nil
	}

	var clauses []string
	var args []any
	next := start

	// Free-text OR block
	if len(e.AnyOf) > 0 {
		parts := make([]string, 0, len(e.AnyOf))
		for _, c := range e.AnyOf {
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.Column, c.Op, next))
			args = append(args, c.Value)
			next++
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	// Qualifier / range AND block
	for _, c := range e.AllOf {
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", c.Column, c.Op, next))
		args = append(args, c.Value)
		next++
	}

	return strings.Join(clauses, " AND "), args
}

// # In-Memory Evaluation

// Matches evaluates the expression against a props map keyed by field name.
// A nil expression matches everything.
func (e *Expr) Matches(props map[string]any) bool {
	if e == nil {
		return true
	}

	if len(e.AnyOf) > 0 {
		hit := false
		for _, c := range e.AnyOf {
			if condMatches(c, props) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	for _, c := range e.AllOf {
		if !condMatches(c, props) {
			return false
		}
	}
	return true
}

func condMatches(c Cond, props map[string]any) bool {
	actual := props[c.Field]

	if c.Op == OpLike {
		s, ok := actual.(string)
		pattern, _ := c.Value.(string)
		return ok && strings.Contains(s, strings.Trim(pattern, "%"))
	}

	cmp, comparable := compare(actual, c.Value)
	switch c.Op {
	case OpEq:
		return comparable && cmp == 0
	case OpNe:
		return !comparable || cmp != 0
	case OpGt:
		return comparable && cmp > 0
	case OpGe:
		return comparable && cmp >= 0
	case OpLt:
		return comparable && cmp < 0
	case OpLe:
		return comparable && cmp <= 0
	default:
		return false
	}
}

// compare orders two untyped values of the same semantic family.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if av {
			return 1, true
		}
		return -1, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	default:
		ai, aok := toInt64(a)
		bi, bok := toInt64(b)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case ai < bi:
			return -1, true
		case ai > bi:
			return 1, true
		default:
			return 0, true
		}
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// # Query-Parameter Building

// rangeStartPrefix/rangeEndPrefix mark inclusive bound parameters.
const (
	rangeStartPrefix = "_start_"
	rangeEndPrefix   = "_end_"
)

/*
Build translates a flat query-parameter map into a filter expression for the
entity's declared filterable columns.

Description: The free-text search clause ORs a LIKE over every queryable
column; qualifier and range clauses are AND-combined with it. Values are
coerced by the column's semantic type. Absent filters yield a nil expression.

Parameters:
  - values: Parsed query parameters (first value wins per key).
  - entity: The schema declaring queryable/qualifier/ranged columns.

Returns:
  - *Expr: The combined expression, or nil when no filter applies
  - error: apperr.OutOfRange when a value cannot be coerced
*/
func Build(values map[string][]string, entity *schema.Entity) (*Expr, error) {
	expr := &Expr{}

	// Free-text search across all queryable columns
	if search := first(values, "search"); search != "" {
		needle := "%" + norm.NFC.String(search) + "%"
		for _, name := range entity.Filter.Queryable {
			field, ok := entity.Field(name)
			if !ok {
				continue
			}
			expr.AnyOf = append(expr.AnyOf, Cond{
				Field:  field.Name,
				Column: field.Column(),
				Op:     OpLike,
				Value:  needle,
			})
		}
	}

	// Qualifier matches with optional operator prefix
	for _, name := range entity.Filter.Qualifiers {
		raw := first(values, name)
		if raw == "" {
			continue
		}
		field, ok := entity.Field(name)
		if !ok {
			continue
		}

		op, rest := splitOperator(raw)
		value, err := coerce(field, rest)
		if err != nil {
			return nil, apperr.OutOfRange(name)
		}
		expr.AllOf = append(expr.AllOf, Cond{Field: field.Name, Column: field.Column(), Op: op, Value: value})
	}

	// Inclusive range bounds
	for _, name := range entity.Filter.Ranged {
		field, ok := entity.Field(name)
		if !ok {
			continue
		}

		if raw := first(values, rangeStartPrefix+name); raw != "" {
			value, err := coerce(field, raw)
			if err != nil {
				return nil, apperr.OutOfRange(name)
			}
			expr.AllOf = append(expr.AllOf, Cond{Field: field.Name, Column: field.Column(), Op: OpGe, Value: value})
		}
		if raw := first(values, rangeEndPrefix+name); raw != "" {
			value, err := coerce(field, raw)
			if err != nil {
				return nil, apperr.OutOfRange(name)
			}
			expr.AllOf = append(expr.AllOf, Cond{Field: field.Name, Column: field.Column(), Op: OpLe, Value: value})
		}
	}

	if len(expr.AnyOf) == 0 && len(expr.AllOf) == 0 {
		return nil, nil
	}
	return expr, nil
}

// splitOperator strips a leading comparison operator, defaulting to equality.
// Two-character operators are matched before single-character ones.
func splitOperator(raw string) (Op, string) {
	switch {
	case strings.HasPrefix(raw, ">="):
		return OpGe, raw[2:]
	case strings.HasPrefix(raw, "<="):
		return OpLe, raw[2:]
	case strings.HasPrefix(raw, "!="), strings.HasPrefix(raw, "<>"):
		return OpNe, raw[2:]
	case strings.HasPrefix(raw, ">"):
		return OpGt, raw[1:]
	case strings.HasPrefix(raw, "<"):
		return OpLt, raw[1:]
	default:
		return OpEq, raw
	}
}

// coerce converts a raw query-string value by the field's semantic type.
func coerce(field *schema.Field, raw string) (any, error) {
	switch field.Type {
	case schema.TypeBoolean:
		return raw == "true", nil
	case schema.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case schema.TypeTimestamp:
		return parseTimestamp(raw)
	default:
		return norm.NFC.String(raw), nil
	}
}

// timestampLayouts are tried in order when coercing range/qualifier values.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func first(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
