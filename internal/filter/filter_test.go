// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/schema"
)

// filterEntity registers a kind with every filter opt-in populated.
func filterEntity(t *testing.T) *schema.Entity {
	t.Helper()

	entity := &schema.Entity{
		Kind:       "member",
		Table:      "core.member",
		OwnerRules: []string{"$id"},
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeID},
			{Name: "username", Type: schema.TypeString, View: []string{"public"}},
			{Name: "realName", Type: schema.TypeString, View: []string{"public"}},
			{Name: "admin", Type: schema.TypeBoolean},
			{Name: "loginCount", Type: schema.TypeInteger},
			{Name: "createdAt", Type: schema.TypeTimestamp},
		},
		Filter: schema.Filter{
			Queryable:  []string{"username", "realName"},
			Qualifiers: []string{"admin", "loginCount", "username"},
			Ranged:     []string{"createdAt"},
		},
	}

	registry := schema.NewRegistry()
	require.NoError(t, registry.Register(entity))
	return entity
}

/*
TestBuild_Search verifies the free-text clause ORs a LIKE over every
queryable column.
*/
func TestBuild_Search(t *testing.T) {
	entity := filterEntity(t)

	expr, err := filter.Build(map[string][]string{"search": {"rita"}}, entity)
	require.NoError(t, err)
	require.NotNil(t, expr)

	require.Len(t, expr.AnyOf, 2)
	assert.Empty(t, expr.AllOf)

	for _, cond := range expr.AnyOf {
		assert.Equal(t, filter.OpLike, cond.Op)
		assert.Equal(t, "%rita%", cond.Value)
	}
	assert.Equal(t, "username", expr.AnyOf[0].Column)
	assert.Equal(t, "realname", expr.AnyOf[1].Column)
}

/*
TestBuild_Qualifiers verifies operator prefixes and semantic-type coercion.
*/
func TestBuild_Qualifiers(t *testing.T) {
	entity := filterEntity(t)

	testCases := []struct {
		name      string
		values    map[string][]string
		wantOp    filter.Op
		wantValue any
	}{
		{
			name:      "boolean equality",
			values:    map[string][]string{"admin": {"true"}},
			wantOp:    filter.OpEq,
			wantValue: true,
		},
		{
			name:      "boolean non-true is false",
			values:    map[string][]string{"admin": {"yes"}},
			wantOp:    filter.OpEq,
			wantValue: false,
		},
		{
			name:      "integer greater-or-equal",
			values:    map[string][]string{"loginCount": {">=5"}},
			wantOp:    filter.OpGe,
			wantValue: int64(5),
		},
		{
			name:      "integer not-equal",
			values:    map[string][]string{"loginCount": {"!=0"}},
			wantOp:    filter.OpNe,
			wantValue: int64(0),
		},
		{
			name:      "string default equality",
			values:    map[string][]string{"username": {"warden"}},
			wantOp:    filter.OpEq,
			wantValue: "warden",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			expr, err := filter.Build(testCase.values, entity)
			require.NoError(t, err)
			require.NotNil(t, expr)
			require.Len(t, expr.AllOf, 1)

			assert.Equal(t, testCase.wantOp, expr.AllOf[0].Op)
			assert.Equal(t, testCase.wantValue, expr.AllOf[0].Value)
		})
	}
}

/*
TestBuild_Range verifies the inclusive _start_/_end_ bound parameters.
*/
func TestBuild_Range(t *testing.T) {
	entity := filterEntity(t)

	expr, err := filter.Build(map[string][]string{
		"_start_createdAt": {"2026-01-01"},
		"_end_createdAt":   {"2026-06-30T23:59:59Z"},
	}, entity)
	require.NoError(t, err)
	require.NotNil(t, expr)
	require.Len(t, expr.AllOf, 2)

	assert.Equal(t, filter.OpGe, expr.AllOf[0].Op)
	assert.Equal(t, filter.OpLe, expr.AllOf[1].Op)

	start, ok := expr.AllOf[0].Value.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2026, start.Year())
}

/*
TestBuild_BadValue verifies that uncoercible values fail with OUT_OF_RANGE.
*/
func TestBuild_BadValue(t *testing.T) {
	entity := filterEntity(t)

	_, err := filter.Build(map[string][]string{"loginCount": {"many"}}, entity)
	require.Error(t, err)
	assert.Equal(t, "OUT_OF_RANGE", apperr.As(err).Code)

	_, err = filter.Build(map[string][]string{"_start_createdAt": {"not-a-date"}}, entity)
	require.Error(t, err)
	assert.Equal(t, "OUT_OF_RANGE", apperr.As(err).Code)
}

/*
TestBuild_Empty verifies absent filters yield a nil expression, and
undeclared parameters are ignored.
*/
func TestBuild_Empty(t *testing.T) {
	entity := filterEntity(t)

	expr, err := filter.Build(map[string][]string{}, entity)
	require.NoError(t, err)
	assert.Nil(t, expr)

	// "id" is not a declared qualifier; a nil expression still results
	expr, err = filter.Build(map[string][]string{"id": {"abc"}}, entity)
	require.NoError(t, err)
	assert.Nil(t, expr)
}

/*
TestExpr_SQL verifies parameterized rendering with caller-chosen ordinals.
*/
func TestExpr_SQL(t *testing.T) {
	entity := filterEntity(t)

	expr, err := filter.Build(map[string][]string{
		"search": {"rita"},
		"admin":  {"true"},
	}, entity)
	require.NoError(t, err)

	sql, args := expr.SQL(1)
	assert.Equal(t, "(username LIKE $1 OR realname LIKE $2) AND admin = $3", sql)
	assert.Equal(t, []any{"%rita%", "%rita%", true}, args)

	// Ordinals continue from the caller's starting point
	sql, args = expr.SQL(4)
	assert.Equal(t, "(username LIKE $4 OR realname LIKE $5) AND admin = $6", sql)
	assert.Len(t, args, 3)
}

/*
TestExpr_SQL_Nil verifies a nil expression renders to nothing.
*/
func TestExpr_SQL_Nil(t *testing.T) {
	var expr *filter.Expr
	sql, args := expr.SQL(1)
	assert.Empty(t, sql)
	assert.Nil(t, args)
}

/*
TestExpr_Matches verifies the in-memory evaluator agrees with the grammar.
*/
func TestExpr_Matches(t *testing.T) {
	entity := filterEntity(t)

	row := map[string]any{
		"username":   "warden",
		"realName":   "Rita Book",
		"admin":      false,
		"loginCount": int64(12),
		"createdAt":  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	testCases := []struct {
		name   string
		values map[string][]string
		want   bool
	}{
		{name: "search hits one queryable column", values: map[string][]string{"search": {"Rita"}}, want: true},
		{name: "search misses all columns", values: map[string][]string{"search": {"zelda"}}, want: false},
		{name: "qualifier equality", values: map[string][]string{"username": {"warden"}}, want: true},
		{name: "qualifier inequality", values: map[string][]string{"loginCount": {">100"}}, want: false},
		{name: "range includes boundary", values: map[string][]string{"_start_createdAt": {"2026-03-01"}}, want: true},
		{name: "range excludes earlier", values: map[string][]string{"_end_createdAt": {"2026-02-01"}}, want: false},
		{
			name: "search AND qualifier",
			values: map[string][]string{
				"search": {"warden"},
				"admin":  {"true"},
			},
			want: false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			expr, err := filter.Build(testCase.values, entity)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, expr.Matches(row))
		})
	}
}

/*
TestAnd verifies expression merging with nil sides.
*/
func TestAnd(t *testing.T) {
	entity := filterEntity(t)
	field, _ := entity.Field("username")

	a := filter.All(filter.Equals(field, "warden"))
	assert.Same(t, a, filter.And(a, nil))
	assert.Same(t, a, filter.And(nil, a))
	assert.Nil(t, filter.All())

	b := filter.All(filter.NotEquals(field, "rita"))
	merged := filter.And(a, b)
	require.NotNil(t, merged)
	assert.Len(t, merged.AllOf, 2)
}
