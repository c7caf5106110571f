// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/noriva/internal/describe"
	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/model"
	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/pkg/pagination"
)

/*
TestKinds_Lookup verifies the startup-built facade map.
*/
func TestKinds_Lookup(t *testing.T) {
	kinds, _, _ := newTestKinds(t)

	users, ok := kinds.Kind(model.KindUser)
	require.True(t, ok)
	assert.Equal(t, model.KindUser, users.Entity().Kind)

	_, ok = kinds.Kind("unregistered")
	assert.False(t, ok)
}

/*
TestCreate_RequiresFields verifies the trusted creation path still enforces
required fields.
*/
func TestCreate_RequiresFields(t *testing.T) {
	kinds, _, _ := newTestKinds(t)
	users := userKind(t, kinds)

	_, err := users.Create(context.Background(), map[string]any{"username": "rita"})
	require.True(t, apperr.IsCode(err, "MISSING_REQUIRED_PARAMETER"))
	assert.Equal(t, "email", apperr.As(err).Data["field"])
}

/*
TestFindOrDie verifies the fetch-or-404 contract and that fetched records are
marked persisted.
*/
func TestFindOrDie(t *testing.T) {
	kinds, _, _ := newTestKinds(t)
	users := userKind(t, kinds)
	ctx := context.Background()

	rita := seedUser(t, users, map[string]any{"username": "rita", "email": "rita@noriva.app"})

	found, err := users.FindOrDie(ctx, rita.PrincipalID())
	require.NoError(t, err)
	assert.True(t, found.Inserted())
	assert.Equal(t, "rita", found.GetString("username"))

	_, err = users.FindOrDie(ctx, "no-such-id")
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}

/*
TestFindOne_Miss verifies a predicate miss is nil-nil, not an error.
*/
func TestFindOne_Miss(t *testing.T) {
	kinds, _, _ := newTestKinds(t)
	users := userKind(t, kinds)

	field, ok := users.Entity().Field("username")
	require.True(t, ok)

	rec, err := users.FindOne(context.Background(), filter.All(filter.Equals(field, "ghost")))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

/*
TestDescribeList verifies paging, sorting, and per-viewer serialization of a
list query.
*/
func TestDescribeList(t *testing.T) {
	kinds, _, _ := newTestKinds(t)
	users := userKind(t, kinds)
	ctx := context.Background()

	for _, name := range []string{"ada", "ben", "cai"} {
		seedUser(t, users, map[string]any{"username": name, "email": name + "@noriva.app"})
	}

	list, err := users.DescribeList(ctx, nil, describe.ListParams{
		Paging:    pagination.Params{Page: 1, ItemsPerPage: 2},
		SortBy:    "username",
		SortOrder: describe.SortDesc,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, list.Paging.TotalItems)
	assert.Equal(t, 2, list.Paging.TotalPages)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "cai", list.Items[0].Props["username"])
	assert.Equal(t, "ben", list.Items[1].Props["username"])

	// Anonymous viewers only receive public fields
	assert.NotContains(t, list.Items[0].Props, "email")

	// Second page carries the remainder
	list, err = users.DescribeList(ctx, nil, describe.ListParams{
		Paging:    pagination.Params{Page: 2, ItemsPerPage: 2},
		SortBy:    "username",
		SortOrder: describe.SortDesc,
	}, nil)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "ada", list.Items[0].Props["username"])
}

/*
TestDescribeList_SortFallback verifies unknown sort fields fall back to the
id column instead of erroring.
*/
func TestDescribeList_SortFallback(t *testing.T) {
	kinds, _, _ := newTestKinds(t)
	users := userKind(t, kinds)
	ctx := context.Background()

	first := seedUser(t, users, map[string]any{"username": "ada", "email": "ada@noriva.app"})
	seedUser(t, users, map[string]any{"username": "ben", "email": "ben@noriva.app"})

	list, err := users.DescribeList(ctx, nil, describe.ListParams{
		Paging: pagination.Params{Page: 1, ItemsPerPage: 10},
		SortBy: "drop table",
	}, nil)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)

	// Generated ids are time-ordered, so id order matches insertion order
	assert.Equal(t, first.PrincipalID(), list.Items[0].Props["id"])
}
