// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/role"
)

// principal is a props-backed role.Principal for resolver tests.
type principal struct {
	id    string
	props map[string]any
}

func (p *principal) PrincipalID() string   { return p.id }
func (p *principal) Prop(name string) any  { return p.props[name] }
func (p *principal) Props() map[string]any { return p.props }

// owned is a minimal role.Owned carrying owner rules and field values.
type owned struct {
	rules []string
	props map[string]any
}

func (o *owned) OwnerRules() []string { return o.rules }
func (o *owned) Prop(name string) any { return o.props[name] }

/*
TestIsRole verifies role membership resolution, including the public and
admin special cases.
*/
func TestIsRole(t *testing.T) {
	moderator := &principal{id: "u1", props: map[string]any{"moderator": true}}
	admin := &principal{id: "u2", props: map[string]any{"admin": true}}
	nobody := &principal{id: "u3", props: map[string]any{}}

	testCases := []struct {
		name      string
		principal role.Principal
		role      string
		want      bool
	}{
		{name: "public holds for anonymous", principal: nil, role: "public", want: true},
		{name: "public holds for anyone", principal: nobody, role: "public", want: true},
		{name: "anonymous holds nothing else", principal: nil, role: "moderator", want: false},
		{name: "owner is never a resolvable role", principal: moderator, role: "owner", want: false},
		{name: "boolean prop grants role", principal: moderator, role: "moderator", want: true},
		{name: "missing prop denies role", principal: nobody, role: "moderator", want: false},
		{name: "admin satisfies any role", principal: admin, role: "moderator", want: true},
		{name: "admin satisfies admin", principal: admin, role: "admin", want: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, role.IsRole(testCase.principal, testCase.role))
		})
	}
}

/*
TestIsRole_NonBooleanProp verifies that non-boolean props never grant a role.
*/
func TestIsRole_NonBooleanProp(t *testing.T) {
	p := &principal{id: "u1", props: map[string]any{"moderator": "true"}}
	assert.False(t, role.IsRole(p, "moderator"))
}

/*
TestIsAnyRole verifies the short-circuiting OR over a role list.
*/
func TestIsAnyRole(t *testing.T) {
	moderator := &principal{id: "u1", props: map[string]any{"moderator": true}}

	assert.True(t, role.IsAnyRole(moderator, []string{"admin", "moderator"}))
	assert.False(t, role.IsAnyRole(moderator, []string{"admin"}))
	assert.False(t, role.IsAnyRole(nil, []string{"admin", "moderator"}))
	assert.True(t, role.IsAnyRole(nil, []string{"public"}))
}

/*
TestRequireRole verifies the error form carries the missing role.
*/
func TestRequireRole(t *testing.T) {
	nobody := &principal{id: "u1", props: map[string]any{}}

	require.NoError(t, role.RequireRole(nobody, "public"))

	err := role.RequireRole(nobody, "moderator")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "FORBIDDEN", appError.Code)
	assert.Equal(t, "moderator", appError.Data["role"])
}

/*
TestIsOwner verifies owner-rule evaluation: "$field" equality, bare role
delegation, and first-match-wins ordering.
*/
func TestIsOwner(t *testing.T) {
	record := &owned{
		rules: []string{"$id", "admin"},
		props: map[string]any{"id": "u1"},
	}

	self := &principal{id: "u1", props: map[string]any{}}
	stranger := &principal{id: "u2", props: map[string]any{}}
	admin := &principal{id: "u3", props: map[string]any{"admin": true}}

	testCases := []struct {
		name      string
		principal role.Principal
		want      bool
	}{
		{name: "id equality grants ownership", principal: self, want: true},
		{name: "stranger is not an owner", principal: stranger, want: false},
		{name: "admin rule grants ownership", principal: admin, want: true},
		{name: "anonymous is never an owner", principal: nil, want: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, role.IsOwner(record, testCase.principal))
		})
	}
}

/*
TestIsOwner_ParentField verifies ownership through a parent-link field, the
dependent-record pattern.
*/
func TestIsOwner_ParentField(t *testing.T) {
	apiKey := &owned{
		rules: []string{"$userId", "admin"},
		props: map[string]any{"id": "k1", "userId": "u1"},
	}

	keyOwner := &principal{id: "u1", props: map[string]any{}}
	stranger := &principal{id: "k1", props: map[string]any{}}

	assert.True(t, role.IsOwner(apiKey, keyOwner))

	// Matching the record's own id is not enough; the rule names userId
	assert.False(t, role.IsOwner(apiKey, stranger))
}

/*
TestIsOwner_EmptyField verifies that an unset owner field never matches,
even against an empty principal id.
*/
func TestIsOwner_EmptyField(t *testing.T) {
	record := &owned{rules: []string{"$userId"}, props: map[string]any{}}
	ghost := &principal{id: "", props: map[string]any{}}

	assert.False(t, role.IsOwner(record, ghost))
}

/*
TestCanEdit verifies the error form of the ownership check.
*/
func TestCanEdit(t *testing.T) {
	record := &owned{rules: []string{"$id"}, props: map[string]any{"id": "u1"}}
	self := &principal{id: "u1", props: map[string]any{}}
	stranger := &principal{id: "u2", props: map[string]any{}}

	require.NoError(t, role.CanEdit(record, self))

	err := role.CanEdit(record, stranger)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}
