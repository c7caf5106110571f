// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/noriva/internal/schema"
)

// testEntity declares a user-like kind exercising every registration feature.
func testEntity() *schema.Entity {
	return &schema.Entity{
		Kind:       "member",
		Table:      "core.member",
		OwnerRules: []string{"$id", "admin"},
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeID, Unique: true, View: []string{"public"}},
			{Name: "name", Type: schema.TypeString, Required: true, View: []string{"public"}, Edit: []string{"owner"}},
			{Name: "email", Type: schema.TypeEmail, View: []string{"owner"}, Edit: []string{"owner"}},
			{Name: "password", Type: schema.TypeSecret, Edit: []string{"owner"}, Sensitive: true},
			{Name: "admin", Type: schema.TypeBoolean, Default: false, Edit: []string{"admin"}, Sensitive: true},
			{Name: "moderator", Type: schema.TypeBoolean, Default: false, Edit: []string{"admin"}},
			{Name: "suspended", Type: schema.TypeBoolean, Default: false, Edit: []string{"moderator"}},
			{
				Name: "theme",
				Type: schema.TypeString,
				Enum: []schema.EnumValue{{Value: "light", Label: "Light"}, {Value: "dark", Label: "Dark"}},
				View: []string{"owner"},
			},
			{Name: "joined", Type: schema.TypeTimestamp, Default: func() any { return time.Now().UTC() }, View: []string{"public"}},
			{Name: "keys", Type: schema.TypeID, Relation: &schema.Relation{Kind: schema.RelationChild, Target: "key"}},
		},
	}
}

/*
TestRegistry_Register verifies a valid entity registers and resolves its
static tables.
*/
func TestRegistry_Register(t *testing.T) {
	registry := schema.NewRegistry()
	entity := testEntity()
	require.NoError(t, registry.Register(entity))

	looked, ok := registry.Lookup("member")
	require.True(t, ok)
	assert.Same(t, entity, looked)

	// Field index is usable after registration
	field, ok := entity.Field("name")
	require.True(t, ok)
	assert.Equal(t, "name", field.Column())

	// Validators are bound: a wrong-typed value is now rejected
	assert.Error(t, field.Validate(42))
	assert.NoError(t, field.Validate("valid"))
}

/*
TestRegistry_Register_Rejections verifies the registration-time programmer
error checks.
*/
func TestRegistry_Register_Rejections(t *testing.T) {
	t.Run("duplicate kind", func(t *testing.T) {
		registry := schema.NewRegistry()
		require.NoError(t, registry.Register(testEntity()))
		assert.Error(t, registry.Register(testEntity()))
	})

	t.Run("duplicate field", func(t *testing.T) {
		registry := schema.NewRegistry()
		entity := testEntity()
		entity.Fields = append(entity.Fields, schema.Field{Name: "name", Type: schema.TypeString})
		assert.Error(t, registry.Register(entity))
	})

	t.Run("owner rule naming unknown field", func(t *testing.T) {
		registry := schema.NewRegistry()
		entity := testEntity()
		entity.OwnerRules = []string{"$missing"}
		assert.Error(t, registry.Register(entity))
	})

	t.Run("missing kind or table", func(t *testing.T) {
		registry := schema.NewRegistry()
		assert.Error(t, registry.Register(&schema.Entity{Kind: "x"}))
		assert.Error(t, registry.Register(&schema.Entity{Table: "x"}))
	})
}

/*
TestEntity_RoleFields verifies that boolean fields referenced as bare role
tokens become the session snapshot surface, in declaration order.
*/
func TestEntity_RoleFields(t *testing.T) {
	registry := schema.NewRegistry()
	entity := testEntity()
	require.NoError(t, registry.Register(entity))

	// "admin" is referenced by edit lists and the owner rules; "moderator"
	// by suspended's edit list. "suspended" itself is never used as a token.
	assert.Equal(t, []string{"admin", "moderator"}, entity.RoleFields())
}

/*
TestField_Visibility verifies the public/roles helpers used by the serializer.
*/
func TestField_Visibility(t *testing.T) {
	registry := schema.NewRegistry()
	entity := testEntity()
	require.NoError(t, registry.Register(entity))

	name, _ := entity.Field("name")
	assert.True(t, name.IsPublic())
	assert.Equal(t, []string{"public", "owner"}, name.Roles())

	email, _ := entity.Field("email")
	assert.False(t, email.IsPublic())
	assert.Equal(t, []string{"owner"}, email.Roles())

	keys, _ := entity.Field("keys")
	assert.True(t, keys.Virtual())
}

/*
TestField_DefaultValue verifies literal defaults and zero-arg producers.
*/
func TestField_DefaultValue(t *testing.T) {
	registry := schema.NewRegistry()
	entity := testEntity()
	require.NoError(t, registry.Register(entity))

	admin, _ := entity.Field("admin")
	value, ok := admin.DefaultValue()
	require.True(t, ok)
	assert.Equal(t, false, value)

	joined, _ := entity.Field("joined")
	value, ok = joined.DefaultValue()
	require.True(t, ok)
	assert.IsType(t, time.Time{}, value)

	name, _ := entity.Field("name")
	_, ok = name.DefaultValue()
	assert.False(t, ok)
}

/*
TestField_Validate_Enum verifies the enum constraint on top of the semantic
type validator.
*/
func TestField_Validate_Enum(t *testing.T) {
	registry := schema.NewRegistry()
	entity := testEntity()
	require.NoError(t, registry.Register(entity))

	theme, _ := entity.Field("theme")
	assert.NoError(t, theme.Validate("dark"))
	assert.Error(t, theme.Validate("sepia"))
	assert.Error(t, theme.Validate(7))
}

/*
TestEntity_Relations verifies child and parent relation lookups.
*/
func TestEntity_Relations(t *testing.T) {
	registry := schema.NewRegistry()
	member := testEntity()
	require.NoError(t, registry.Register(member))

	key := &schema.Entity{
		Kind:       "key",
		Table:      "core.key",
		OwnerRules: []string{"$memberId"},
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeID},
			{Name: "memberId", Type: schema.TypeID, Relation: &schema.Relation{Kind: schema.RelationParent, Target: "member"}},
		},
	}
	require.NoError(t, registry.Register(key))

	children := member.ChildRelations()
	require.Len(t, children, 1)
	assert.Equal(t, "keys", children[0].Name)

	parent, ok := key.ParentField("member")
	require.True(t, ok)
	assert.Equal(t, "memberId", parent.Name)

	_, ok = key.ParentField("other")
	assert.False(t, ok)
}

/*
TestEntity_SecretField verifies credential field discovery.
*/
func TestEntity_SecretField(t *testing.T) {
	registry := schema.NewRegistry()
	entity := testEntity()
	require.NoError(t, registry.Register(entity))

	secret, ok := entity.SecretField()
	require.True(t, ok)
	assert.Equal(t, "password", secret.Name)
	assert.True(t, entity.HasSensitiveFields())
}
