// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package model declares the concrete entities registered with the engine.

Declarations here are pure data: field tables, role lists, owner rules, and
filter opt-ins. All behavior (validation, persistence, authorization) lives
in the schema/record/role packages.
*/
package model

import (
	"time"

	"github.com/taibuivan/noriva/internal/schema"
	"github.com/taibuivan/noriva/pkg/uuidv7"
)

// KindUser is the registered kind name for user accounts.
const KindUser = "user"

// User declares the user account entity.
//
// Ownership: a user owns their own record ("$id"), and admins own
// everything. Password and the role flags are sensitive — mutating them
// raises the change-flag that invalidates outstanding sessions.
func User() *schema.Entity {
	return &schema.Entity{
		Kind:       KindUser,
		Table:      "core.account",
		OwnerRules: []string{"$id", schema.RoleAdmin},
		Fields: []schema.Field{
			{
				Name:    "id",
				Type:    schema.TypeID,
				Unique:  true,
				Default: func() any { return uuidv7.New() },
				View:    []string{schema.RolePublic},
			},
			{
				Name:     "username",
				Type:     schema.TypeString,
				Required: true,
				Unique:   true,
				View:     []string{schema.RolePublic},
				Edit:     []string{schema.RoleOwner},
			},
			{
				Name:     "email",
				Type:     schema.TypeEmail,
				Required: true,
				Unique:   true,
				View:     []string{schema.RoleOwner},
				Edit:     []string{schema.RoleOwner},
			},
			{
				Name:    "realName",
				Type:    schema.TypeString,
				Default: "",
				View:    []string{schema.RolePublic},
				Edit:    []string{schema.RoleOwner},
			},
			{
				// Stored as a bcrypt hash. Edit["owner"] puts the field in the
				// owner's role union, so the owner's describe shows the hash,
				// never the plaintext.
				Name:      "password",
				Type:      schema.TypeSecret,
				Default:   "",
				Edit:      []string{schema.RoleOwner},
				Sensitive: true,
			},
			{
				Name:      "admin",
				Type:      schema.TypeBoolean,
				Default:   false,
				View:      []string{schema.RoleOwner},
				Edit:      []string{schema.RoleAdmin},
				Sensitive: true,
			},
			{
				Name:      "moderator",
				Type:      schema.TypeBoolean,
				Default:   false,
				View:      []string{schema.RoleOwner},
				Edit:      []string{schema.RoleAdmin},
				Sensitive: true,
			},
			{
				Name:      "suspended",
				Type:      schema.TypeBoolean,
				Default:   false,
				View:      []string{schema.RoleOwner, "moderator"},
				Edit:      []string{"moderator"},
				Sensitive: true,
			},
			{
				Name:    "theme",
				Type:    schema.TypeString,
				Default: "system",
				Enum: []schema.EnumValue{
					{Value: "light", Label: "Light"},
					{Value: "dark", Label: "Dark"},
					{Value: "system", Label: "Match system"},
				},
				View: []string{schema.RoleOwner},
				Edit: []string{schema.RoleOwner},
			},
			{
				Name:    "avatarUrl",
				Type:    schema.TypeString,
				Default: "",
				View:    []string{schema.RolePublic},
				Edit:    []string{schema.RoleOwner},
			},
			{
				Name:    "bio",
				Type:    schema.TypeText,
				Default: "",
				View:    []string{schema.RolePublic},
				Edit:    []string{schema.RoleOwner},
			},
			{
				Name:    "createdAt",
				Type:    schema.TypeTimestamp,
				Default: func() any { return time.Now().UTC() },
				View:    []string{schema.RolePublic},
			},
			{
				Name:    "updatedAt",
				Type:    schema.TypeTimestamp,
				Default: func() any { return time.Now().UTC() },
				View:    []string{schema.RoleOwner},
			},
			{
				// Dependent API keys, cascade-deleted with the account.
				Name:     "apiKeys",
				Type:     schema.TypeID,
				Relation: &schema.Relation{Kind: schema.RelationChild, Target: KindAPIKey},
			},
		},
		Filter: schema.Filter{
			Queryable:  []string{"username", "realName"},
			Qualifiers: []string{"username", "admin", "moderator", "suspended"},
			Ranged:     []string{"createdAt"},
		},
		Meta: userMeta,
	}
}

// userMeta extends the describe meta block with derived display values.
// Meta is independent of field visibility.
func userMeta(get func(name string) any) map[string]any {
	displayName, _ := get("realName").(string)
	if displayName == "" {
		displayName, _ = get("username").(string)
	}

	meta := map[string]any{"displayName": displayName}
	if avatar, ok := get("avatarUrl").(string); ok && avatar != "" {
		meta["avatarUrl"] = avatar
	}
	return meta
}
