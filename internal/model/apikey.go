// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package model

import (
	"time"

	"github.com/taibuivan/noriva/internal/schema"
	"github.com/taibuivan/noriva/pkg/uuidv7"
)

// KindAPIKey is the registered kind name for user API keys.
const KindAPIKey = "apikey"

// APIKey declares the api key entity. Keys are dependents of a user record:
// ownership follows the userId field and deleting the user deletes its keys.
func APIKey() *schema.Entity {
	return &schema.Entity{
		Kind:       KindAPIKey,
		Table:      "core.apikey",
		OwnerRules: []string{"$userId", schema.RoleAdmin},
		Fields: []schema.Field{
			{
				Name:    "id",
				Type:    schema.TypeID,
				Unique:  true,
				Default: func() any { return uuidv7.New() },
				View:    []string{schema.RoleOwner},
			},
			{
				// Set once at creation by the handler; never editable after.
				Name:     "userId",
				Type:     schema.TypeID,
				Required: true,
				Relation: &schema.Relation{Kind: schema.RelationParent, Target: KindUser},
				View:     []string{schema.RoleOwner},
			},
			{
				Name:     "label",
				Type:     schema.TypeString,
				Required: true,
				View:     []string{schema.RoleOwner},
				Edit:     []string{schema.RoleOwner},
			},
			{
				// Generated server-side; rotating it invalidates sessions
				// authenticated through the key.
				Name:      "secret",
				Type:      schema.TypeSecret,
				Default:   "",
				Edit:      []string{schema.RoleOwner},
				Sensitive: true,
			},
			{
				Name:    "createdAt",
				Type:    schema.TypeTimestamp,
				Default: func() any { return time.Now().UTC() },
				View:    []string{schema.RoleOwner},
			},
		},
		Filter: schema.Filter{
			Queryable:  []string{"label"},
			Qualifiers: []string{"label", "userId"},
			Ranged:     []string{"createdAt"},
		},
	}
}

// NewRegistry builds the registry with every entity the platform serves.
func NewRegistry() (*schema.Registry, error) {
	registry := schema.NewRegistry()
	for _, entity := range []*schema.Entity{User(), APIKey()} {
		if err := registry.Register(entity); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
