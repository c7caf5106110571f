// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package describe builds the externally visible representation of a record.

A describe is the only shape that ever crosses the network boundary: a props
map filtered by the viewing principal's computed visibility, plus optional
sections (links, meta, options, related, warnings) selected per request.
Hiding sensitive fields (password, admin, email) from anonymous or non-owner
viewers happens here and nowhere else.

Architecture:

  - The serializer operates over a narrow [Source] capability rather than a
    concrete record type, so records and sessions both describe themselves
    through the same visibility loop.
  - Visibility is recomputed per call; nothing is cached between requests.
*/
package describe

import (
	"fmt"
	"strings"

	"github.com/taibuivan/noriva/internal/role"
	"github.com/taibuivan/noriva/internal/schema"
	"github.com/taibuivan/noriva/pkg/pagination"
)

// # Output Shapes

// Warning is a non-fatal notice queued on a record (account-state notices).
type Warning struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Option is one selectable value of an enumerated field.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Describe is the network-facing JSON representation of a record or session.
type Describe struct {
	Props    map[string]any       `json:"props"`
	Links    map[string]string    `json:"links,omitempty"`
	Meta     map[string]any       `json:"meta,omitempty"`
	Options  map[string][]Option  `json:"options,omitempty"`
	Related  map[string]*Describe `json:"related,omitempty"`
	Extra    map[string]any       `json:"extra,omitempty"`
	Warnings []Warning            `json:"warnings,omitempty"`
}

// List is the paged describe collection returned by list operations.
type List struct {
	Paging pagination.Paging `json:"paging"`
	Items  []*Describe       `json:"items"`
}

// # Inputs

// Include selects the optional sections of a describe.
type Include struct {
	Options bool
	Links   bool
	Meta    bool
	Related []string
	Extra   []string

	// Private bypasses the visibility filter entirely. It is honored only
	// for internal callers and never parsed from the network.
	Private bool
}

// Params carries the viewing principal and section selection for one describe.
type Params struct {
	Principal role.Principal
	Include   Include
}

// Source is the capability a record exposes to the serializer.
type Source interface {
	role.Owned

	// Entity returns the bound schema declaration.
	Entity() *schema.Entity

	// Warnings returns queued non-fatal notices, oldest first.
	Warnings() []Warning
}

// # Serialization

/*
Record builds the describe of a single record for the given viewer.

Description: For each field, visibility is computed from the union of its
view and edit role lists: a field is copied into props iff it is public, the
request is privileged (include.Private), the viewer owns the record and the
field is owner-visible, or the viewer holds one of the listed roles.

Parameters:
  - source: The record being described.
  - params: Viewer and section selection.

Returns:
  - *Describe: The filtered representation. Never nil.
*/
func Record(source Source, params Params) *Describe {
	entity := source.Entity()

	// Ownership is computed once per describe, not per field
	isOwnerFlag := params.Principal != nil && role.IsOwner(source, params.Principal)

	out := &Describe{Props: make(map[string]any)}

	for i := range entity.Fields {
		field := &entity.Fields[i]
		if field.Virtual() {
			continue
		}
		if !visible(field, params, isOwnerFlag) {
			continue
		}
		out.Props[field.Name] = source.Prop(field.Name)
	}

	if params.Include.Links {
		out.Links = links(entity, source)
	}

	if params.Include.Options {
		if options := PropOptions(source, params); len(options) > 0 {
			out.Options = options
		}
	}

	if params.Include.Meta {
		out.Meta = meta(entity, source)
	}

	// Related is reserved for eager-loaded describes attached by the caller
	if len(params.Include.Related) > 0 {
		out.Related = make(map[string]*Describe)
	}

	if warnings := source.Warnings(); len(warnings) > 0 {
		out.Warnings = warnings
	}

	return out
}

/*
PropOptions enumerates the selectable values of every visible enum field.

Description: Runs the same visibility loop as [Record]; for each visible
field with declared enum values it emits the ordered {value, label} pairs.
Labels default to the stringified value when no explicit label is supplied.

Returns:
  - map[string][]Option: Empty (non-nil) when nothing is visible.
*/
func PropOptions(source Source, params Params) map[string][]Option {
	entity := source.Entity()
	isOwnerFlag := params.Principal != nil && role.IsOwner(source, params.Principal)

	options := make(map[string][]Option)

	for i := range entity.Fields {
		field := &entity.Fields[i]
		if len(field.Enum) == 0 {
			continue
		}
		if !visible(field, params, isOwnerFlag) {
			continue
		}

		list := make([]Option, 0, len(field.Enum))
		for _, e := range field.Enum {
			label := e.Label
			if label == "" {
				label = fmt.Sprint(e.Value)
			}
			list = append(list, Option{Value: e.Value, Label: label})
		}
		options[field.Name] = list
	}

	return options
}

// visible implements the field visibility rule shared by Record and PropOptions.
func visible(field *schema.Field, params Params, isOwnerFlag bool) bool {
	if field.IsPublic() {
		return true
	}
	if params.Include.Private {
		return true
	}

	roles := field.Roles()
	if isOwnerFlag && containsRole(roles, schema.RoleOwner) {
		return true
	}
	return role.IsAnyRole(params.Principal, roles)
}

// links builds the collection/self hyperlinks for a record.
func links(entity *schema.Entity, source Source) map[string]string {
	base := "/api/" + strings.ToLower(entity.Kind)
	out := map[string]string{"base": base}
	if id, ok := source.Prop("id").(string); ok && id != "" {
		out["self"] = base + "/" + id
	}
	return out
}

// meta builds the kind metadata, letting the entity extend it. Meta is
// independent of field visibility: it may surface derived values (display
// name) even when the underlying fields are hidden.
func meta(entity *schema.Entity, source Source) map[string]any {
	out := map[string]any{"kind": entity.Kind}
	if entity.Meta != nil {
		for k, v := range entity.Meta(source.Prop) {
			out[k] = v
		}
	}
	return out
}

func containsRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
