// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema is the static registry of entity declarations.

Every entity (a "kind") declares its fields once: name, semantic type,
required/unique flags, default value, enumerated values, relations, and the
two role lists (view, edit) that drive field-level authorization. The
registry is pure data plus lookup — no persistence, no serialization.

Architecture:

  - Static tables: semantic type → validator and → column descriptor are
    resolved once at registration, never per call.
  - Explicit field index: typed get/set dispatch is keyed by field name,
    built when the entity is registered.
  - No globals: the [Registry] is constructed in main and injected.
*/
package schema

import (
	"fmt"
	"strings"
)

// # Role Tokens

const (
	// RolePublic grants a permission to everyone, including anonymous viewers.
	RolePublic = "public"

	// RoleOwner grants a permission to the record's owner (see OwnerRules).
	RoleOwner = "owner"

	// RoleAdmin satisfies every role check.
	RoleAdmin = "admin"
)

// # Field Declarations

// RelationKind distinguishes the two directions of a declared relation.
type RelationKind int

const (
	// RelationParent marks a field holding the id of a parent record.
	RelationParent RelationKind = iota

	// RelationChild marks a virtual field linking to dependent records that
	// are cascade-deleted with this one. Child fields have no storage column.
	RelationChild
)

// Relation describes a link between two kinds.
type Relation struct {
	Kind   RelationKind
	Target string // kind name of the related entity
}

// EnumValue is one allowed value of an enumerated field, with its display label.
type EnumValue struct {
	Value any
	Label string
}

// Field is the declaration of a single entity field.
//
// View and Edit are ordered role lists drawn from {"public", "owner",
// <role-name>, ...}. A field is part of the public output iff "public"
// appears in View ∪ Edit.
type Field struct {
	Name     string
	Type     Type
	Required bool
	Unique   bool

	// Default is applied by mint when the field is omitted. A func() any
	// value is treated as a zero-arg producer (generated ids, timestamps);
	// anything else is used literally.
	Default any

	// Enum restricts the field to the listed values when non-empty.
	Enum []EnumValue

	Relation *Relation

	View []string
	Edit []string

	// Sensitive marks a security-relevant field (credentials, role flags).
	// Mutating a record with sensitive fields raises the principal's
	// change-flag, which invalidates outstanding sessions lazily.
	Sensitive bool

	// validate is the resolved semantic-type validator, bound at registration.
	validate Validator
	// column is the resolved storage descriptor, bound at registration.
	column Column
}

// IsPublic reports whether the field appears in output for anonymous viewers.
func (f *Field) IsPublic() bool {
	return contains(f.View, RolePublic) || contains(f.Edit, RolePublic)
}

// Roles returns the union of the view and edit role lists, in declaration
// order with view roles first.
func (f *Field) Roles() []string {
	roles := make([]string, 0, len(f.View)+len(f.Edit))
	roles = append(roles, f.View...)
	for _, r := range f.Edit {
		if !contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// Column returns the SQL column name for this field (lowercased field name).
func (f *Field) Column() string {
	return strings.ToLower(f.Name)
}

// ColumnType returns the resolved SQL column type descriptor.
func (f *Field) ColumnType() Column {
	return f.column
}

// Virtual reports whether the field has no storage column of its own.
func (f *Field) Virtual() bool {
	return f.Relation != nil && f.Relation.Kind == RelationChild
}

// DefaultValue resolves the declared default. The second return is false
// when the field has no default.
func (f *Field) DefaultValue() (any, bool) {
	switch d := f.Default.(type) {
	case nil:
		return nil, false
	case func() any:
		return d(), true
	default:
		return d, true
	}
}

// Validate checks a candidate value against the semantic-type validator and
// the enum constraint. It never coerces.
func (f *Field) Validate(value any) error {
	if f.validate != nil {
		if err := f.validate(value); err != nil {
			return err
		}
	}
	if len(f.Enum) > 0 {
		for _, e := range f.Enum {
			if e.Value == value {
				return nil
			}
		}
		return fmt.Errorf("value %v is not an allowed option", value)
	}
	return nil
}

// # Entity Declarations

// Filter declares which columns an entity opts into list filtering.
type Filter struct {
	// Queryable columns participate in the free-text search OR clause.
	Queryable []string

	// Qualifiers columns accept direct (optionally operator-prefixed) matches.
	Qualifiers []string

	// Ranged columns accept _start_/_end_ inclusive bounds.
	Ranged []string
}

// Entity is the full static declaration of one kind.
//
// OwnerRules entries are either "$<fieldName>" (ownership via equality of
// that field to the principal's id) or a bare role name (ownership via role
// membership). Rules are evaluated in declaration order, first match wins.
type Entity struct {
	Kind       string
	Table      string
	OwnerRules []string
	Fields     []Field
	Filter     Filter

	// Meta extends the describe meta section beyond {"kind": Kind}. The
	// getter receives untyped field access so subtypes can derive values
	// (display names, avatar URLs) without seeing the Record type.
	Meta func(get func(name string) any) map[string]any

	index      map[string]*Field
	roleFields []string
}

// Field looks up a field declaration by name.
func (e *Entity) Field(name string) (*Field, bool) {
	f, ok := e.index[name]
	return f, ok
}

// FieldNames returns all field names in declaration order.
func (e *Entity) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for i := range e.Fields {
		names = append(names, e.Fields[i].Name)
	}
	return names
}

// RoleFields returns the names of this entity's own boolean fields that are
// referenced as role tokens anywhere in its declarations. These are the
// fields a session snapshot must carry.
func (e *Entity) RoleFields() []string {
	return e.roleFields
}

// HasSensitiveFields reports whether any field is security-relevant.
func (e *Entity) HasSensitiveFields() bool {
	for i := range e.Fields {
		if e.Fields[i].Sensitive {
			return true
		}
	}
	return false
}

// SecretField returns the entity's credential field (TypeSecret), if any.
func (e *Entity) SecretField() (*Field, bool) {
	for i := range e.Fields {
		if e.Fields[i].Type == TypeSecret {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// ChildRelations returns the fields declaring cascade-deleted children.
func (e *Entity) ChildRelations() []*Field {
	var children []*Field
	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Relation != nil && f.Relation.Kind == RelationChild {
			children = append(children, f)
		}
	}
	return children
}

// ParentField returns the field linking to the given parent kind, if any.
func (e *Entity) ParentField(parentKind string) (*Field, bool) {
	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Relation != nil && f.Relation.Kind == RelationParent && f.Relation.Target == parentKind {
			return f, true
		}
	}
	return nil, false
}

// # Registry

// Registry holds all registered entities, keyed by kind name.
type Registry struct {
	entities map[string]*Entity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register resolves an entity's static tables and adds it to the registry.
//
// Resolution binds each field's validator and column descriptor, builds the
// field index, and derives the role-bearing field set. Registration happens
// once at startup; duplicate kinds or unknown semantic types are programmer
// errors and fail loudly.
func (r *Registry) Register(entity *Entity) error {
	if entity.Kind == "" || entity.Table == "" {
		return fmt.Errorf("schema: entity must declare kind and table")
	}
	if _, exists := r.entities[entity.Kind]; exists {
		return fmt.Errorf("schema: kind %q is already registered", entity.Kind)
	}

	entity.index = make(map[string]*Field, len(entity.Fields))
	for i := range entity.Fields {
		f := &entity.Fields[i]
		if _, duplicate := entity.index[f.Name]; duplicate {
			return fmt.Errorf("schema: kind %q declares field %q twice", entity.Kind, f.Name)
		}

		validator, ok := validators[f.Type]
		if !ok {
			return fmt.Errorf("schema: kind %q field %q has unknown type %d", entity.Kind, f.Name, f.Type)
		}
		f.validate = validator
		f.column = columns[f.Type]
		entity.index[f.Name] = f
	}

	entity.roleFields = deriveRoleFields(entity)

	for _, rule := range entity.OwnerRules {
		if strings.HasPrefix(rule, "$") {
			if _, ok := entity.index[rule[1:]]; !ok {
				return fmt.Errorf("schema: kind %q owner rule %q names an unknown field", entity.Kind, rule)
			}
		}
	}

	r.entities[entity.Kind] = entity
	return nil
}

// Lookup fetches a registered entity by kind name.
func (r *Registry) Lookup(kind string) (*Entity, bool) {
	e, ok := r.entities[kind]
	return e, ok
}

// Kinds returns the names of all registered kinds.
func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.entities))
	for kind := range r.entities {
		names = append(names, kind)
	}
	return names
}

// deriveRoleFields collects the entity's own boolean fields whose names
// appear as bare role tokens in any view/edit list or owner rule.
func deriveRoleFields(entity *Entity) []string {
	referenced := make(map[string]bool)
	note := func(token string) {
		if token == RolePublic || token == RoleOwner || strings.HasPrefix(token, "$") {
			return
		}
		referenced[token] = true
	}

	for i := range entity.Fields {
		for _, t := range entity.Fields[i].View {
			note(t)
		}
		for _, t := range entity.Fields[i].Edit {
			note(t)
		}
	}
	for _, rule := range entity.OwnerRules {
		note(rule)
	}

	// Keep declaration order stable for snapshots and tests.
	var roleFields []string
	for i := range entity.Fields {
		f := &entity.Fields[i]
		if f.Type == TypeBoolean && referenced[f.Name] {
			roleFields = append(roleFields, f.Name)
		}
	}
	return roleFields
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
