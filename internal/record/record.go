// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package record implements the generic entity model: one Record is a mutable
instance of a registered schema, one Kind is the collection-level facade over
all Records of that schema.

Architecture:

  - Records never touch storage drivers directly; all persistence goes
    through the [Store] interface held by the Kind.
  - Field access is table-driven: every get/set dispatches through the
    schema's field index, and every set validates before assigning.
  - Mutating a record with security-relevant fields raises the owning
    principal's change-flag, which outstanding sessions consult lazily.

Consistency model: every mutation, flag write, and list query is an
independently awaited operation — nothing is wrapped in a transaction, and
concurrent updates to the same id resolve last-write-wins at the store.
*/
package record

import (
	"context"
	"time"

	"github.com/taibuivan/noriva/internal/describe"
	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/platform/sec"
	"github.com/taibuivan/noriva/internal/role"
	"github.com/taibuivan/noriva/internal/schema"
)

// Record is one entity instance bound to exactly one schema.
type Record struct {
	entity   *schema.Entity
	kind     *Kind
	props    map[string]any
	inserted bool
	warnings []describe.Warning
}

// # Capability Surface
//
// Record satisfies role.Principal, role.Owned, and describe.Source, so the
// resolver and the serializer operate on it without knowing its type.

// Entity returns the bound schema declaration.
func (r *Record) Entity() *schema.Entity { return r.entity }

// OwnerRules returns the schema's owner declarations in order.
func (r *Record) OwnerRules() []string { return r.entity.OwnerRules }

// Prop returns one field value without validation, or nil when absent.
func (r *Record) Prop(name string) any { return r.props[name] }

// Props returns a copy of the full field map.
func (r *Record) Props() map[string]any {
	out := make(map[string]any, len(r.props))
	for k, v := range r.props {
		out[k] = v
	}
	return out
}

// PrincipalID returns the record's id, the identity used by owner rules.
func (r *Record) PrincipalID() string {
	id, _ := r.props["id"].(string)
	return id
}

// Inserted reports whether the record has been persisted at least once.
func (r *Record) Inserted() bool { return r.inserted }

// Warnings returns queued non-fatal notices, oldest first.
func (r *Record) Warnings() []describe.Warning { return r.warnings }

// AddWarning queues a non-fatal notice for the next describe.
func (r *Record) AddWarning(code int, message string) {
	r.warnings = append(r.warnings, describe.Warning{Code: code, Message: message})
}

// # Typed Access

// Get returns the current value of a field.
func (r *Record) Get(name string) any {
	return r.props[name]
}

// GetString returns a field as a string, empty when unset or not a string.
func (r *Record) GetString(name string) string {
	s, _ := r.props[name].(string)
	return s
}

// GetBool returns a field as a boolean, false when unset or not a boolean.
func (r *Record) GetBool(name string) bool {
	b, _ := r.props[name].(bool)
	return b
}

/*
Set assigns a field after running its declared validator.

Description: Validation is strictly before assignment — a rejected value
never mutates the record, and Set never coerces.

Parameters:
  - name: Field name; unknown names are rejected.
  - value: Candidate value.

Returns:
  - error: apperr.OutOfRange carrying the field name, or nil
*/
func (r *Record) Set(name string, value any) error {
	field, ok := r.entity.Field(name)
	if !ok {
		return apperr.OutOfRange(name)
	}

	// Validate before assign; a failed check must never mutate state
	if err := field.Validate(value); err != nil {
		return apperr.OutOfRange(name)
	}

	r.props[name] = value
	return nil
}

// SetPassword hashes a plain-text credential into the entity's secret field.
func (r *Record) SetPassword(plain string) error {
	secret, ok := r.entity.SecretField()
	if !ok {
		return apperr.OutOfRange("password")
	}
	if plain == "" {
		return apperr.MissingRequiredParameter(secret.Name)
	}

	hash, err := sec.HashPassword(plain)
	if err != nil {
		return apperr.Internal(err)
	}
	return r.Set(secret.Name, hash)
}

// CheckPassword compares a plain-text credential with the stored hash.
func (r *Record) CheckPassword(plain string) bool {
	secret, ok := r.entity.SecretField()
	if !ok {
		return false
	}
	return sec.CheckPasswordHash(plain, r.GetString(secret.Name))
}

// # Creation Validation

/*
TestCreationProps verifies that every required field without a resolvable
default has a usable incoming value.

Parameters:
  - props: Candidate creation parameters.

Returns:
  - error: apperr.MissingRequiredParameter for the first gap, or nil
*/
func (r *Record) TestCreationProps(props map[string]any) error {
	for i := range r.entity.Fields {
		field := &r.entity.Fields[i]
		if !field.Required {
			continue
		}
		if _, hasDefault := field.DefaultValue(); hasDefault {
			continue
		}
		if isEmpty(props[field.Name]) {
			return apperr.MissingRequiredParameter(field.Name)
		}
	}
	return nil
}

// # Posted Parameter Application

/*
SetPostedProps applies externally posted parameters under the acting
principal's edit permissions.

Description: A field is editable when its edit list contains "owner" and the
principal owns the record (or the record is not yet inserted), or when the
principal holds one of the listed roles. Non-editable or absent fields are
skipped silently; a present-but-empty required value fails; a unique field
with a conflicting existing row (excluding this record) fails before any
assignment. Secret fields hash the posted plain text.

Parameters:
  - context: context.Context
  - props: Posted parameters.
  - principal: Acting principal, may be nil (anonymous create).

Returns:
  - bool: true on full success
  - error: apperr.MissingRequiredParameter, apperr.Conflict, or apperr.OutOfRange
*/
func (r *Record) SetPostedProps(context context.Context, props map[string]any, principal role.Principal) (bool, error) {

	// Ownership is computed once; a not-yet-inserted record is editable by
	// its creator regardless of ownership
	isOwner := role.IsOwner(r, principal)

	for i := range r.entity.Fields {
		field := &r.entity.Fields[i]
		if field.Virtual() {
			continue
		}

		editable := (containsToken(field.Edit, schema.RoleOwner) && (isOwner || !r.inserted)) ||
			role.IsAnyRole(principal, field.Edit)
		if !editable {
			continue
		}

		value, present := props[field.Name]
		if !present {
			continue
		}

		if field.Required && isEmpty(value) {
			return false, apperr.MissingRequiredParameter(field.Name)
		}

		if field.Unique {
			if err := r.checkUnique(context, field, value); err != nil {
				return false, err
			}
		}

		if field.Type == schema.TypeSecret {
			plain, _ := value.(string)
			if err := r.SetPassword(plain); err != nil {
				return false, err
			}
			continue
		}

		if err := r.Set(field.Name, value); err != nil {
			return false, err
		}
	}

	return true, nil
}

// checkUnique fails with Conflict when another row already holds the value.
// The record itself is excluded so updates do not collide with their own row.
func (r *Record) checkUnique(context context.Context, field *schema.Field, value any) error {
	conds := []filter.Cond{filter.Equals(field, value)}

	if id := r.PrincipalID(); id != "" && r.inserted {
		idField, _ := r.entity.Field("id")
		conds = append(conds, filter.NotEquals(idField, id))
	}

	count, err := r.kind.Count(context, filter.All(conds...))
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict(field.Name)
	}
	return nil
}

// # Persistence

/*
Insert persists the record for the first time.

Returns:
  - error: Storage failures
*/
func (r *Record) Insert(context context.Context) error {
	if err := r.kind.store.Insert(context, r.entity, r.storable()); err != nil {
		return err
	}
	r.inserted = true
	return nil
}

/*
Update persists the record's current field values.

Description: When the schema declares security-relevant fields, the owning
principal's change-flag is raised after the write. The two steps are not
transactional; a crash in between leaves the flag unset (accepted
best-effort model).

Returns:
  - error: Storage or cache failures
*/
func (r *Record) Update(context context.Context) error {
	r.touch()

	if err := r.kind.store.Update(context, r.entity, r.PrincipalID(), r.storable()); err != nil {
		return err
	}
	return r.markChanged(context)
}

// touch refreshes the conventional updatedAt stamp when the schema declares
// one. The write bypasses Set; the engine's own clock needs no validation.
func (r *Record) touch() {
	if field, ok := r.entity.Field("updatedAt"); ok && field.Type == schema.TypeTimestamp {
		r.props[field.Name] = time.Now().UTC()
	}
}

/*
Delete removes the record, cascading through declared child relations first.

Returns:
  - error: Storage or cache failures
*/
func (r *Record) Delete(context context.Context) error {

	// Cascade: children go first so no orphan survives a partial failure
	for _, childField := range r.entity.ChildRelations() {
		if err := r.deleteChildren(context, childField); err != nil {
			return err
		}
	}

	if err := r.kind.store.Delete(context, r.entity, r.PrincipalID()); err != nil {
		return err
	}
	return r.markChanged(context)
}

// deleteChildren removes every dependent record of one child relation.
func (r *Record) deleteChildren(context context.Context, childField *schema.Field) error {
	childKind, ok := r.kind.kinds.Kind(childField.Relation.Target)
	if !ok {
		return apperr.Internal(nil)
	}

	parentField, ok := childKind.entity.ParentField(r.entity.Kind)
	if !ok {
		return nil
	}

	children, err := childKind.FindMany(context, filter.All(filter.Equals(parentField, r.PrincipalID())))
	if err != nil {
		return err
	}

	for _, child := range children {
		if err := child.Delete(context); err != nil {
			return err
		}
	}
	return nil
}

// markChanged raises the owning principal's change-flag when the schema
// carries security-relevant fields. Sessions are keyed by the principal they
// belong to, so the flag must land there: a self-owned record flags itself,
// a "$field" dependent flags its parent.
func (r *Record) markChanged(context context.Context) error {
	if !r.entity.HasSensitiveFields() {
		return nil
	}

	kind, id, ok := r.owningPrincipal()
	if !ok {
		return nil
	}
	return MarkChanged(context, r.kind.cache, kind, id)
}

// owningPrincipal resolves the first "$field" owner rule to a principal kind
// and id. "$id" means the record is its own principal; a parent-relation
// field redirects to the parent record.
func (r *Record) owningPrincipal() (string, string, bool) {
	for _, rule := range r.entity.OwnerRules {
		if len(rule) < 2 || rule[0] != '$' {
			continue
		}

		name := rule[1:]
		if name == "id" {
			return r.entity.Kind, r.PrincipalID(), r.PrincipalID() != ""
		}

		field, ok := r.entity.Field(name)
		if !ok || field.Relation == nil || field.Relation.Kind != schema.RelationParent {
			continue
		}
		if ownerID := r.GetString(name); ownerID != "" {
			return field.Relation.Target, ownerID, true
		}
	}
	return "", "", false
}

// storable returns the props map restricted to fields with storage columns.
func (r *Record) storable() map[string]any {
	out := make(map[string]any, len(r.props))
	for i := range r.entity.Fields {
		field := &r.entity.Fields[i]
		if field.Virtual() {
			continue
		}
		if value, ok := r.props[field.Name]; ok {
			out[field.Name] = value
		}
	}
	return out
}

// isEmpty implements the "undefined or empty string" rule for required fields.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func containsToken(list []string, token string) bool {
	for _, t := range list {
		if t == token {
			return true
		}
	}
	return false
}
