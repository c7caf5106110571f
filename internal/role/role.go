// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package role computes role membership and record ownership.

It is a standalone resolver over two small capability interfaces instead of a
base-class mixin: anything exposing its props map can act as a [Principal]
(a user record, a session), and anything exposing owner rules can be checked
for ownership. All functions are pure — no I/O, no state.

Rules:

  - "public" is a role everyone holds, including nil principals.
  - "owner" is never resolvable as a role; ownership goes through [IsOwner].
  - A principal with a true "admin" prop satisfies every role check.
*/
package role

import (
	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/schema"
)

// # Capability Interfaces

// Principal is anything that can be checked for role membership. It is
// implemented by both record.Record (a user) and session.Session.
type Principal interface {
	// PrincipalID is the identity used for "$field" owner-rule equality.
	PrincipalID() string

	// Prop returns one named field value, or nil when absent.
	Prop(name string) any

	// Props returns the full field map.
	Props() map[string]any
}

// Owned is anything that carries owner rules and field values — a record.
type Owned interface {
	// OwnerRules returns the schema's owner declarations in order.
	OwnerRules() []string

	// Prop returns one named field value, or nil when absent.
	Prop(name string) any
}

// # Role Membership

/*
IsRole reports whether the principal holds the given role.

Description: "public" is always true, even for a nil principal. "owner" is a
caller error here and always false — use [IsOwner]. Any other role resolves
as a boolean field on the principal's props, with the admin flag satisfying
every check.

Parameters:
  - principal: The acting principal, may be nil (anonymous).
  - role: The role token to check.

Returns:
  - bool: Membership result.
*/
func IsRole(principal Principal, role string) bool {

	// Everyone holds "public", including anonymous viewers
	if role == schema.RolePublic {
		return true
	}

	// Anonymous principals hold nothing else
	if principal == nil {
		return false
	}

	// "owner" is not a resolvable role; ownership has its own path
	if role == schema.RoleOwner {
		return false
	}

	// Admin satisfies any role check
	if asBool(principal.Prop(schema.RoleAdmin)) {
		return true
	}

	// Resolve the role as a boolean field on the principal
	return asBool(principal.Prop(role))
}

/*
IsAnyRole reports whether the principal holds at least one of the roles.

Description: Short-circuits on the first match.
*/
func IsAnyRole(principal Principal, roles []string) bool {
	for _, r := range roles {
		if IsRole(principal, r) {
			return true
		}
	}
	return false
}

/*
RequireRole ensures the principal holds the role.

Returns:
  - error: apperr.Forbidden carrying the missing role, or nil
*/
func RequireRole(principal Principal, role string) error {
	if !IsRole(principal, role) {
		return apperr.Forbidden(role)
	}
	return nil
}

// # Ownership

/*
IsOwner reports whether the principal owns the record.

Description: Owner rules are evaluated in declaration order and the first
match wins. A "$field" rule matches when the named field equals the
principal's id; a bare role name delegates to [IsRole]. Because the rules
are a pure OR, order only affects short-circuit performance, never outcome.

Parameters:
  - record: The owned record.
  - principal: The acting principal, may be nil (never an owner).

Returns:
  - bool: Ownership result.
*/
func IsOwner(record Owned, principal Principal) bool {
	if principal == nil {
		return false
	}

	for _, rule := range record.OwnerRules() {

		// "$field" rule: ownership via id equality
		if len(rule) > 1 && rule[0] == '$' {
			fieldValue, ok := record.Prop(rule[1:]).(string)
			if ok && fieldValue != "" && fieldValue == principal.PrincipalID() {
				return true
			}
			continue
		}

		// Bare role rule: ownership via role membership
		if IsRole(principal, rule) {
			return true
		}
	}

	return false
}

/*
CanEdit ensures the principal owns the record.

Returns:
  - error: apperr.Forbidden, or nil when the principal is an owner
*/
func CanEdit(record Owned, principal Principal) error {
	if !IsOwner(record, principal) {
		return apperr.Forbidden(schema.RoleOwner)
	}
	return nil
}

// asBool reads an untyped prop as a boolean, treating anything else as false.
func asBool(value any) bool {
	b, ok := value.(bool)
	return ok && b
}
