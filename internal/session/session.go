// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements the cache-persisted principal snapshot.

A session is created at login as a copy of the authenticating user's
role-relevant fields and lives in the external cache under "session-<id>"
with a 7-day TTL, refreshed on every extend. Its role claims must never
grant more than the user currently holds; that invariant is enforced by the
staleness check on extend, not by the snapshot itself.

Invalidation is lazy/pull: record mutations raise a change-flag, and the
next extend consults it. A changed password hash hard-invalidates the
session; mere role drift soft-refreshes the snapshot so grants and
revocations propagate without forcing re-login.
*/
package session

import (
	"context"
	"encoding/json"

	"github.com/taibuivan/noriva/internal/describe"
	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/platform/cache"
	"github.com/taibuivan/noriva/internal/platform/constants"
	"github.com/taibuivan/noriva/internal/record"
	"github.com/taibuivan/noriva/internal/role"
	"github.com/taibuivan/noriva/pkg/uuidv7"
)

// relatedUser is the only related describe a session can attach.
const relatedUser = "user"

// Service creates, fetches, and extends sessions.
type Service struct {
	users *record.Kind
	cache *cache.Cache
}

// NewService wires the session service to the user kind and the cache.
func NewService(users *record.Kind, kv *cache.Cache) *Service {
	return &Service{users: users, cache: kv}
}

// Session is a short-lived principal snapshot.
type Session struct {
	id      string
	props   map[string]any
	service *Service

	// user is the lazily-resolved live record behind the snapshot.
	user *record.Record
}

// # role.Principal

// ID returns the opaque session id.
func (s *Session) ID() string { return s.id }

// PrincipalID returns the underlying user's id.
func (s *Session) PrincipalID() string {
	id, _ := s.props["id"].(string)
	return id
}

// Prop returns one snapshot value, or nil when absent.
func (s *Session) Prop(name string) any { return s.props[name] }

// Props returns a copy of the snapshot.
func (s *Session) Props() map[string]any {
	out := make(map[string]any, len(s.props))
	for k, v := range s.props {
		out[k] = v
	}
	return out
}

// # Lifecycle

/*
Start opens a session for an authenticated user.

Description: The snapshot copies the user's role-bearing fields plus id and
password hash — nothing else. The fresh session is immediately extended,
which persists it with a full TTL.

Parameters:
  - context: context.Context
  - user: The authenticating user record.

Returns:
  - *Session: The active session
  - error: Cache failures
*/
func (service *Service) Start(context context.Context, user *record.Record) (*Session, error) {
	entity := user.Entity()

	// Restrict the snapshot to the role-relevant surface
	props := map[string]any{"id": user.PrincipalID()}
	if secret, ok := entity.SecretField(); ok {
		props[secret.Name] = user.GetString(secret.Name)
	}
	for _, name := range entity.RoleFields() {
		props[name] = user.GetBool(name)
	}

	session := &Session{
		id:      uuidv7.New(),
		props:   props,
		service: service,
		user:    user,
	}

	if err := session.Extend(context); err != nil {
		return nil, err
	}

	return session, nil
}

/*
Fetch loads a session from the cache by id.

Returns:
  - *Session: The stored snapshot
  - error: apperr.SessionExpired when absent, cache failures otherwise
*/
func (service *Service) Fetch(context context.Context, id string) (*Session, error) {
	raw, found, err := service.cache.Get(context, constants.SessionKeyPrefix+id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.SessionExpired()
	}

	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, apperr.Internal(err)
	}

	return &Session{id: id, props: props, service: service}, nil
}

/*
Resolve fetches a session by id and extends it, returning it as the
request's principal. Every authenticated request therefore renews the
session TTL and observes pending permission changes.

Returns:
  - role.Principal: The live session
  - error: apperr.SessionExpired on a miss or hard invalidation
*/
func (service *Service) Resolve(context context.Context, id string) (role.Principal, error) {
	session, err := service.Fetch(context, id)
	if err != nil {
		return nil, err
	}
	if err := session.Extend(context); err != nil {
		return nil, err
	}
	return session, nil
}

/*
Extend refreshes the session against out-of-band permission changes and
renews its TTL.

Description: The user's change-flag is consulted first. When set, the live
user is re-fetched: a password hash mismatch invalidates the session
outright (a password changed elsewhere must log this session out), while
role-field drift only refreshes the snapshot so new grants and revocations
take effect silently. The flag read and the snapshot write are independent
operations — a crash in between leaves a stale entry that the next extend
repairs (accepted best-effort model).

Returns:
  - error: apperr.SessionExpired on hard invalidation, cache/store failures
*/
func (s *Session) Extend(context context.Context) error {
	entity := s.service.users.Entity()

	changed, err := record.WasChanged(context, s.service.cache, entity.Kind, s.PrincipalID())
	if err != nil {
		return err
	}

	if changed {
		live, err := s.service.users.FindOrDie(context, s.PrincipalID())
		if err != nil {
			// A deleted user cannot keep a live session
			if apperr.IsCode(err, "NOT_FOUND") {
				_ = s.End(context)
				return apperr.SessionExpired()
			}
			return err
		}

		if secret, ok := entity.SecretField(); ok {
			if s.props[secret.Name] != live.GetString(secret.Name) {
				_ = s.End(context)
				return apperr.SessionExpired()
			}
		}

		// Soft refresh: roles drift, the session survives
		for _, name := range entity.RoleFields() {
			s.props[name] = live.GetBool(name)
		}
		s.user = live
	}

	return s.persist(context)
}

/*
End deletes the session's cache entry. The underlying user is untouched.
*/
func (s *Session) End(context context.Context) error {
	return s.service.cache.Delete(context, constants.SessionKeyPrefix+s.id)
}

// persist writes the snapshot with a renewed TTL. The TTL is the only
// expiry mechanism for sessions.
func (s *Session) persist(context context.Context) error {
	raw, err := json.Marshal(s.props)
	if err != nil {
		return apperr.Internal(err)
	}
	return s.service.cache.Set(context, constants.SessionKeyPrefix+s.id, string(raw), constants.SessionTTL)
}

// # Serialization

// User resolves the live user record behind the session, fetching it once.
func (s *Session) User(context context.Context) (*record.Record, error) {
	if s.user != nil {
		return s.user, nil
	}

	user, err := s.service.users.FindOrDie(context, s.PrincipalID())
	if err != nil {
		return nil, err
	}
	s.user = user
	return user, nil
}

/*
Describe emits the session's external representation.

Description: Props carry only the session id and user id. The optional
related.user section nests the full describe of the underlying user,
computed with the session itself as the viewing principal.

Parameters:
  - context: context.Context
  - params: Section selection; Principal defaults to the session itself.

Returns:
  - *describe.Describe: The session describe
  - error: Store failures while resolving the related user
*/
func (s *Session) Describe(context context.Context, params describe.Params) (*describe.Describe, error) {
	out := &describe.Describe{
		Props: map[string]any{
			"id":     s.id,
			"userId": s.PrincipalID(),
		},
	}

	if params.Include.Links {
		base := "/api/session"
		out.Links = map[string]string{"base": base, "self": base + "/" + s.id}
	}

	if params.Include.Meta {
		out.Meta = map[string]any{"type": "Session"}
	}

	if containsName(params.Include.Related, relatedUser) {
		user, err := s.User(context)
		if err != nil {
			return nil, err
		}

		viewer := params
		if viewer.Principal == nil {
			viewer.Principal = s
		}

		out.Related = map[string]*describe.Describe{
			relatedUser: describe.Record(user, viewer),
		}
	}

	return out, nil
}

func containsName(list []string, want string) bool {
	for _, name := range list {
		if name == want {
			return true
		}
	}
	return false
}
