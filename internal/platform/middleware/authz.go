// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/platform/ctxutil"
	"github.com/taibuivan/noriva/internal/platform/respond"
	"github.com/taibuivan/noriva/internal/role"
)

// PrincipalResolver turns a bearer session id into an authenticated principal.
//
// # Why an interface?
//
// Defining PrincipalResolver here decouples the middleware from the session
// service implementation, allowing us to easily inject stubs during unit testing.
type PrincipalResolver interface {
	Resolve(ctx context.Context, sessionID string) (role.Principal, error)
}

// Authenticate resolves the session id from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <session-id>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve (and extend) the session via [PrincipalResolver].
//  4. Inject the [role.Principal] into the request context for downstream use.
//
// Resolution failures surface as-is so an expired session yields the
// SESSION_EXPIRED code rather than a generic 401.
func Authenticate(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Session Resolution ─────────────────────────────────────────
			principal, err := resolver.Resolve(request.Context(), parts[1])
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests whose principal does not hold the named role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically
// implies [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if a principal exists in context (implies AuthN).
//  2. Check the role claim via [role.RequireRole] (admin satisfies everything).
//  3. If insufficient, abort with HTTP 403 Forbidden.
func RequireRole(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if err := role.RequireRole(principal, name); err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
