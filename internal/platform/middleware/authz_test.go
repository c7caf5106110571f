// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/platform/ctxutil"
	"github.com/taibuivan/noriva/internal/platform/middleware"
	"github.com/taibuivan/noriva/internal/platform/respond"
	"github.com/taibuivan/noriva/internal/role"
)

// stubPrincipal is a props-backed role.Principal for middleware tests.
type stubPrincipal struct {
	id    string
	props map[string]any
}

func (p *stubPrincipal) PrincipalID() string   { return p.id }
func (p *stubPrincipal) Prop(name string) any  { return p.props[name] }
func (p *stubPrincipal) Props() map[string]any { return p.props }

// stubResolver resolves one known session id.
type stubResolver struct {
	sessionID string
	principal role.Principal
}

func (r *stubResolver) Resolve(_ context.Context, sessionID string) (role.Principal, error) {
	if sessionID != r.sessionID {
		return nil, apperr.SessionExpired()
	}
	return r.principal, nil
}

// capture mounts a terminal handler that records the principal it saw.
func capture(seen *role.Principal) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*seen = ctxutil.GetPrincipal(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

/*
TestAuthenticate covers the three header outcomes: absent, malformed, and a
resolvable bearer session id.
*/
func TestAuthenticate(t *testing.T) {
	rita := &stubPrincipal{id: "u1", props: map[string]any{}}
	resolver := &stubResolver{sessionID: "s1", principal: rita}

	testCases := []struct {
		name          string
		header        string
		wantStatus    int
		wantPrincipal role.Principal
	}{
		{
			name:          "no header passes through as anonymous",
			header:        "",
			wantStatus:    http.StatusOK,
			wantPrincipal: nil,
		},
		{
			name:       "malformed header is rejected",
			header:     "Basic abc123",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:          "valid bearer id injects the principal",
			header:        "Bearer s1",
			wantStatus:    http.StatusOK,
			wantPrincipal: rita,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var seen role.Principal
			handler := middleware.Authenticate(resolver)(capture(&seen))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if testCase.header != "" {
				request.Header.Set("Authorization", testCase.header)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)
			assert.Equal(t, testCase.wantPrincipal, seen)
		})
	}
}

/*
TestAuthenticate_ExpiredSession verifies resolver failures surface with their
own code instead of a generic 401.
*/
func TestAuthenticate_ExpiredSession(t *testing.T) {
	resolver := &stubResolver{sessionID: "s1"}

	var seen role.Principal
	handler := middleware.Authenticate(resolver)(capture(&seen))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer stale")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "SESSION_EXPIRED", errorCode(t, recorder))
	assert.Nil(t, seen)
}

/*
TestRequireAuth verifies anonymous requests are blocked after authentication
ran.
*/
func TestRequireAuth(t *testing.T) {
	var seen role.Principal
	handler := middleware.RequireAuth(capture(&seen))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	rita := &stubPrincipal{id: "u1", props: map[string]any{}}
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithPrincipal(request.Context(), rita))

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, rita, seen)
}

/*
TestRequireRole verifies the role gate, including the admin override.
*/
func TestRequireRole(t *testing.T) {
	testCases := []struct {
		name       string
		principal  role.Principal
		wantStatus int
		wantCode   string
	}{
		{
			name:       "anonymous is unauthorized",
			principal:  nil,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "missing role is forbidden",
			principal:  &stubPrincipal{id: "u1", props: map[string]any{}},
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "role holder passes",
			principal:  &stubPrincipal{id: "u2", props: map[string]any{"moderator": true}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin satisfies any role",
			principal:  &stubPrincipal{id: "u3", props: map[string]any{"admin": true}},
			wantStatus: http.StatusOK,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var seen role.Principal
			handler := middleware.RequireRole("moderator")(capture(&seen))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if testCase.principal != nil {
				request = request.WithContext(ctxutil.WithPrincipal(request.Context(), testCase.principal))
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)
			if testCase.wantCode != "" {
				assert.Equal(t, testCase.wantCode, errorCode(t, recorder))
			}
		})
	}
}
