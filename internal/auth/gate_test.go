// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/monova/internal/platform/apperr"
	"github.com/taibuivan/monova/internal/platform/ctxutil"
	"github.com/taibuivan/monova/internal/platform/sec"
	"github.com/taibuivan/monova/internal/platform/store"
	"github.com/taibuivan/monova/internal/platform/task"
)

const testSecret = "gate-test-secret"

// fakeStore scripts aggregate responses per collection and records writes.
type fakeStore struct {
	mu sync.Mutex

	// identityDocs is returned for token-storage collection aggregates.
	identityDocs []store.Doc
	// permissionRows is returned for api_permissions aggregates.
	permissionRows []store.Doc

	aggregateCalls []aggregateCall
	updateCalls    []updateCall
}

type aggregateCall struct {
	collection string
	pipeline   []store.Doc
}

type updateCall struct {
	collection string
	filter     store.Doc
	update     store.Doc
}

func (s *fakeStore) FindOne(context.Context, string, store.Doc) (store.Doc, error) {
	return nil, nil
}

func (s *fakeStore) Aggregate(_ context.Context, collection string, pipeline []store.Doc) ([]store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregateCalls = append(s.aggregateCalls, aggregateCall{collection: collection, pipeline: pipeline})

	if collection == "api_permissions" {
		return s.permissionRows, nil
	}
	return s.identityDocs, nil
}

func (s *fakeStore) UpdateOne(_ context.Context, collection string, filter, update store.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls = append(s.updateCalls, updateCall{collection: collection, filter: filter, update: update})
	return nil
}

func (s *fakeStore) InsertTimeSeries(context.Context, string, store.Doc, store.Doc) error {
	return nil
}

func (s *fakeStore) aggregatedCollections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	collections := make([]string, 0, len(s.aggregateCalls))
	for _, call := range s.aggregateCalls {
		collections = append(collections, call.collection)
	}
	return collections
}

func (s *fakeStore) updates() []updateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]updateCall(nil), s.updateCalls...)
}

// newTestGate wires a gate over the fake store with a drainable spawner.
func newTestGate(backing *fakeStore, tokenType sec.TokenType, levels ...sec.Role) (*Gate, *task.Spawner) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	spawner := task.NewSpawner(logger)

	deps := GateDeps{
		Codec:       sec.NewCodec(testSecret),
		Users:       NewUserResolver(backing, logger),
		Permissions: NewPermissionResolver(backing, nil),
		Spawner:     spawner,
	}

	return NewGateForTokenType(deps, tokenType, levels...), spawner
}

// signedToken mints a token for the given role and type.
func signedToken(t *testing.T, role sec.Role, tokenType sec.TokenType) string {
	t.Helper()

	codec := sec.NewCodec(testSecret)
	tokenString, _, err := codec.Encode(sec.Claims{
		"user_id":   "u-1",
		"user_type": string(role),
	}, time.Hour, tokenType)
	require.NoError(t, err)

	return tokenString
}

// authRequest builds a GET request carrying the token cookie.
func authRequest(token string) *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/cph/problems", nil)
	if token != "" {
		request.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}
	return request
}

// identityDoc builds a minimal resolved identity document.
func identityDoc(status sec.AccountStatus, appRoles ...any) store.Doc {
	doc := store.Doc{
		"_id":            "u-1",
		"account_status": string(status),
	}
	if len(appRoles) > 0 {
		doc["app_roles"] = appRoles
	}
	return doc
}

/*
TestGate_TokenFailures covers the extraction and decoding steps: missing
cookie, malformed token, expired token, and a token of the wrong type.
*/
func TestGate_TokenFailures(t *testing.T) {
	expiredCodec := sec.NewCodec(testSecret)
	expiredToken, _, err := expiredCodec.Encode(sec.Claims{
		"user_id":   "u-1",
		"user_type": "CLIENT",
	}, -time.Minute, sec.TokenBearer)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		kind  apperr.Kind
	}{
		{"missing_cookie", "", apperr.KindTokenMissing},
		{"garbage_token", "not.a.jwt", apperr.KindTokenInvalid},
		{"expired_token", expiredToken, apperr.KindTokenExpired},
		{"reset_token_on_bearer_route", signedToken(t, sec.RoleClient, sec.TokenResetPassword), apperr.KindTokenTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, _ := newTestGate(&fakeStore{}, sec.TokenBearer, sec.RoleClient)

			_, err := gate.Authenticate(authRequest(tt.token))
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

/*
TestGate_UserNotFound verifies a valid token without a live storage record
is rejected. Revocation works by deleting the record, so this path also
covers revoked tokens.
*/
func TestGate_UserNotFound(t *testing.T) {
	gate, _ := newTestGate(&fakeStore{}, sec.TokenBearer, sec.RoleClient)

	_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleClient, sec.TokenBearer)))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUserNotFound))
}

/*
TestGate_HappyPath verifies an active client passes, the token record is
looked up in the session collection, and last_active is stamped in the
background.
*/
func TestGate_HappyPath(t *testing.T) {
	backing := &fakeStore{identityDocs: []store.Doc{identityDoc(sec.AccountActive)}}
	gate, spawner := newTestGate(backing, sec.TokenBearer, sec.RoleClient)

	claims, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleClient, sec.TokenBearer)))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, sec.RoleClient, claims.UserType())

	assert.Contains(t, backing.aggregatedCollections(), "access_tokens")

	require.True(t, spawner.Drain(2*time.Second))
	updates := backing.updates()
	require.Len(t, updates, 1)
	assert.Equal(t, "users", updates[0].collection)
	assert.Equal(t, store.Doc{"_id": "u-1"}, updates[0].filter)
}

/*
TestGate_AccountStatus covers the per-status rejections for bearer tokens.
*/
func TestGate_AccountStatus(t *testing.T) {
	tests := []struct {
		name   string
		status sec.AccountStatus
		kind   apperr.Kind
	}{
		{"inactive", sec.AccountInactive, apperr.KindAccountInactive},
		{"restricted", sec.AccountRestricted, apperr.KindAccountRestricted},
		{"still_signing_up", sec.AccountSignUp, apperr.KindAccountInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backing := &fakeStore{identityDocs: []store.Doc{identityDoc(tt.status)}}
			gate, _ := newTestGate(backing, sec.TokenBearer, sec.RoleClient)

			_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleClient, sec.TokenBearer)))
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

/*
TestGate_AccessLevel verifies a valid user of the wrong role gets a 403,
distinct from the 401 family.
*/
func TestGate_AccessLevel(t *testing.T) {
	backing := &fakeStore{identityDocs: []store.Doc{identityDoc(sec.AccountActive)}}
	gate, _ := newTestGate(backing, sec.TokenBearer, sec.RoleClient)

	_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleTalent, sec.TokenBearer)))
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.KindAccessLevelDenied, appError.Kind)
	assert.Equal(t, http.StatusForbidden, appError.HTTPStatus)
}

/*
TestGate_SuperAdmin verifies the admin branch: no permission lookup, ACTIVE
required, last_active stamped in the admins collection.
*/
func TestGate_SuperAdmin(t *testing.T) {
	t.Run("active_admin_passes", func(t *testing.T) {
		backing := &fakeStore{
			identityDocs: []store.Doc{identityDoc(sec.AccountActive)},
			// A denying permission row that must never be consulted.
			permissionRows: []store.Doc{{"permission_exists": false}},
		}
		gate, spawner := newTestGate(backing, sec.TokenBearer, sec.RoleSuperAdmin)

		_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleSuperAdmin, sec.TokenBearer)))
		require.NoError(t, err)

		assert.NotContains(t, backing.aggregatedCollections(), "api_permissions")

		require.True(t, spawner.Drain(2*time.Second))
		updates := backing.updates()
		require.Len(t, updates, 1)
		assert.Equal(t, "admins", updates[0].collection)
	})

	t.Run("inactive_admin_rejected", func(t *testing.T) {
		backing := &fakeStore{identityDocs: []store.Doc{identityDoc(sec.AccountInactive)}}
		gate, _ := newTestGate(backing, sec.TokenBearer, sec.RoleSuperAdmin)

		_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleSuperAdmin, sec.TokenBearer)))
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindAccountInactive))
	})
}

/*
TestGate_PermissionDenied verifies a role-scoped account missing a required
permission is rejected with 401.
*/
func TestGate_PermissionDenied(t *testing.T) {
	backing := &fakeStore{
		identityDocs:   []store.Doc{identityDoc(sec.AccountActive, "role-viewer")},
		permissionRows: []store.Doc{{"endpoint": "/cph/problems", "permission_exists": false}},
	}
	gate, _ := newTestGate(backing, sec.TokenBearer, sec.RoleClient)

	_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleClient, sec.TokenBearer)))
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.KindPermissionDenied, appError.Kind)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
}

/*
TestGate_SpecialTokenTypes covers the sign-up and password-reset gates.
*/
func TestGate_SpecialTokenTypes(t *testing.T) {
	t.Run("sign_up_token_requires_sign_up_status", func(t *testing.T) {
		backing := &fakeStore{identityDocs: []store.Doc{identityDoc(sec.AccountSignUp)}}
		gate, _ := newTestGate(backing, sec.TokenSignUp, sec.RoleClient)

		_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleClient, sec.TokenSignUp)))
		assert.NoError(t, err)
	})

	t.Run("sign_up_token_on_activated_account", func(t *testing.T) {
		backing := &fakeStore{identityDocs: []store.Doc{identityDoc(sec.AccountActive)}}
		gate, _ := newTestGate(backing, sec.TokenSignUp, sec.RoleClient)

		_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleClient, sec.TokenSignUp)))
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindAccountInactive))
	})

	t.Run("reset_token_skips_status_gate", func(t *testing.T) {
		backing := &fakeStore{identityDocs: []store.Doc{identityDoc(sec.AccountRestricted)}}
		gate, _ := newTestGate(backing, sec.TokenResetPassword, sec.RoleClient)

		_, err := gate.Authenticate(authRequest(signedToken(t, sec.RoleClient, sec.TokenResetPassword)))
		assert.NoError(t, err)

		// Reset tokens live in their own collection.
		assert.Contains(t, backing.aggregatedCollections(), "request_tokens")
	})
}

/*
TestGate_Require verifies the middleware form: claims land in the handler's
context on success, the FAIL envelope is written on failure, and resolved
route parameters are stripped from the permission endpoint.
*/
func TestGate_Require(t *testing.T) {
	backing := &fakeStore{
		identityDocs:   []store.Doc{identityDoc(sec.AccountActive, "role-editor")},
		permissionRows: []store.Doc{},
	}
	gate, _ := newTestGate(backing, sec.TokenBearer, sec.RoleClient)

	var handlerClaims sec.Claims
	router := chi.NewRouter()
	router.With(gate.Require()).Get("/users/{id}/edit", func(writer http.ResponseWriter, request *http.Request) {
		handlerClaims = ctxutil.GetClaims(request.Context())
		writer.WriteHeader(http.StatusOK)
	})

	t.Run("success_with_cleaned_endpoint", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/users/42/edit", nil)
		request.AddCookie(&http.Cookie{Name: "access_token", Value: signedToken(t, sec.RoleClient, sec.TokenBearer)})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, handlerClaims)
		assert.Equal(t, "u-1", handlerClaims.UserID())

		// The permission lookup saw the parameter-free endpoint.
		var permissionEndpoint string
		for _, call := range backing.aggregateCallsSnapshot() {
			if call.collection != "api_permissions" {
				continue
			}
			match := call.pipeline[0]["$match"].(store.Doc)
			permissionEndpoint = match["endpoint"].(string)
		}
		assert.Equal(t, "/users/edit", permissionEndpoint)
	})

	t.Run("failure_writes_fail_envelope", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/users/42/edit", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"status":"FAIL"`)
	})
}

func (s *fakeStore) aggregateCallsSnapshot() []aggregateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]aggregateCall(nil), s.aggregateCalls...)
}
