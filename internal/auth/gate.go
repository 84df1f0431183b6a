// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/monova/internal/platform/apperr"
	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/ctxutil"
	"github.com/taibuivan/monova/internal/platform/respond"
	"github.com/taibuivan/monova/internal/platform/sec"
	"github.com/taibuivan/monova/internal/platform/task"
)

// Gate is the per-route authentication and authorization state machine.
//
// # Flow (terminal on first failure)
//
//	ExtractToken -> DecodeToken -> ResolveUser
//	  -> super admin: status gate, access level, async last-active, done
//	  -> otherwise:   permission check, account-status gate, access level,
//	                  async last-active, done
//
// Each route declares its own gate instance, parameterized by the roles it
// accepts and the token type it expects. On success the verified claims are
// injected into the request context for the handler.
type Gate struct {
	codec       *sec.Codec
	users       *UserResolver
	permissions *PermissionResolver
	spawner     *task.Spawner

	accessLevels map[sec.Role]struct{}
	tokenType    sec.TokenType
}

// GateDeps groups the shared collaborators every gate instance needs.
type GateDeps struct {
	Codec       *sec.Codec
	Users       *UserResolver
	Permissions *PermissionResolver
	Spawner     *task.Spawner
}

// NewGate creates a gate accepting the given roles and expecting bearer
// tokens. Use [NewGateForTokenType] for non-session routes.
func NewGate(deps GateDeps, accessLevels ...sec.Role) *Gate {
	return NewGateForTokenType(deps, sec.TokenBearer, accessLevels...)
}

// NewGateForTokenType creates a gate expecting the given token type.
func NewGateForTokenType(deps GateDeps, tokenType sec.TokenType, accessLevels ...sec.Role) *Gate {
	levels := make(map[sec.Role]struct{}, len(accessLevels))
	for _, role := range accessLevels {
		levels[role] = struct{}{}
	}

	return &Gate{
		codec:        deps.Codec,
		users:        deps.Users,
		permissions:  deps.Permissions,
		spawner:      deps.Spawner,
		accessLevels: levels,
		tokenType:    tokenType,
	}
}

// Require is the chi middleware form of the gate.
//
// On success the handler runs with the verified [sec.Claims] in its context;
// on failure the FAIL envelope is written and the handler never runs.
func (gate *Gate) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims, err := gate.Authenticate(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			ctx := ctxutil.WithClaims(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// Authenticate runs the full gate state machine against the request and
// returns the verified claims.
func (gate *Gate) Authenticate(request *http.Request) (sec.Claims, error) {
	// ── 1. Extract Token ──────────────────────────────────────────────────
	cookie, err := request.Cookie(constants.AccessTokenCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, apperr.TokenMissing()
	}
	rawToken := strings.TrimSpace(cookie.Value)

	// ── 2. Decode Token ───────────────────────────────────────────────────
	claims, err := gate.codec.Decode(rawToken, false)
	if err != nil {
		return nil, err
	}
	if claims.TokenType() != gate.tokenType {
		return nil, apperr.TokenTypeMismatch()
	}

	// ── 3. Resolve User ───────────────────────────────────────────────────
	role := claims.UserType()
	identity, err := gate.users.Resolve(request.Context(), role, claims, rawToken)
	if err != nil {
		return nil, apperr.Generic(err)
	}
	if identity == nil {
		return nil, apperr.UserNotFound()
	}

	// ── 4. Super Admin Branch ─────────────────────────────────────────────
	// Super admins skip the permission lookup and the per-type status gate;
	// only the ACTIVE requirement and the access level apply.
	if role.IsSuperAdmin() {
		if identity.AccountStatus() != sec.AccountActive {
			return nil, apperr.AccountInactive()
		}
		if !gate.allows(role) {
			return nil, apperr.AccessLevelDenied()
		}

		gate.touchLastActive(role, claims.UserID())
		return claims, nil
	}

	// ── 5. Validate Permissions ───────────────────────────────────────────
	if err := gate.permissions.Check(request.Context(), cleanedURLPath(request), request.Method, identity); err != nil {
		return nil, err
	}

	// ── 6. Account Status Gate ────────────────────────────────────────────
	if err := checkAccountStatus(claims.TokenType(), identity.AccountStatus()); err != nil {
		return nil, err
	}

	// ── 7. Access Level Gate ──────────────────────────────────────────────
	if !gate.allows(role) {
		return nil, apperr.AccessLevelDenied()
	}

	// ── 8. Side Effect ────────────────────────────────────────────────────
	gate.touchLastActive(role, claims.UserID())

	return claims, nil
}

// allows reports whether the role is within this gate's access levels.
func (gate *Gate) allows(role sec.Role) bool {
	_, ok := gate.accessLevels[role]
	return ok
}

// touchLastActive fires the last-active update without awaiting it. The
// response never waits on, and never learns about, this write.
func (gate *Gate) touchLastActive(role sec.Role, userID any) {
	gate.spawner.Go("touch_last_active", func(ctx context.Context) {
		gate.users.TouchLastActive(ctx, role, userID)
	})
}

// checkAccountStatus applies the token-type-specific account gate.
//
// Sign-up tokens are valid only while the account is still in the SIGN_UP
// state. Password-reset tokens skip the gate entirely: a restricted or
// inactive account may still complete a password reset. Every other type
// requires a fully ACTIVE account, with restricted and inactive reported as
// distinct failures.
func checkAccountStatus(tokenType sec.TokenType, status sec.AccountStatus) error {
	if tokenType == sec.TokenSignUp {
		if status != sec.AccountSignUp {
			return apperr.AccountInactive()
		}
		return nil
	}

	if tokenType.SkipsAccountStatusGate() {
		return nil
	}

	switch {
	case status == sec.AccountInactive:
		return apperr.AccountInactive()
	case status == sec.AccountRestricted:
		return apperr.AccountRestricted()
	case status != sec.AccountActive:
		return apperr.AccountInactive()
	}
	return nil
}

// cleanedURLPath strips resolved route parameter values from the request
// path so one permission row matches both parametrized and literal routes:
// /users/42/edit with id=42 becomes /users/edit.
func cleanedURLPath(request *http.Request) string {
	path := request.URL.Path

	routeContext := chi.RouteContext(request.Context())
	if routeContext == nil {
		return path
	}

	for _, value := range routeContext.URLParams.Values {
		if value == "" {
			continue
		}
		path = strings.ReplaceAll(path, "/"+value, "")
	}
	return path
}
