// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package auth implements the request authentication and authorization
// pipeline: token resolution against the store, permission lookups, and the
// per-route gate orchestrating them.
//
// # Architecture
//
// The pipeline is split into three injectable components. [UserResolver]
// answers "which live account does this token belong to", [PermissionResolver]
// answers "may this account call this endpoint", and [Gate] runs the ordered
// state machine that combines them per request. All three speak to storage
// only through the narrow [store.Store] contract.
package auth

import (
	"context"
	"log/slog"

	"github.com/taibuivan/monova/internal/platform/sec"
	"github.com/taibuivan/monova/internal/platform/store"
	"github.com/taibuivan/monova/pkg/timeutil"
)

// UserResolver resolves token claims to the backing identity document.
type UserResolver struct {
	store  store.Store
	logger *slog.Logger
}

// NewUserResolver creates a UserResolver backed by the given store.
func NewUserResolver(st store.Store, logger *slog.Logger) *UserResolver {
	return &UserResolver{store: st, logger: logger}
}

// Resolve returns the identity behind the presented token, or nil when no
// live identity backs it.
//
// # Flow
//  1. Select the token-storage collection from the claims' token type
//     (password-reset tokens are tracked apart from session tokens).
//  2. Match the stored token record by user, type, and the raw token string.
//  3. Join against the identity collection selected by role (admins for
//     SUPER_ADMIN, users otherwise), filtering deleted records.
//  4. Flatten to the single joined identity document.
//
// A token authenticates only while its storage record still exists: revoking
// a token deletes the record and instantly invalidates the still-unexpired
// JWT. The storage record's own expiry and the JWT exp claim are independent
// checks and both remain enforced.
func (resolver *UserResolver) Resolve(ctx context.Context, role sec.Role, claims sec.Claims, rawToken string) (*Identity, error) {
	pipeline := []store.Doc{
		{"$match": store.Doc{
			"user_id":    claims.UserID(),
			"user_type":  string(claims.UserType()),
			"is_deleted": false,
			"$or": []store.Doc{
				{"access_token": rawToken},
				{"token": rawToken},
			},
		}},
		{"$lookup": store.Doc{
			"from": role.IdentityCollection(),
			"let":  store.Doc{"user_id": "$user_id", "user_type": "$user_type"},
			"pipeline": []store.Doc{
				{"$match": store.Doc{
					"$expr": store.Doc{
						"$and": []store.Doc{
							{"$eq": []any{"$_id", "$$user_id"}},
							{"$eq": []any{"$user_type", "$$user_type"}},
							{"$eq": []any{"$is_deleted", false}},
						},
					},
				}},
			},
			"as": "user",
		}},
		{"$unwind": "$user"},
		{"$replaceRoot": store.Doc{"newRoot": "$user"}},
	}

	documents, err := resolver.store.Aggregate(ctx, claims.TokenType().StorageCollection(), pipeline)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, nil
	}

	return &Identity{Doc: documents[0]}, nil
}

// TouchLastActive stamps the identity's last_active field with the current
// millisecond epoch. It is called from background tasks only; a failure is
// logged and swallowed because activity bookkeeping must never fail a request.
func (resolver *UserResolver) TouchLastActive(ctx context.Context, role sec.Role, userID any) {
	err := resolver.store.UpdateOne(ctx,
		role.IdentityCollection(),
		store.Doc{"_id": userID},
		store.Doc{"$set": store.Doc{"last_active": timeutil.NowMillis()}},
	)
	if err != nil {
		resolver.logger.Error("last_active_touch_failed",
			slog.Any("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
