// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/monova/internal/platform/apperr"
	"github.com/taibuivan/monova/internal/platform/cache"
	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/store"
)

// PermissionResolver decides whether a role-scoped account may call a given
// endpoint/method pair.
type PermissionResolver struct {
	store store.Store

	// memo caches permission lookups per (endpoint, method, role set).
	// Permission rows are admin-configured constants that change between
	// deployments, not between requests. Optional; nil disables caching.
	memo *cache.Memo
}

// NewPermissionResolver creates a PermissionResolver. memo may be nil.
func NewPermissionResolver(st store.Store, memo *cache.Memo) *PermissionResolver {
	return &PermissionResolver{store: st, memo: memo}
}

// Check validates the identity's permissions for the endpoint/method pair.
//
// # Policy
//
// Accounts without app_roles pass unconditionally — permission rules apply
// only to role-scoped accounts. Otherwise every permission row matching the
// endpoint and method must be held through at least one of the account's
// roles. Zero matching rows is a pass: endpoints are open unless a rule
// claims them (fail-open by product decision, not an oversight).
//
// # Errors
//   - [apperr.KindPermissionDenied] when any matched row is not satisfied.
func (resolver *PermissionResolver) Check(ctx context.Context, endpoint, method string, identity *Identity) error {
	if !identity.HasAppRoles() {
		return nil
	}

	rows, err := resolver.lookup(ctx, endpoint, method, identity.AppRoles())
	if err != nil {
		return apperr.Generic(err)
	}

	for _, row := range rows {
		exists, _ := row["permission_exists"].(bool)
		if !exists {
			return apperr.PermissionDenied()
		}
	}
	return nil
}

// lookup fetches the permission rows for the endpoint/method, each annotated
// with whether the given roles hold the required permission id.
func (resolver *PermissionResolver) lookup(ctx context.Context, endpoint, method string, appRoles []any) ([]store.Doc, error) {
	if resolver.memo == nil {
		return resolver.query(ctx, endpoint, method, appRoles)
	}

	key := permissionKey(endpoint, method, appRoles)
	cached, err := resolver.memo.Do(key, func() (any, error) {
		return resolver.query(ctx, endpoint, method, appRoles)
	})
	if err != nil {
		return nil, err
	}
	return cached.([]store.Doc), nil
}

// query runs the permission aggregation:
// match the api_permissions rows for the endpoint/method, join the
// role-to-permission memberships scoped to the caller's roles, and annotate
// each row with whether its permission id is held.
func (resolver *PermissionResolver) query(ctx context.Context, endpoint, method string, appRoles []any) ([]store.Doc, error) {
	pipeline := []store.Doc{
		{"$match": store.Doc{"endpoint": endpoint, "method": method}},
		{"$lookup": store.Doc{
			"from": constants.CollectionAppRolesPermissions,
			"pipeline": []store.Doc{
				{"$match": store.Doc{"app_role_id": store.Doc{"$in": appRoles}}},
				{"$project": store.Doc{"permission_id": 1, "_id": 0}},
			},
			"as": "user_permissions",
		}},
		{"$addFields": store.Doc{
			"permission_exists": store.Doc{
				"$in": []any{"$permission_id", "$user_permissions.permission_id"},
			},
		}},
	}

	return resolver.store.Aggregate(ctx, constants.CollectionAPIPermissions, pipeline)
}

// permissionKey builds a stable memoization key from the lookup arguments.
func permissionKey(endpoint, method string, appRoles []any) string {
	parts := make([]string, 0, len(appRoles)+2)
	parts = append(parts, endpoint, method)
	for _, role := range appRoles {
		parts = append(parts, fmt.Sprint(role))
	}
	return strings.Join(parts, "|")
}
