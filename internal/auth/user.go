// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"github.com/taibuivan/monova/internal/platform/sec"
	"github.com/taibuivan/monova/internal/platform/store"
)

// Identity is a resolved user or admin document.
//
// # Why a document wrapper?
//
// Identity records are schemaless by design — user-management flows attach
// arbitrary profile fields — so the record stays a raw document and this
// type provides typed access to the handful of fields the auth pipeline
// reads. Accessors tolerate missing fields by returning zero values.
type Identity struct {
	// Doc is the raw joined identity document.
	Doc store.Doc
}

// ID returns the identity's document key as stored (number or string).
func (identity *Identity) ID() any {
	return identity.Doc["_id"]
}

// AccountStatus returns the lifecycle state of the account.
func (identity *Identity) AccountStatus() sec.AccountStatus {
	status, _ := identity.Doc["account_status"].(string)
	return sec.AccountStatus(status)
}

// AppRoles returns the application role ids attached to the account.
// Most accounts have none; permission checks apply only to role-scoped ones.
func (identity *Identity) AppRoles() []any {
	roles, _ := identity.Doc["app_roles"].([]any)
	return roles
}

// HasAppRoles reports whether the account is role-scoped.
func (identity *Identity) HasAppRoles() bool {
	return len(identity.AppRoles()) > 0
}
