// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "github.com/taibuivan/monova/internal/platform/constants"

// # Roles

// Role is the coarse caller category carried in the token's user_type claim.
//
// It is a closed set. Capability questions are answered by the dispatch
// methods below, never by string comparison at call sites, so adding a role
// is a change to this file only.
type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleTalent     Role = "TALENT"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// IsSuperAdmin reports whether the role takes the administrative resolution
// and bypass branch of the auth gate.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// IdentityCollection returns the document collection holding accounts of
// this role. Super admins live apart from regular users.
func (r Role) IdentityCollection() string {
	if r.IsSuperAdmin() {
		return constants.CollectionAdmins
	}
	return constants.CollectionUsers
}

// RequiresPermissionCheck reports whether endpoint/method permission rows
// apply to this role. Super admins bypass the permission lookup entirely.
func (r Role) RequiresPermissionCheck() bool {
	return !r.IsSuperAdmin()
}

// # Token Types

// TokenType discriminates the purpose a signed token was issued for.
// A gate only accepts the single type it was configured with.
type TokenType string

const (
	TokenBearer        TokenType = "bearer"
	TokenResetPassword TokenType = "reset_password"
	TokenRefresh       TokenType = "refresh"
	TokenSignUp        TokenType = "sign_up"
)

// StorageCollection returns the collection where issued tokens of this type
// are tracked. Password-reset tokens are stored apart from session tokens;
// both stores share a common record shape.
func (t TokenType) StorageCollection() string {
	if t == TokenResetPassword {
		return constants.CollectionRequestTokens
	}
	return constants.CollectionAccessTokens
}

// SkipsAccountStatusGate reports whether the account-status checks are
// bypassed for this token type. A restricted or inactive account may still
// complete a password reset.
func (t TokenType) SkipsAccountStatusGate() bool {
	return t == TokenResetPassword
}

// # Account Status

// AccountStatus is the lifecycle state of a user or admin record.
type AccountStatus string

const (
	AccountActive     AccountStatus = "ACTIVE"
	AccountInactive   AccountStatus = "INACTIVE"
	AccountRestricted AccountStatus = "RESTRICTED"
	AccountSignUp     AccountStatus = "SIGN_UP"
)
