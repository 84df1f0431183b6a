// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/monova/internal/platform/sec"

// Gates is the prebuilt set of route guards the API wires once at startup.
// Routes pick the narrowest gate that covers their audience.
type Gates struct {
	// Client accepts client sessions only.
	Client *Gate
	// Talent accepts talent sessions only.
	Talent *Gate
	// Entity accepts either kind of end user.
	Entity *Gate
	// SuperAdmin accepts back-office administrators only.
	SuperAdmin *Gate
	// ClientOrSuperAdmin accepts clients and administrators.
	ClientOrSuperAdmin *Gate
	// Any accepts every known role.
	Any *Gate
	// PasswordReset accepts short-lived reset tokens from any end user.
	PasswordReset *Gate
	// SignUp accepts onboarding tokens from accounts still completing
	// registration.
	SignUp *Gate
}

// NewGates builds the standard gate set from the shared collaborators.
func NewGates(deps GateDeps) *Gates {
	return &Gates{
		Client:             NewGate(deps, sec.RoleClient),
		Talent:             NewGate(deps, sec.RoleTalent),
		Entity:             NewGate(deps, sec.RoleClient, sec.RoleTalent),
		SuperAdmin:         NewGate(deps, sec.RoleSuperAdmin),
		ClientOrSuperAdmin: NewGate(deps, sec.RoleClient, sec.RoleSuperAdmin),
		Any:                NewGate(deps, sec.RoleClient, sec.RoleTalent, sec.RoleSuperAdmin),
		PasswordReset:      NewGateForTokenType(deps, sec.TokenResetPassword, sec.RoleClient, sec.RoleTalent),
		SignUp:             NewGateForTokenType(deps, sec.TokenSignUp, sec.RoleClient, sec.RoleTalent),
	}
}
