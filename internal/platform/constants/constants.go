// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, collection names, cookie identifiers, and the
client-facing message catalogue shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Collections: Document database collection names.
  - Security: Token cookie configuration and masked field lists.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "monova-api"
	AppVersion = "1.0.0"

	// ServiceName tags tracking records so downstream dashboards can
	// separate this service from siblings sharing the tracker collection.
	ServiceName = "monova"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// BackgroundTaskTimeout caps every fire-and-forget task (last-active touch,
	// request tracking) so an unreachable database cannot leak goroutines.
	BackgroundTaskTimeout = 10 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitWindow is the fixed counting window for the Redis-backed limiter.
	RateLimitWindow = 1 * time.Second

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AccessTokenCookieName is the cookie carrying the bearer JWT. The gate
	// reads tokens from this cookie only, never from the Authorization header.
	AccessTokenCookieName = "access_token"

	// DefaultTokenTTL is the token lifetime applied when callers do not
	// request an explicit expiry delta.
	DefaultTokenTTL = 24 * time.Hour
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXProcessTime  = "X-Process-Time"
	HeaderAuthorization = "Authorization"
	HeaderWWWAuth       = "WWW-Authenticate"
)

// # Collections (Document Database)

const (
	CollectionUsers               = "users"
	CollectionAdmins              = "admins"
	CollectionAccessTokens        = "access_tokens"
	CollectionRequestTokens       = "request_tokens"
	CollectionAPIPermissions      = "api_permissions"
	CollectionAppRolesPermissions = "app_roles_permissions"
	CollectionRequestTracker      = "request_tracker"
	CollectionCphProblems         = "cph_problems"
)

// # Client Messages

// The catalogue below is the single source of user-visible failure text.
// Handlers and middleware never inline these strings.
const (
	MsgTokenInvalid        = "Invalid token"
	MsgAccountInactive     = "Account is inactive"
	MsgAccountRestricted   = "Account is restricted"
	MsgForbiddenAccess     = "Access forbidden"
	MsgPermissionMissing   = "Permission does not exist"
	MsgGenericError        = "Something went wrong"
	MsgCredentialsInvalid  = "Invalid username or password"
	MsgTooManyRequests     = "Rate limit exceeded"
	MsgValidationUnknown   = "Request validation error unknown"
	MsgResponseStatusOK    = "SUCCESS"
	MsgResponseStatusError = "FAIL"
)

// # Masking

// SensitiveBodyFields are request body keys whose string values are replaced
// with an equal-length run of '*' before the body is persisted by the tracker.
var SensitiveBodyFields = []string{
	"password",
	"new_password",
	"current_password",
	"access_token",
	"refresh_token",
}

// SensitiveHeaders are never written to logs or tracking records.
var SensitiveHeaders = []string{
	"authorization",
	"cookie",
	"set-cookie",
}
