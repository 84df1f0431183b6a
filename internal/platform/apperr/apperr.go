// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Monova.

It provides a rich error type that bridges the gap between low-level auth/storage
failures and high-level HTTP responses.

Architecture:

  - AppError: A struct carrying a machine-readable Kind and a client-safe message.
  - Kinds: A closed enumeration of every failure the auth pipeline can surface.
  - Mapping: The HTTP status is fixed per Kind at construction; respond picks it
    up in exactly one place.

Every error that leaves the auth or service layer must be wrapped as an
[AppError] to ensure consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/taibuivan/monova/internal/platform/constants"
)

// # Error Kinds

// Kind is the machine-readable identity of a failure. Handlers and middleware
// branch on Kind, never on message text or error types from third parties.
type Kind string

const (
	KindTokenMissing      Kind = "TOKEN_MISSING"
	KindTokenInvalid      Kind = "TOKEN_INVALID"
	KindTokenExpired      Kind = "TOKEN_EXPIRED"
	KindTokenTypeMismatch Kind = "TOKEN_TYPE_MISMATCH"
	KindUserNotFound      Kind = "USER_NOT_FOUND"
	KindAccountInactive   Kind = "ACCOUNT_INACTIVE"
	KindAccountRestricted Kind = "ACCOUNT_RESTRICTED"
	KindPermissionDenied  Kind = "PERMISSION_DENIED"
	KindAccessLevelDenied Kind = "ACCESS_LEVEL_DENIED"
	KindBadCredentials    Kind = "BAD_CREDENTIALS"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindGeneric           Kind = "GENERIC_ERROR"
)

// AppError is the canonical error type for the Monova API.
//
// It carries an HTTP status code, a Kind, a client-safe message, and an
// optional structured detail payload (validation error lists).
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details.
type AppError struct {
	// Kind is the machine-readable failure identity.
	Kind Kind `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds structured failure context, e.g. per-field validation errors.
	Details any `json:"detail,omitempty"`
	// Headers are attached verbatim to the HTTP response (WWW-Authenticate etc).
	Headers map[string]string `json:"-"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Tag returns a stable correlation hash for this error instance, appended to
// the user-visible message so support can match a complaint to a log line
// without leaking internals.
func (e *AppError) Tag() string {
	digest := fnv.New64a()
	_, _ = digest.Write([]byte(e.Kind))
	_, _ = digest.Write([]byte(e.Message))
	if e.Cause != nil {
		_, _ = digest.Write([]byte(e.Cause.Error()))
	}
	return fmt.Sprintf("0x%x", digest.Sum64())
}

// TaggedMessage returns the client-facing message with the correlation tag.
func (e *AppError) TaggedMessage() string {
	return e.Message + ": " + e.Tag()
}

// # Authentication Failures (401)

// TokenMissing reports an absent access_token cookie.
func TokenMissing() *AppError {
	return &AppError{
		Kind:       KindTokenMissing,
		Message:    constants.MsgTokenInvalid,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenInvalid reports a malformed or unverifiable token.
func TokenInvalid(cause error) *AppError {
	return &AppError{
		Kind:       KindTokenInvalid,
		Message:    constants.MsgTokenInvalid,
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// TokenExpired reports a token whose exp claim has passed.
func TokenExpired(cause error) *AppError {
	return &AppError{
		Kind:       KindTokenExpired,
		Message:    constants.MsgTokenInvalid,
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// TokenTypeMismatch reports a valid token presented to a gate expecting a
// different token type.
func TokenTypeMismatch() *AppError {
	return &AppError{
		Kind:       KindTokenTypeMismatch,
		Message:    constants.MsgTokenInvalid,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// UserNotFound reports a token whose storage record or identity document no
// longer exists. The client-facing message is deliberately identical to the
// invalid-token message so account existence is not probeable.
func UserNotFound() *AppError {
	return &AppError{
		Kind:       KindUserNotFound,
		Message:    constants.MsgTokenInvalid,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// AccountInactive reports an account outside the ACTIVE state.
func AccountInactive() *AppError {
	return &AppError{
		Kind:       KindAccountInactive,
		Message:    constants.MsgAccountInactive,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// AccountRestricted reports an account in the RESTRICTED state.
func AccountRestricted() *AppError {
	return &AppError{
		Kind:       KindAccountRestricted,
		Message:    constants.MsgAccountRestricted,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// PermissionDenied reports a failed endpoint/method permission lookup.
func PermissionDenied() *AppError {
	return &AppError{
		Kind:       KindPermissionDenied,
		Message:    constants.MsgPermissionMissing,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// BadCredentials reports a failed basic-auth challenge. The WWW-Authenticate
// header is carried on the error so the browser re-prompts.
func BadCredentials() *AppError {
	return &AppError{
		Kind:       KindBadCredentials,
		Message:    constants.MsgCredentialsInvalid,
		HTTPStatus: http.StatusUnauthorized,
		Headers:    map[string]string{constants.HeaderWWWAuth: "Basic"},
	}
}

// # Authorization Failures (403)

// AccessLevelDenied reports a caller whose role is outside the route's
// configured access levels.
func AccessLevelDenied() *AppError {
	return &AppError{
		Kind:       KindAccessLevelDenied,
		Message:    constants.MsgForbiddenAccess,
		HTTPStatus: http.StatusForbidden,
	}
}

// # Request Shape Failures (422)

// Validation creates a 422 [AppError] with an optional structured detail list.
func Validation(message string, details ...FieldError) *AppError {
	appError := &AppError{
		Kind:       KindValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
	if len(details) > 0 {
		appError.Details = details
	}
	return appError
}

// # Infrastructure Failures

// RateLimited creates a 429 [AppError].
func RateLimited() *AppError {
	return &AppError{
		Kind:       KindRateLimited,
		Message:    constants.MsgTooManyRequests,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Generic wraps any uncategorized failure as a 500. The cause is stored for
// logging but is never sent to the client.
func Generic(cause error) *AppError {
	return &AppError{
		Kind:       KindGeneric,
		Message:    constants.MsgGenericError,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var appError *AppError
	return errors.As(err, &appError)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

// IsKind reports whether err is an [*AppError] of the given kind.
func IsKind(err error, kind Kind) bool {
	appError := As(err)
	return appError != nil && appError.Kind == kind
}
