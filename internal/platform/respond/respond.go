// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every success is wrapped in the SUCCESS envelope and every failure in the
// FAIL envelope, so clients parse one predictable shape. It is also the
// single place where an error Kind is pattern-matched into an HTTP status:
// components return [apperr.AppError] values and never pick status codes
// themselves.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/taibuivan/monova/internal/platform/apperr"
	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/ctxutil"
)

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Data   any    `json:"data"`
	Status string `json:"status"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Status    string    `json:"status"`
	ErrorData ErrorData `json:"errorData"`
}

// ErrorData is the failure payload inside [ErrorEnvelope].
type ErrorData struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	Detail    any    `json:"detail,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{
		Data:   data,
		Status: constants.MsgResponseStatusOK,
	})
}

// Error converts any Go error into the standardized FAIL envelope.
//
// # Flow
//  1. Extract the [*apperr.AppError]; anything else becomes a 500 Generic.
//  2. Log the failure with its correlation tag and cause.
//  3. Attach any headers carried on the error (WWW-Authenticate etc).
//  4. Write the envelope; the tag is embedded in the client message.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.As(err)
	if appError == nil {
		appError = apperr.Generic(err)
	}

	logger := ctxutil.GetLogger(request.Context())
	logAttrs := []any{
		slog.String("kind", string(appError.Kind)),
		slog.String("tag", appError.Tag()),
		slog.Int("status", appError.HTTPStatus),
	}
	if appError.Cause != nil {
		logAttrs = append(logAttrs, slog.String("cause", appError.Cause.Error()))
	}

	if appError.HTTPStatus >= http.StatusInternalServerError {
		logger.ErrorContext(request.Context(), "request_failed", logAttrs...)
	} else {
		logger.WarnContext(request.Context(), "request_failed", logAttrs...)
	}

	for key, value := range appError.Headers {
		writer.Header().Set(key, value)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Status: constants.MsgResponseStatusError,
		ErrorData: ErrorData{
			ErrorCode: appError.HTTPStatus,
			Message:   appError.TaggedMessage(),
			Detail:    appError.Details,
		},
	})
}
