// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/monova/internal/platform/ctxutil"
)

/*
TestRequestID verifies every request gains a correlation ID, exposed both in
the response header and the request context.
*/
func TestRequestID(t *testing.T) {
	var contextID string
	handler := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		contextID = ctxutil.GetRequestID(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	headerID := recorder.Header().Get("X-Request-Id")
	require.NotEmpty(t, headerID)
	assert.Equal(t, headerID, contextID)
}

/*
TestDocsBasicAuth covers the credential gate on the documentation route.
*/
func TestDocsBasicAuth(t *testing.T) {
	protected := DocsBasicAuth("docs", "s3cret")(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		username string
		password string
		withAuth bool
		status   int
	}{
		{"valid_credentials", "docs", "s3cret", true, http.StatusOK},
		{"wrong_password", "docs", "nope", true, http.StatusUnauthorized},
		{"wrong_username", "admin", "s3cret", true, http.StatusUnauthorized},
		{"missing_credentials", "", "", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/docs", nil)
			if tt.withAuth {
				request.SetBasicAuth(tt.username, tt.password)
			}

			recorder := httptest.NewRecorder()
			protected.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Basic", recorder.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

/*
TestRealIP verifies proxy-aware client address resolution.
*/
func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{"forwarded_single", "203.0.113.7", "10.0.0.1:4321", "203.0.113.7"},
		{"forwarded_chain", "203.0.113.7, 10.0.0.2", "10.0.0.1:4321", "203.0.113.7"},
		{"no_forwarded", "", "192.0.2.9:1234", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				request.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.expected, RealIP(request))
		})
	}
}
