// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestExceptions_ProcessTimeHeader verifies successful responses carry the
elapsed time header formatted as milliseconds with two decimals.
*/
func TestExceptions_ProcessTimeHeader(t *testing.T) {
	handler := Exceptions()(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	header := recorder.Header().Get("X-Process-Time")
	require.NotEmpty(t, header)

	elapsed, err := strconv.ParseFloat(header, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 0.0)
	assert.Regexp(t, `^\d+\.\d{2}$`, header)
}

/*
TestExceptions_NoHeaderOnFailure verifies error responses omit the timing
header.
*/
func TestExceptions_NoHeaderOnFailure(t *testing.T) {
	handler := Exceptions()(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/cph/problems", nil))

	assert.Empty(t, recorder.Header().Get("X-Process-Time"))
}

/*
TestExceptions_PanicRecovery verifies a panicking handler yields the
standard FAIL envelope instead of a dropped connection.
*/
func TestExceptions_PanicRecovery(t *testing.T) {
	handler := Exceptions()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil pointer somewhere deep")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/cph/problems", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "FAIL", body["status"])

	errorData := body["errorData"].(map[string]any)
	message, _ := errorData["message"].(string)
	assert.Contains(t, message, "Something went wrong")
	assert.NotContains(t, message, "nil pointer")
}
