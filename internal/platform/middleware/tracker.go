// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/ctxutil"
	"github.com/taibuivan/monova/internal/platform/sec"
	"github.com/taibuivan/monova/internal/platform/store"
	"github.com/taibuivan/monova/internal/platform/task"
)

// maxTrackedBody caps how much of a request body the tracker will copy.
// Larger bodies are truncated in the tracking record, never in the request.
const maxTrackedBody = 1 << 20

// mutatingMethods are the request methods whose bodies are captured.
var mutatingMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch}

// Tracker records every request to the time-series tracker collection and
// emits a post-response debug log line.
//
// # Contract
//
// Both side effects are launched, never awaited: the tracking record and the
// response are independent in time, and a slow or failing store can never
// delay or fail the caller's response. The root path is exempt (health
// pollers would flood the collection).
func Tracker(trackingStore store.Store, codec *sec.Codec, spawner *task.Spawner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if shouldSkipTracking(request) {
				next.ServeHTTP(writer, request)
				return
			}

			// 1. Capture the body copy for mutating methods, then hand the
			//    request an untouched replacement reader.
			var bodyCopy []byte
			if slices.Contains(mutatingMethods, request.Method) && request.Body != nil {
				bodyCopy, _ = io.ReadAll(io.LimitReader(request.Body, maxTrackedBody))
				request.Body = io.NopCloser(bytes.NewReader(bodyCopy))
			}

			// 2. Snapshot request facts now; the handler may consume or
			//    mutate the request after this point.
			record := trackingRecord{
				userID:      extractUserID(request, codec),
				ip:          RealIP(request),
				method:      request.Method,
				path:        request.URL.Path,
				queryParams: flattenQuery(request),
				body:        bodyCopy,
			}
			logger := ctxutil.GetLogger(request.Context())

			// 3. Fire the tracking task; it races the handler by design.
			spawner.Go("request_tracker", func(ctx context.Context) {
				trackRequest(ctx, trackingStore, logger, record)
			})

			// 4. Run the handler.
			recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
			next.ServeHTTP(recorder, request)

			// 5. Fire the post-response log task.
			requestURL := request.URL.String()
			headers := redactedHeaders(request.Header)
			status := recorder.status
			spawner.Go("request_logger", func(ctx context.Context) {
				logger.Debug("request_received",
					slog.String("client_ip", record.ip),
					slog.String("url", requestURL),
					slog.String("method", record.method),
					slog.Int("status", status),
					slog.Any("request_headers", headers),
				)
			})
		})
	}
}

// trackingRecord is the immutable snapshot handed to the tracking task.
type trackingRecord struct {
	userID      any
	ip          string
	method      string
	path        string
	queryParams map[string]string
	body        []byte
}

// trackRequest persists one tracking measurement. Failures are logged and
// swallowed; they must never surface to the request that spawned this task.
func trackRequest(ctx context.Context, trackingStore store.Store, logger *slog.Logger, record trackingRecord) {
	meta := store.Doc{
		"user_id":      record.userID,
		"service":      constants.ServiceName,
		"ip":           record.ip,
		"method":       record.method,
		"path":         record.path,
		"query_params": record.queryParams,
	}

	body := store.Doc{}
	if len(record.body) > 0 {
		var parsed any
		if err := json.Unmarshal(record.body, &parsed); err == nil {
			switch masked := maskSensitiveData(parsed).(type) {
			case map[string]any:
				body = masked
			case []any:
				body = store.Doc{"items": masked}
			}
		}
	}

	if err := trackingStore.InsertTimeSeries(ctx, constants.CollectionRequestTracker, meta, body); err != nil {
		logger.Error("request_tracking_failed", slog.String("error", err.Error()))
	}
}

// extractUserID best-effort identifies the caller from a Bearer Authorization
// header. Every decode failure yields an empty ID; errors are swallowed here
// because tracking must work for unauthenticated and garbage requests alike.
func extractUserID(request *http.Request, codec *sec.Codec) any {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	if parts[1] == "" || parts[1] == " " || parts[1] == "null" {
		return ""
	}

	claims, err := codec.Decode(parts[1], false)
	if err != nil {
		return ""
	}
	if userID := claims.UserID(); userID != nil {
		return userID
	}
	return ""
}

// maskSensitiveData replaces sensitive string values with an equal-length run
// of '*'. Masking applies to top-level objects and to objects inside a
// top-level array; other keys pass through untouched.
func maskSensitiveData(data any) any {
	maskDoc := func(doc map[string]any) {
		for key, value := range doc {
			if !slices.Contains(constants.SensitiveBodyFields, key) {
				continue
			}
			if text, ok := value.(string); ok {
				doc[key] = strings.Repeat("*", len(text))
			}
		}
	}

	switch typed := data.(type) {
	case map[string]any:
		maskDoc(typed)
	case []any:
		for _, item := range typed {
			if doc, ok := item.(map[string]any); ok {
				maskDoc(doc)
			}
		}
	}
	return data
}

// flattenQuery reduces multi-valued query parameters to their first value.
func flattenQuery(request *http.Request) map[string]string {
	values := request.URL.Query()
	if len(values) == 0 {
		return nil
	}

	flat := make(map[string]string, len(values))
	for key := range values {
		flat[key] = values.Get(key)
	}
	return flat
}

// redactedHeaders clones the request headers minus the sensitive ones.
func redactedHeaders(header http.Header) map[string]string {
	redacted := make(map[string]string, len(header))
	for key := range header {
		if slices.Contains(constants.SensitiveHeaders, strings.ToLower(key)) {
			continue
		}
		redacted[key] = header.Get(key)
	}
	return redacted
}

// shouldSkipTracking exempts the root path used by uptime pollers.
func shouldSkipTracking(request *http.Request) bool {
	return request.URL.Path == "/"
}
