// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/taibuivan/monova/internal/platform/apperr"
	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/ctxutil"
	"github.com/taibuivan/monova/internal/platform/respond"
)

// Exceptions is the outermost normalization layer of the handler chain.
//
// # Responsibilities
//   - Measure handler latency and attach it to successful responses as the
//     X-Process-Time header (milliseconds, two decimals, string-encoded).
//   - Recover any panic escaping the chain and convert it into the uniform
//     500 FAIL envelope. All expected failures are already written as
//     envelopes by [respond.Error] at their point of origin; this layer is
//     the safety net for everything else.
func Exceptions() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			timedWriter := &timingWriter{ResponseWriter: writer, start: time.Now()}

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}

				// Capture the runtime stack trace for diagnostics.
				stackTrace := make([]byte, 2048)
				length := runtime.Stack(stackTrace, false)
				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "panic_recovered",
					slog.Any("error", recovered),
					slog.String("stack", string(stackTrace[:length])),
				)

				// A handler that already streamed a body cannot be rewritten.
				if timedWriter.wroteHeader {
					return
				}
				respond.Error(timedWriter, request, apperr.Generic(fmt.Errorf("panic: %v", recovered)))
			}()

			next.ServeHTTP(timedWriter, request)
		})
	}
}

// timingWriter injects the X-Process-Time header at the moment the status
// line is committed, since headers cannot be added afterwards.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
	status      int
}

func (writer *timingWriter) WriteHeader(code int) {
	if !writer.wroteHeader {
		writer.wroteHeader = true
		writer.status = code

		// Timing metadata is a success property; failure envelopes carry
		// their correlation tag instead.
		if code < http.StatusBadRequest {
			elapsedMillis := float64(time.Since(writer.start).Microseconds()) / 1000.0
			writer.Header().Set(constants.HeaderXProcessTime, strconv.FormatFloat(elapsedMillis, 'f', 2, 64))
		}
	}
	writer.ResponseWriter.WriteHeader(code)
}

func (writer *timingWriter) Write(body []byte) (int, error) {
	if !writer.wroteHeader {
		writer.WriteHeader(http.StatusOK)
	}
	return writer.ResponseWriter.Write(body)
}
