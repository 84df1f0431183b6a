// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package task provides the fire-and-forget background executor used by the
request path for side effects (last-active touches, request tracking,
post-response logging).

# Contract

A spawned task can never affect the request that launched it: its context is
detached from the request context, its panics are recovered and logged, and
its errors are the task's own responsibility to log. The spawner only tracks
liveness so shutdown can drain in-flight work.
*/
package task

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/taibuivan/monova/internal/platform/constants"
)

// Spawner launches detached background tasks.
type Spawner struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewSpawner creates a Spawner logging through the given logger.
func NewSpawner(logger *slog.Logger) *Spawner {
	return &Spawner{logger: logger}
}

// Go runs fn on its own goroutine with a detached, deadline-bound context.
//
// # Parameters
//   - name: Stable task name used in logs.
//   - fn: The unit of work. It must handle its own errors; anything it
//     panics with is recovered here and logged, never propagated.
func (s *Spawner) Go(name string, fn func(ctx context.Context)) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer func() {
			if recovered := recover(); recovered != nil {
				stackTrace := make([]byte, 2048)
				length := runtime.Stack(stackTrace, false)
				s.logger.Error("background_task_panic",
					slog.String("task", name),
					slog.Any("error", recovered),
					slog.String("stack", string(stackTrace[:length])),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), constants.BackgroundTaskTimeout)
		defer cancel()

		fn(ctx)
	}()
}

// Drain blocks until all in-flight tasks complete or the timeout elapses.
// It reports whether the drain finished cleanly.
func (s *Spawner) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		s.logger.Warn("background_task_drain_timeout", slog.Duration("timeout", timeout))
		return false
	}
}
