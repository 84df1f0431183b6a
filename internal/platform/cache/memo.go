// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides an in-memory memoization cache for rarely-changing
database lookups (permission rows, constants-like configuration).

# Architecture

The cache is an explicit component constructed once at process start and
injected into its consumers; there is no package-level singleton. Under
concurrent access it guarantees at most one computation in flight per key,
and every concurrent caller of the same key receives the identical result.
*/
package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo caches computed values by string key forever.
//
// # Concurrency
//
// Reads go through a RWMutex-guarded map; misses are funneled through a
// singleflight group so concurrent misses on the same key run the compute
// function exactly once. Failed computations are not cached, matching the
// semantics of retry-on-next-call.
type Memo struct {
	group   singleflight.Group
	mu      sync.RWMutex
	results map[string]any
}

// NewMemo creates an empty Memo.
func NewMemo() *Memo {
	return &Memo{results: make(map[string]any)}
}

// Do returns the cached value for key, computing it via compute on first use.
func (m *Memo) Do(key string, compute func() (any, error)) (any, error) {
	// Fast path: already computed.
	m.mu.RLock()
	if value, ok := m.results[key]; ok {
		m.mu.RUnlock()
		return value, nil
	}
	m.mu.RUnlock()

	value, err, _ := m.group.Do(key, func() (any, error) {
		// A concurrent caller may have stored the value while this call
		// waited on the flight group.
		m.mu.RLock()
		if value, ok := m.results[key]; ok {
			m.mu.RUnlock()
			return value, nil
		}
		m.mu.RUnlock()

		value, err := compute()
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.results[key] = value
		m.mu.Unlock()
		return value, nil
	})
	return value, err
}

// Forget drops the cached value for key so the next Do recomputes it.
func (m *Memo) Forget(key string) {
	m.mu.Lock()
	delete(m.results, key)
	m.mu.Unlock()
	m.group.Forget(key)
}
