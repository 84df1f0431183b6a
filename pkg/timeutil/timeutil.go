// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package timeutil provides millisecond-epoch helpers.
//
// The document store keeps every timestamp as a UTC Unix epoch in
// milliseconds; these helpers keep that convention in one place.
package timeutil

import "time"

// NowMillis returns the current UTC Unix timestamp in milliseconds.
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// FutureMillis returns the Unix timestamp in milliseconds of now + delta.
func FutureMillis(delta time.Duration) int64 {
	return time.Now().UTC().Add(delta).UnixMilli()
}

// HasExpired reports whether the given millisecond epoch has already passed.
func HasExpired(expiryMillis int64) bool {
	return expiryMillis <= NowMillis()
}
