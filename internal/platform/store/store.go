// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package store defines the narrow document-store contract the auth core depends on.

# Architecture

The auth pipeline never talks to a database driver directly. It consumes the
four operations below, so the storage engine can be swapped (and faked in
tests) without touching gate, resolver, or tracker code. The canonical
implementation is MongoDB ([Mongo]).
*/
package store

import "context"

// Doc is a schemaless document. It is an alias, not a defined type, so
// literals interoperate directly with driver-level document maps.
type Doc = map[string]any

// Store is the data access contract for the document database.
type Store interface {
	// FindOne returns the first document matching filter, or nil when no
	// document matches. A nil, nil return is the "absent" case, not an error.
	FindOne(ctx context.Context, collection string, filter Doc) (Doc, error)

	// Aggregate runs an aggregation pipeline and returns all resulting
	// documents. An empty result is a valid outcome.
	Aggregate(ctx context.Context, collection string, pipeline []Doc) ([]Doc, error)

	// UpdateOne applies update to the first document matching filter.
	// Matching zero documents is not an error.
	UpdateOne(ctx context.Context, collection string, filter Doc, update Doc) error

	// InsertTimeSeries appends a measurement to a time-series collection.
	// meta carries the indexed dimensions, body the free-form payload.
	InsertTimeSeries(ctx context.Context, collection string, meta Doc, body Doc) error
}
