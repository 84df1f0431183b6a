// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// # Time-Series Layout

const (
	// timeSeriesTimeField is the measurement timestamp field of every
	// time-series collection this service writes.
	timeSeriesTimeField = "timestamp"

	// timeSeriesMetaField groups measurements by their dimensions (user, ip,
	// endpoint) for efficient bucketing.
	timeSeriesMetaField = "metadata"
)

// Mongo implements [Store] on top of a MongoDB database handle.
type Mongo struct {
	database *mongo.Database
}

// NewMongo creates the MongoDB implementation of [Store].
func NewMongo(database *mongo.Database) *Mongo {
	return &Mongo{database: database}
}

// FindOne returns the first matching document, or nil when absent.
func (m *Mongo) FindOne(ctx context.Context, collection string, filter Doc) (Doc, error) {
	var document Doc
	err := m.database.Collection(collection).FindOne(ctx, filter).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find_one on %s: %w", collection, err)
	}
	return document, nil
}

// Aggregate runs the pipeline and drains the cursor into memory.
//
// Pipelines in this service are bounded joins (token -> identity, endpoint ->
// permission rows), so full materialization is safe.
func (m *Mongo) Aggregate(ctx context.Context, collection string, pipeline []Doc) ([]Doc, error) {
	cursor, err := m.database.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("store: aggregate on %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var documents []Doc
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("store: aggregate cursor on %s: %w", collection, err)
	}
	return documents, nil
}

// UpdateOne applies update to the first document matching filter.
func (m *Mongo) UpdateOne(ctx context.Context, collection string, filter Doc, update Doc) error {
	if _, err := m.database.Collection(collection).UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("store: update_one on %s: %w", collection, err)
	}
	return nil
}

// InsertTimeSeries appends a measurement document. The body fields are laid
// flat next to the timestamp and metadata so dashboards can query them
// without an extra unwrapping step.
func (m *Mongo) InsertTimeSeries(ctx context.Context, collection string, meta Doc, body Doc) error {
	document := Doc{
		timeSeriesTimeField: time.Now().UTC(),
		timeSeriesMetaField: meta,
	}
	for key, value := range body {
		if key == timeSeriesTimeField || key == timeSeriesMetaField {
			continue
		}
		document[key] = value
	}

	if _, err := m.database.Collection(collection).InsertOne(ctx, document); err != nil {
		return fmt.Errorf("store: insert_time_series on %s: %w", collection, err)
	}
	return nil
}
