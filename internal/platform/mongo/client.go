// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mongo provides a managed MongoDB client for the Monova application.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It manages the physical
// database connection pool and the one-off collection bootstrap (time-series
// creation); the data access contract itself lives in the store package.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Opinionated client settings for the Monova workload.
const (
	// maxPoolSize is the maximum number of pooled connections.
	maxPoolSize = 25
	// minPoolSize keeps a warm set of connections to avoid cold-start latency.
	minPoolSize = 5
	// connectTimeout is the maximum time allowed to establish a connection.
	connectTimeout = 5 * time.Second
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
	// serverSelectionTimeout bounds topology discovery on startup.
	serverSelectionTimeout = 5 * time.Second

	// namespaceExistsCode is the server error code returned when a
	// collection we try to create is already present.
	namespaceExistsCode = 48
)

// NewClient creates and validates a new MongoDB client.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - uri: A mongodb:// connection URI.
//   - logger: Structured logger for connection events.
func NewClient(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetMinPoolSize(minPoolSize).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to connect: %w", err)
	}

	// Validate that we can actually reach the database.
	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("mongo client connected",
		slog.Int("max_pool_size", maxPoolSize),
	)

	return client, nil
}

// Ping verifies that the MongoDB client is healthy.
func Ping(ctx context.Context, client *mongo.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo: ping failed: %w", err)
	}

	return nil
}

// EnsureTimeSeries creates a time-series collection if it does not exist yet.
//
// The call is idempotent: an already existing namespace is not an error, so
// it can run unconditionally on every startup.
func EnsureTimeSeries(ctx context.Context, database *mongo.Database, collection string, logger *slog.Logger) error {
	createOptions := options.CreateCollection().SetTimeSeriesOptions(
		options.TimeSeries().
			SetTimeField("timestamp").
			SetMetaField("metadata"),
	)

	err := database.CreateCollection(ctx, collection, createOptions)
	if err != nil {
		var commandError mongo.CommandError
		if errors.As(err, &commandError) && commandError.Code == namespaceExistsCode {
			return nil
		}
		return fmt.Errorf("mongo: create time-series %s: %w", collection, err)
	}

	logger.Info("time-series collection created", slog.String("collection", collection))
	return nil
}
