// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cph provides the competitive programming helper problem catalogue.

It is the first business domain mounted behind the authentication gates and
serves curated problem documents straight from the document store.
*/
package cph

import (
	"context"
	"fmt"

	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/store"
)

// Service implements the problem catalogue business logic.
type Service struct {
	documents store.Store
}

// NewService constructs a new catalogue [Service].
func NewService(documents store.Store) *Service {
	return &Service{documents: documents}
}

// ListProblems returns every non-deleted problem in the catalogue, newest
// first.
func (service *Service) ListProblems(ctx context.Context) ([]store.Doc, error) {
	pipeline := []store.Doc{
		{"$match": store.Doc{"is_deleted": store.Doc{"$ne": true}}},
		{"$sort": store.Doc{"created_at": -1}},
	}

	problems, err := service.documents.Aggregate(ctx, constants.CollectionCphProblems, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cph: list problems: %w", err)
	}

	if problems == nil {
		problems = []store.Doc{}
	}
	return problems, nil
}
