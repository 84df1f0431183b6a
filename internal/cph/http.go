// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cph

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/monova/internal/platform/respond"
)

// Handler implements the HTTP layer for the problem catalogue.
type Handler struct {
	catalogueService *Service
}

// NewHandler constructs a new catalogue [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{catalogueService: service}
}

// Routes returns a [chi.Router] configured with the catalogue endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/problems", handler.listProblems)

	return router
}

/*
GET /cph/problems.

Description: Retrieves the full problem catalogue.

Response:
  - 200: []Doc: Problem documents, newest first
  - 401: Authentication required
*/
func (handler *Handler) listProblems(writer http.ResponseWriter, request *http.Request) {
	problems, err := handler.catalogueService.ListProblems(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, problems)
}
