// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the caroumate API.
// Handlers decode and validate requests, call the carousel service for
// the user named by the request context and encode the result as JSON.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"caroumate/internal/ai"
	"caroumate/internal/carousel"
	"caroumate/internal/export"
	"caroumate/internal/middleware"
	"caroumate/internal/persist"
	"caroumate/internal/render"
	"caroumate/internal/storage"
)

// ArchiveLinker uploads an archive and returns a temporary download link.
// *storage.Client implements it.
type ArchiveLinker interface {
	DeliverArchive(ctx context.Context, userID, name string, data []byte) (string, error)
}

var _ ArchiveLinker = (*storage.Client)(nil)

// API groups the JSON API handlers and their dependencies.
type API struct {
	svc      *carousel.Service
	renderer *render.Renderer
	linker   ArchiveLinker
}

// NewAPI creates the API handler group. linker may be nil if S3 is not
// configured, in which case archives are only streamed.
func NewAPI(svc *carousel.Service, renderer *render.Renderer, linker ArchiveLinker) *API {
	return &API{
		svc:      svc,
		renderer: renderer,
		linker:   linker,
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error    string      `json:"error"`
	Category ai.Category `json:"category,omitempty"`
	HelpURL  string      `json:"help_url,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("encode response failed", "error", err)
	}
}

// writeError maps err onto a status code and writes it as JSON.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *validationError
		expErr *export.Error
		apiErr *ai.APIError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error()})

	case errors.Is(err, ai.ErrAPIKeyNotConfigured):
		f := ai.Classify(err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: f.Message, Category: f.Category})

	case errors.Is(err, carousel.ErrNotEditable),
		errors.Is(err, carousel.ErrMoveOutOfRange),
		errors.Is(err, carousel.ErrUnknownField),
		errors.Is(err, carousel.ErrUnsupportedMedia):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})

	case errors.Is(err, carousel.ErrNoCarousel),
		errors.Is(err, carousel.ErrCarouselNotFound),
		errors.Is(err, carousel.ErrSlideNotFound),
		errors.Is(err, carousel.ErrSlideGone):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})

	case errors.Is(err, export.ErrInProgress):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})

	case errors.As(err, &apiErr),
		errors.Is(err, ai.ErrEmptyResponse),
		errors.Is(err, ai.ErrMalformedResponse),
		errors.Is(err, ai.ErrNoImage),
		errors.Is(err, ai.ErrUnsupported):
		failAI(w, r, err)

	case errors.Is(err, persist.ErrHistoryTooLarge), errors.Is(err, persist.ErrQuotaExceeded):
		writeJSON(w, http.StatusInsufficientStorage, errorBody{Error: err.Error()})

	case errors.Is(err, export.ErrNoSlides), errors.Is(err, export.ErrDelivery), errors.As(err, &expErr):
		slog.Error("export failed", "user_id", middleware.UserFromCtx(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "download failed"})

	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// failAI answers an upstream generation failure with its category.
func failAI(w http.ResponseWriter, r *http.Request, err error) {
	f := ai.Classify(err)
	slog.Warn("generation failed",
		"user_id", middleware.UserFromCtx(r.Context()),
		"category", f.Category,
		"error", err,
	)
	writeJSON(w, http.StatusBadGateway, errorBody{Error: f.Message, Category: f.Category, HelpURL: f.HelpURL})
}

// pathID parses a UUID route parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, invalid("invalid %s", name)
	}
	return id, nil
}

// user returns the caller's id, set by middleware.RequireUser.
func user(r *http.Request) string {
	return middleware.UserFromCtx(r.Context())
}
