package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"caroumate/internal/ai"
	"caroumate/internal/carousel"
)

// UpdateSlide merges a patch into one slide. A null member clears the
// slide's override.
func (a *API) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := decodePatch(w, r, &slidePatch{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.UpdateSlide(r.Context(), user(r), id, patch)
	respond(w, r, c, err)
}

// MoveSlide swaps a slide with its left or right neighbour.
func (a *API) MoveSlide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.MoveSlide(r.Context(), user(r), id, carousel.Direction(req.Direction))
	respond(w, r, c, err)
}

// GenerateImage generates a background image from the slide's visual prompt.
func (a *API) GenerateImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := a.svc.GenerateImage(r.Context(), user(r), id)
	respondOutcome(w, r, o, err)
}

// GenerateVideo generates a background video from the slide's visual prompt.
func (a *API) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := a.svc.GenerateVideo(r.Context(), user(r), id)
	respondOutcome(w, r, o, err)
}

// EditImage changes a slide's own image following a prompt.
func (a *API) EditImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := a.svc.EditImage(r.Context(), user(r), id, req.Prompt)
	respondOutcome(w, r, o, err)
}

// RegenerateContent rewrites the headline or body of a slide.
func (a *API) RegenerateContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req regenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := a.svc.RegenerateContent(r.Context(), user(r), id, ai.TextPart(req.Part))
	respondOutcome(w, r, o, err)
}

// UploadSlideVisual sets the slide's own background visual.
func (a *API) UploadSlideVisual(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.uploadVisual(w, r, &id)
}

// RemoveSlideVisual clears the slide's own background visual.
func (a *API) RemoveSlideVisual(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.RemoveVisual(r.Context(), user(r), &id)
	respond(w, r, c, err)
}

// ClearOverrides resets one override on every slide.
func (a *API) ClearOverrides(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.ClearSlideOverrides(r.Context(), user(r), chi.URLParam(r, "field"))
	respond(w, r, c, err)
}
