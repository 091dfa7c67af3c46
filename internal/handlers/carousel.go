package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"caroumate/internal/ai"
	"caroumate/internal/carousel"
	"caroumate/internal/export"
	"caroumate/internal/models"
	"caroumate/internal/storage"
	"caroumate/internal/style"
)

// textView is the JSON form of a resolved headline or body style.
type textView struct {
	Color      string                `json:"color"`
	FontWeight models.FontWeight     `json:"font_weight"`
	FontStyle  models.FontStyle      `json:"font_style"`
	Decoration models.TextDecoration `json:"text_decoration"`
	Align      models.TextAlign      `json:"text_align"`
	Transform  models.TextTransform  `json:"text_transform"`
	FontSize   float64               `json:"font_size"`
	Stroke     models.TextStroke     `json:"text_stroke"`
}

// styleView is the effective style of one slide.
type styleView struct {
	SlideID           uuid.UUID               `json:"slide_id"`
	BackgroundColor   string                  `json:"background_color"`
	FontColor         string                  `json:"font_color"`
	BackgroundImage   string                  `json:"background_image,omitempty"`
	BackgroundOpacity float64                 `json:"background_opacity"`
	Style             models.DesignStyle      `json:"style"`
	Font              models.FontChoice       `json:"font"`
	AspectRatio       models.AspectRatio      `json:"aspect_ratio"`
	Headline          textView                `json:"headline"`
	Body              textView                `json:"body"`
	BrandingText      string                  `json:"branding_text,omitempty"`
	Branding          models.OverlayStyle     `json:"branding_style"`
	SlideNumber       models.SlideNumberStyle `json:"slide_number_style"`
}

// carouselView is a carousel with the resolved style of every slide.
type carouselView struct {
	*models.Carousel
	Styles []styleView `json:"styles"`
	Stale  bool        `json:"stale,omitempty"`
}

func toText(t style.ResolvedText) textView {
	return textView{
		Color:      t.Color,
		FontWeight: t.FontWeight,
		FontStyle:  t.FontStyle,
		Decoration: t.Decoration,
		Align:      t.Align,
		Transform:  t.Transform,
		FontSize:   t.FontSize,
		Stroke:     t.Stroke,
	}
}

func viewOf(c *models.Carousel) carouselView {
	v := carouselView{Carousel: c, Styles: make([]styleView, len(c.Slides))}
	for i, sl := range c.Slides {
		r := style.Resolve(c.Preferences, sl, nil)
		v.Styles[i] = styleView{
			SlideID:           sl.ID,
			BackgroundColor:   r.BackgroundColor,
			FontColor:         r.FontColor,
			BackgroundImage:   r.BackgroundImage,
			BackgroundOpacity: r.BackgroundOpacity,
			Style:             r.Style,
			Font:              r.Font,
			AspectRatio:       r.AspectRatio,
			Headline:          toText(r.Headline),
			Body:              toText(r.Body),
			BrandingText:      r.BrandingText,
			Branding:          r.Branding,
			SlideNumber:       r.SlideNumber,
		}
	}
	return v
}

// respond writes the carousel returned by a service call.
func respond(w http.ResponseWriter, r *http.Request, c *models.Carousel, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

// respondOutcome writes the carousel after a slide generation.
func respondOutcome(w http.ResponseWriter, r *http.Request, o *carousel.Outcome, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	v := viewOf(o.Carousel)
	v.Stale = o.Stale
	writeJSON(w, http.StatusOK, v)
}

// Current returns the open carousel.
func (a *API) Current(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.Current(r.Context(), user(r))
	respond(w, r, c, err)
}

// Generate creates a new carousel from a topic and opens it.
func (a *API) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.Generate(r.Context(), user(r), carousel.GenerateRequest{
		Topic:  req.Topic,
		Niche:  req.Niche,
		Slides: req.Slides,
		Magic:  req.Magic,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(c))
}

// Preview renders the open carousel as an HTML page.
func (a *API) Preview(w http.ResponseWriter, r *http.Request) {
	c, trees, err := a.svc.Preview(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.renderer.Page(w, c.Title, trees)
}

// UpdatePreferences merges a patch into the carousel preferences.
func (a *API) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(w, r, &preferencesPatch{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.UpdatePreferences(r.Context(), user(r), patch)
	respond(w, r, c, err)
}

// ApplyBrandKit copies the saved brand kit into the open carousel.
func (a *API) ApplyBrandKit(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.ApplyBrandKit(r.Context(), user(r))
	respond(w, r, c, err)
}

// DesignSuggestion asks the model for a theme and applies it.
func (a *API) DesignSuggestion(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.DesignSuggestion(r.Context(), user(r))
	respond(w, r, c, err)
}

// GenerateAllImages generates a visual for every slide.
func (a *API) GenerateAllImages(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.GenerateAllImages(r.Context(), user(r))
	respond(w, r, c, err)
}

// Caption writes a social caption for the open carousel.
func (a *API) Caption(w http.ResponseWriter, r *http.Request) {
	t, err := a.svc.Caption(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Thread writes a thread for the open carousel.
func (a *API) Thread(w http.ResponseWriter, r *http.Request) {
	t, err := a.svc.Thread(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Share writes the caption and the thread together.
func (a *API) Share(w http.ResponseWriter, r *http.Request) {
	s, err := a.svc.Share(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Assist suggests hooks or calls to action.
func (a *API) Assist(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ideas, err := a.svc.Assist(r.Context(), user(r), req.Topic, ai.AssistKind(req.Kind))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": ideas})
}

// Export streams the open carousel as a zip archive, or uploads it and
// returns a temporary link when ?deliver=link is set. The download only
// counts once the archive has been written or its link signed.
func (a *API) Export(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("deliver") == "link"
	if link && a.linker == nil {
		writeError(w, r, invalid("link delivery is not configured"))
		return
	}

	if link {
		var url string
		archive, err := a.svc.Export(r.Context(), user(r), func(ctx context.Context, arc *export.Archive) error {
			var err error
			url, err = a.linker.DeliverArchive(ctx, user(r), arc.Name, arc.Data)
			return err
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"url":        url,
			"name":       archive.Name,
			"expires_in": int(storage.LinkExpiry.Seconds()),
		})
		return
	}

	var started bool
	_, err := a.svc.Export(r.Context(), user(r), func(_ context.Context, arc *export.Archive) error {
		started = true
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", arc.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(arc.Data)))
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(arc.Data)
		return err
	})
	if err != nil && !started {
		writeError(w, r, err)
	}
}

// Close leaves the open carousel.
func (a *API) Close(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Close(r.Context(), user(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadCarouselVisual sets the carousel-wide background visual.
func (a *API) UploadCarouselVisual(w http.ResponseWriter, r *http.Request) {
	a.uploadVisual(w, r, nil)
}

// RemoveCarouselVisual clears the carousel-wide background visual.
func (a *API) RemoveCarouselVisual(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.RemoveVisual(r.Context(), user(r), nil)
	respond(w, r, c, err)
}

// uploadVisual reads the "file" part of a multipart upload.
func (a *API) uploadVisual(w http.ResponseWriter, r *http.Request, slideID *uuid.UUID) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, r, invalid("file too large or invalid form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, invalid("no file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, invalid("read upload: %v", err))
		return
	}
	if len(data) == 0 {
		writeError(w, r, invalid("empty file"))
		return
	}

	c, err := a.svc.UploadVisual(r.Context(), user(r), slideID, data)
	respond(w, r, c, err)
}
