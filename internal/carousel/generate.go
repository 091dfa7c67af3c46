package carousel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"caroumate/internal/ai"
	"caroumate/internal/markdown"
	"caroumate/internal/media"
	"caroumate/internal/metrics"
	"caroumate/internal/models"
	"caroumate/internal/store"
)

// DefaultCategory is used when neither the request nor the profile names
// a niche.
const DefaultCategory = "General"

// GenerateRequest starts a new carousel.
type GenerateRequest struct {
	Topic string
	Niche string
	// Slides requests an exact slide count. Zero lets the model choose.
	Slides int
	// Magic also generates an image for every slide.
	Magic bool
}

// Text is generated copy with its HTML rendering.
type Text struct {
	Text     string   `json:"text"`
	HTML     string   `json:"html"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// Share holds the caption and thread for the open carousel.
type Share struct {
	Caption Text `json:"caption"`
	Thread  Text `json:"thread"`
}

func observe(kind string, err error) {
	metrics.GenerationsTotal.WithLabelValues(kind, metrics.Result(err)).Inc()
}

// Generate plans a new carousel, opens it and prepends it to the history.
func (s *Service) Generate(ctx context.Context, user string, req GenerateRequest) (*models.Carousel, error) {
	ctx, settings, err := s.credentials(ctx, user)
	if err != nil {
		return nil, err
	}

	niche := strings.TrimSpace(req.Niche)
	if niche == "" {
		profile, err := s.persist.LoadProfile(ctx, user)
		if err != nil {
			slog.Warn("profile unavailable", "user_id", user, "error", err)
		}
		if len(profile.Niche) > 0 && profile.Niche[0] != "" {
			niche = profile.Niche[0]
		} else {
			niche = DefaultCategory
		}
	}

	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	prefs := models.DefaultPreferences()
	if ws.current != nil {
		prefs = ws.current.Preferences.Clone()
	}
	ws.mu.Unlock()

	content, err := s.gen.GenerateSlides(ctx, ai.ContentRequest{
		Topic:        req.Topic,
		Niche:        niche,
		Style:        prefs.Style,
		Count:        req.Slides,
		SystemPrompt: settings.SystemPrompt,
	})
	observe("content", err)
	if err != nil {
		return nil, err
	}

	c := &models.Carousel{
		ID:          uuid.New(),
		Title:       req.Topic,
		CreatedAt:   s.now().UTC(),
		Category:    niche,
		Preferences: prefs,
		Slides:      make([]models.SlideData, len(content)),
	}
	for i, sc := range content {
		c.Slides[i] = models.SlideData{
			ID:           uuid.New(),
			Headline:     sc.Headline,
			Body:         sc.Body,
			VisualPrompt: sc.VisualPrompt,
		}
	}

	ws, err = s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	ws.current = c
	ws.history = append([]*models.Carousel{c}, ws.history...)
	perr := s.save(ctx, user, ws)
	out := c.Clone()
	ws.mu.Unlock()

	slog.Info("carousel generated", "user_id", user, "carousel_id", c.ID, "slides", len(c.Slides))
	if _, err := s.persist.IncrementCarousels(context.WithoutCancel(ctx), user); err != nil {
		slog.Error("carousel counter failed", "user_id", user, "error", err)
	}
	s.mirror(user, "stats", func(r Records) error { return r.IncrementCounter(user, store.CounterCarousels) })
	s.mirrorCarousel(user, out)

	if req.Magic {
		withImages, err := s.GenerateAllImages(ctx, user)
		if err != nil {
			return withImages, err
		}
		return withImages, perr
	}
	return out, perr
}

// GenerateAllImages generates an image for every slide of the open
// carousel in order. A failed slide is logged and skipped; a missing key
// stops the pass.
func (s *Service) GenerateAllImages(ctx context.Context, user string) (*models.Carousel, error) {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	if ws.current == nil {
		ws.mu.Unlock()
		return nil, ErrNoCarousel
	}
	ids := make([]uuid.UUID, len(ws.current.Slides))
	for i, sl := range ws.current.Slides {
		ids[i] = sl.ID
	}
	ws.mu.Unlock()

	var last *models.Carousel
	var perr error
	for i, id := range ids {
		out, err := s.GenerateImage(ctx, user, id)
		switch {
		case errors.Is(err, ai.ErrAPIKeyNotConfigured):
			return nil, err
		case errors.Is(err, ErrSlideGone), errors.Is(err, ErrSlideNotFound):
			continue
		case err != nil && out == nil:
			slog.Warn("slide image failed, continuing", "user_id", user, "slide_id", id, "index", i, "error", err)
			continue
		}
		if err != nil {
			perr = err
		}
		last = out.Carousel
	}

	if last == nil {
		return s.Current(ctx, user)
	}
	return last, perr
}

// slideJob is what a slide generation captured when it started.
type slideJob struct {
	slide    models.SlideData
	topic    string
	ratio    models.AspectRatio
	revision uint64
}

// runSlide captures the slide, runs produce without the workspace lock and
// applies its result to the slide if it still exists.
func (s *Service) runSlide(ctx context.Context, user string, id uuid.UUID, kind string,
	produce func(ctx context.Context, job slideJob) (func(*models.SlideData), error)) (*Outcome, error) {
	ctx, _, err := s.credentials(ctx, user)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	c, sl := ws.find(id)
	if sl == nil {
		ws.mu.Unlock()
		return nil, ErrSlideNotFound
	}
	job := slideJob{
		slide:    sl.Clone(),
		topic:    c.Title,
		ratio:    c.Preferences.AspectRatio,
		revision: ws.revisions[id],
	}
	ws.inflight[id]++
	ws.mu.Unlock()

	apply, err := produce(ctx, job)
	observe(kind, err)

	ws.mu.Lock()
	if ws.inflight[id]--; ws.inflight[id] <= 0 {
		delete(ws.inflight, id)
	}
	if err != nil {
		ws.mu.Unlock()
		return nil, err
	}

	c, sl = ws.find(id)
	if sl == nil {
		ws.mu.Unlock()
		slog.Info("dropping result for deleted slide", "user_id", user, "slide_id", id, "kind", kind, "stale", true)
		return nil, ErrSlideGone
	}
	stale := ws.revisions[id] != job.revision
	if stale {
		slog.Info("result overwrites a newer edit", "user_id", user, "slide_id", id, "kind", kind, "stale", true)
	}
	apply(sl)
	ws.bump(id)
	ws.reconcile(c)
	perr := s.save(ctx, user, ws)
	out := &Outcome{Carousel: c.Clone(), Stale: stale}
	ws.mu.Unlock()

	s.mirrorCarousel(user, out.Carousel)
	return out, perr
}

func setVisual(p media.Payload) func(*models.SlideData) {
	uri := media.EncodeDataURI(p.MediaType, p.Data)
	return func(sl *models.SlideData) { sl.BackgroundImage = &uri }
}

// GenerateImage generates the slide's image from its visual prompt.
func (s *Service) GenerateImage(ctx context.Context, user string, slideID uuid.UUID) (*Outcome, error) {
	return s.runSlide(ctx, user, slideID, "image", func(ctx context.Context, job slideJob) (func(*models.SlideData), error) {
		p, err := s.gen.GenerateImage(ctx, job.slide.VisualPrompt, job.ratio)
		if err != nil {
			return nil, err
		}
		return setVisual(p), nil
	})
}

// GenerateVideo generates a short muted clip from the slide's visual prompt.
func (s *Service) GenerateVideo(ctx context.Context, user string, slideID uuid.UUID) (*Outcome, error) {
	return s.runSlide(ctx, user, slideID, "video", func(ctx context.Context, job slideJob) (func(*models.SlideData), error) {
		p, err := s.gen.GenerateVideo(ctx, job.slide.VisualPrompt, job.ratio)
		if err != nil {
			return nil, err
		}
		if p.MediaType == "" || !strings.HasPrefix(p.MediaType, "video/") {
			p.MediaType = "video/mp4"
		}
		return setVisual(p), nil
	})
}

// EditImage transforms the slide's own image according to prompt.
func (s *Service) EditImage(ctx context.Context, user string, slideID uuid.UUID, prompt string) (*Outcome, error) {
	return s.runSlide(ctx, user, slideID, "edit", func(ctx context.Context, job slideJob) (func(*models.SlideData), error) {
		bg := job.slide.BackgroundImage
		if bg == nil || !strings.HasPrefix(*bg, "data:image") {
			return nil, ErrNotEditable
		}
		img, err := media.ParseDataURI(*bg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotEditable, err)
		}
		p, err := s.gen.EditImage(ctx, img, prompt)
		if err != nil {
			return nil, err
		}
		return setVisual(p), nil
	})
}

// RegenerateContent rewrites the slide's headline or body.
func (s *Service) RegenerateContent(ctx context.Context, user string, slideID uuid.UUID, part ai.TextPart) (*Outcome, error) {
	return s.runSlide(ctx, user, slideID, "regenerate", func(ctx context.Context, job slideJob) (func(*models.SlideData), error) {
		text, err := s.gen.RegenerateText(ctx, job.topic, job.slide, part)
		if err != nil {
			return nil, err
		}
		return func(sl *models.SlideData) {
			if part == ai.PartHeadline {
				sl.Headline = text
			} else {
				sl.Body = text
			}
		}, nil
	})
}

// snapshot returns a copy of the open carousel with the user's settings
// attached to ctx.
func (s *Service) snapshot(ctx context.Context, user string) (context.Context, models.AppSettings, *models.Carousel, error) {
	ctx, settings, err := s.credentials(ctx, user)
	if err != nil {
		return ctx, settings, nil, err
	}
	c, err := s.Current(ctx, user)
	return ctx, settings, c, err
}

// Caption writes a post caption for the open carousel.
func (s *Service) Caption(ctx context.Context, user string) (*Text, error) {
	ctx, settings, c, err := s.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.caption(ctx, settings, c)
}

// Thread converts the open carousel into a numbered thread.
func (s *Service) Thread(ctx context.Context, user string) (*Text, error) {
	ctx, settings, c, err := s.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.thread(ctx, settings, c)
}

// Share generates the caption and the thread concurrently.
func (s *Service) Share(ctx context.Context, user string) (*Share, error) {
	ctx, settings, c, err := s.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}

	var out Share
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.caption(gctx, settings, c)
		if err != nil {
			return err
		}
		out.Caption = *t
		return nil
	})
	g.Go(func() error {
		t, err := s.thread(gctx, settings, c)
		if err != nil {
			return err
		}
		out.Thread = *t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) caption(ctx context.Context, settings models.AppSettings, c *models.Carousel) (*Text, error) {
	text, err := s.gen.Caption(ctx, c.Slides, settings.SystemPrompt)
	observe("caption", err)
	if err != nil {
		return nil, err
	}
	return toText(text)
}

func (s *Service) thread(ctx context.Context, settings models.AppSettings, c *models.Carousel) (*Text, error) {
	text, err := s.gen.Thread(ctx, c.Slides, settings.SystemPrompt)
	observe("thread", err)
	if err != nil {
		return nil, err
	}
	return toText(text)
}

func toText(text string) (*Text, error) {
	html, err := markdown.ToHTML(text)
	if err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	return &Text{Text: text, HTML: html, Hashtags: markdown.Hashtags(text)}, nil
}

// Assist suggests five hooks or calls to action. An empty topic uses the
// open carousel's title.
func (s *Service) Assist(ctx context.Context, user, topic string, kind ai.AssistKind) ([]string, error) {
	ctx, settings, err := s.credentials(ctx, user)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(topic) == "" {
		c, err := s.Current(ctx, user)
		if err != nil {
			return nil, err
		}
		topic = c.Title
	}
	ideas, err := s.gen.Assist(ctx, topic, kind, settings.SystemPrompt)
	observe("assist", err)
	return ideas, err
}

// DesignSuggestion asks for a theme for the open carousel and applies it.
func (s *Service) DesignSuggestion(ctx context.Context, user string) (*models.Carousel, error) {
	ctx, _, c, err := s.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}
	sug, err := s.gen.SuggestDesign(ctx, c.Title, c.Category)
	observe("design", err)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, user, func(_ *workspace, cur *models.Carousel) error {
		if cur.ID != c.ID {
			return ErrNoCarousel
		}
		if sug.BackgroundColor != "" {
			cur.Preferences.BackgroundColor = sug.BackgroundColor
		}
		if sug.FontColor != "" {
			cur.Preferences.FontColor = sug.FontColor
		}
		cur.Preferences.Font = sug.Font
		cur.Preferences.Style = sug.Style
		return nil
	})
}
