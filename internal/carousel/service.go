// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package carousel coordinates generation, editing, history and export
// for each user's working carousel.
//
// Every user has a workspace holding the carousel being edited and the
// history list, newest first. The open carousel and its history entry are
// the same value, so an edit is visible in both; after every mutation the
// history is persisted through the capacity-aware persist layer and,
// when configured, mirrored into the record store.
//
// Generation calls run without holding the workspace lock. The prompt is
// captured when the request starts and the result is applied by slide id
// when it arrives: a result for a deleted slide is dropped, and a result
// for a slide edited in the meantime still wins but is reported as stale.
package carousel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"caroumate/internal/ai"
	"caroumate/internal/export"
	"caroumate/internal/imaging"
	"caroumate/internal/media"
	"caroumate/internal/models"
	"caroumate/internal/persist"
	"caroumate/internal/raster"
	"caroumate/internal/store"
)

var (
	// ErrNoCarousel is returned when an operation needs an open carousel.
	ErrNoCarousel = errors.New("no carousel is open")
	// ErrCarouselNotFound is returned for an unknown history entry.
	ErrCarouselNotFound = errors.New("carousel not found")
	// ErrSlideNotFound is returned for an unknown slide id.
	ErrSlideNotFound = errors.New("slide not found")
	// ErrSlideGone means a slide was deleted while a result for it was
	// being generated. The result is dropped.
	ErrSlideGone = errors.New("slide no longer exists")
	// ErrNotEditable is returned when a slide has no image of its own.
	ErrNotEditable = errors.New("slide has no image to edit")
	// ErrMoveOutOfRange is returned when a slide is already at the edge.
	ErrMoveOutOfRange = errors.New("slide cannot move further")
	// ErrUnknownField is returned for an override name that does not exist.
	ErrUnknownField = errors.New("unknown override field")
	// ErrUnsupportedMedia is returned for uploads that are neither image
	// nor video.
	ErrUnsupportedMedia = errors.New("visual must be an image or a video")
)

// Generator is the generation service boundary.
type Generator interface {
	GenerateSlides(ctx context.Context, req ai.ContentRequest) ([]ai.SlideContent, error)
	GenerateImage(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error)
	GenerateVideo(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error)
	EditImage(ctx context.Context, image media.Payload, prompt string) (media.Payload, error)
	SuggestDesign(ctx context.Context, topic, niche string) (ai.DesignSuggestion, error)
	Assist(ctx context.Context, topic string, kind ai.AssistKind, systemPrompt string) ([]string, error)
	Caption(ctx context.Context, slides []models.SlideData, systemPrompt string) (string, error)
	Thread(ctx context.Context, slides []models.SlideData, systemPrompt string) (string, error)
	RegenerateText(ctx context.Context, topic string, slide models.SlideData, part ai.TextPart) (string, error)
}

var _ Generator = (*ai.Registry)(nil)

// Records mirrors user data into a durable record store. Every call is
// best effort: failures are logged and never fail the operation.
type Records interface {
	SaveCarousel(userID string, c *models.Carousel) error
	DeleteCarousel(userID string, id uuid.UUID) error
	DeleteAllCarousels(userID string) error
	UpsertSettings(userID string, s models.AppSettings) error
	UpsertProfile(userID string, p models.UserProfile) error
	IncrementCounter(userID string, c store.Counter) error
}

// Optimizer re-encodes an uploaded image.
type Optimizer func(data []byte) (media.Payload, error)

// Outcome is the carousel after a slide generation was applied.
type Outcome struct {
	Carousel *models.Carousel `json:"carousel"`
	// Stale is set when the slide was edited after the request started.
	Stale bool `json:"stale,omitempty"`
}

// Service is the orchestrator.
type Service struct {
	gen               Generator
	persist           *persist.Store
	exporter          *export.Exporter
	records           Records
	optimize          Optimizer
	now               func() time.Time
	exportConcurrency int

	mu         sync.Mutex
	workspaces map[string]*workspace
}

// Option configures a Service.
type Option func(*Service)

// WithRecords mirrors carousels, settings, profiles and counters into r.
func WithRecords(r Records) Option {
	return func(s *Service) { s.records = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithOptimizer replaces the libvips image optimiser used for uploads.
func WithOptimizer(o Optimizer) Option {
	return func(s *Service) { s.optimize = o }
}

// WithExportConcurrency bounds parallel frame rasterisation.
func WithExportConcurrency(n int) Option {
	return func(s *Service) { s.exportConcurrency = n }
}

// New creates a Service. painter rasterises frames and loader resolves
// video payloads during export.
func New(gen Generator, p *persist.Store, painter export.Painter, loader raster.Loader, opts ...Option) *Service {
	s := &Service{
		gen:        gen,
		persist:    p,
		optimize:   optimizeImage,
		now:        time.Now,
		workspaces: make(map[string]*workspace),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.exporter = export.New(painter, loader,
		export.WithConcurrency(s.exportConcurrency),
		export.OnSuccess(s.recordDownload))
	return s
}

func optimizeImage(data []byte) (media.Payload, error) {
	img, err := imaging.Optimize(data, imaging.DefaultMaxWidth, imaging.DefaultQuality)
	if err != nil {
		return media.Payload{}, err
	}
	return media.Payload{MediaType: img.ContentType, Data: img.Data}, nil
}

// workspace is one user's editing state.
type workspace struct {
	mu        sync.Mutex
	loaded    bool
	current   *models.Carousel
	history   []*models.Carousel
	revisions map[uuid.UUID]uint64
	inflight  map[uuid.UUID]int
}

// find returns the carousel and slide with the given slide id, looking at
// the open carousel first.
func (ws *workspace) find(id uuid.UUID) (*models.Carousel, *models.SlideData) {
	if ws.current != nil {
		if sl := ws.current.Slide(id); sl != nil {
			return ws.current, sl
		}
	}
	for _, c := range ws.history {
		if sl := c.Slide(id); sl != nil {
			return c, sl
		}
	}
	return nil, nil
}

// reconcile makes the history entry with c's id point at c.
func (ws *workspace) reconcile(c *models.Carousel) {
	for i, h := range ws.history {
		if h.ID == c.ID {
			ws.history[i] = c
			return
		}
	}
}

func (ws *workspace) entry(id uuid.UUID) int {
	for i, h := range ws.history {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (ws *workspace) bump(id uuid.UUID) {
	ws.revisions[id]++
}

func (ws *workspace) generating(id uuid.UUID) bool {
	return ws.inflight[id] > 0
}

// workspace returns the user's workspace, loading the persisted history
// on first use. The returned workspace is locked.
func (s *Service) workspace(ctx context.Context, user string) (*workspace, error) {
	s.mu.Lock()
	ws, ok := s.workspaces[user]
	if !ok {
		ws = &workspace{
			revisions: make(map[uuid.UUID]uint64),
			inflight:  make(map[uuid.UUID]int),
		}
		s.workspaces[user] = ws
	}
	s.mu.Unlock()

	ws.mu.Lock()
	if !ws.loaded {
		history, err := s.persist.LoadHistory(ctx, user)
		if err != nil {
			ws.mu.Unlock()
			return nil, err
		}
		ws.history = history
		ws.loaded = true
	}
	return ws, nil
}

// save persists the history. The persisted prefix becomes the history.
// Only the terminal too-large failure is returned; other failures were
// logged by the persist layer and are abandoned.
func (s *Service) save(ctx context.Context, user string, ws *workspace) error {
	kept, err := s.persist.SaveHistory(context.WithoutCancel(ctx), user, ws.history)
	switch {
	case err == nil:
		ws.history = kept
		return nil
	case errors.Is(err, persist.ErrHistoryTooLarge):
		return err
	}
	return nil
}

// mirror runs fn against the record store when one is configured.
func (s *Service) mirror(user, what string, fn func(Records) error) {
	if s.records == nil {
		return
	}
	if err := fn(s.records); err != nil {
		slog.Warn("record mirror failed", "user_id", user, "record", what, "error", err)
	}
}

// mirrorCarousel stores a sanitised copy of c.
func (s *Service) mirrorCarousel(user string, c *models.Carousel) {
	if s.records == nil || c == nil {
		return
	}
	clean := persist.Sanitize([]*models.Carousel{c})[0]
	s.mirror(user, "carousel", func(r Records) error { return r.SaveCarousel(user, clean) })
}

// credentials loads the user's settings and attaches their key and model
// to ctx.
func (s *Service) credentials(ctx context.Context, user string) (context.Context, models.AppSettings, error) {
	settings, err := s.persist.LoadSettings(ctx, user)
	if err != nil {
		return ctx, settings, err
	}
	ctx = ai.WithCredentials(ctx, ai.Credentials{APIKey: settings.APIKey, Model: string(settings.AIModel)})
	return ctx, settings, nil
}

func (s *Service) recordDownload(ctx context.Context, user string) {
	if _, err := s.persist.IncrementDownloads(context.WithoutCancel(ctx), user); err != nil {
		slog.Error("download counter failed", "user_id", user, "error", err)
	}
	s.mirror(user, "stats", func(r Records) error { return r.IncrementCounter(user, store.CounterDownloads) })
}

// mutate applies fn to the open carousel under the workspace lock,
// persists, and returns a copy of the result.
func (s *Service) mutate(ctx context.Context, user string, fn func(ws *workspace, c *models.Carousel) error) (*models.Carousel, error) {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	if ws.current == nil {
		ws.mu.Unlock()
		return nil, ErrNoCarousel
	}
	c := ws.current
	if err := fn(ws, c); err != nil {
		ws.mu.Unlock()
		return nil, err
	}
	ws.reconcile(c)
	perr := s.save(ctx, user, ws)
	out := c.Clone()
	ws.mu.Unlock()

	s.mirrorCarousel(user, out)
	return out, perr
}

// Current returns a copy of the open carousel.
func (s *Service) Current(ctx context.Context, user string) (*models.Carousel, error) {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	if ws.current == nil {
		return nil, ErrNoCarousel
	}
	return ws.current.Clone(), nil
}
