// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package export turns a carousel into a zip archive of slide frames.
//
// Slides are captured concurrently, in whatever order they finish, and
// then numbered by their position in the carousel. A video slide yields
// its raw media plus a transparent PNG of the text and overlays; every
// other slide yields one PNG with the background baked in. Any failure
// aborts the whole export and no archive is returned.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"caroumate/internal/media"
	"caroumate/internal/metrics"
	"caroumate/internal/models"
	"caroumate/internal/raster"
	"caroumate/internal/render"
	"caroumate/internal/slug"
)

var (
	// ErrNoSlides is returned for a carousel without slides.
	ErrNoSlides = errors.New("carousel has no slides")
	// ErrInProgress is returned while another export for the same owner runs.
	ErrInProgress = errors.New("export already in progress")
	// ErrDelivery wraps a failure to hand a finished archive to the user.
	ErrDelivery = errors.New("archive delivery failed")
)

// Error reports the slide that aborted an export.
type Error struct {
	SlideID uuid.UUID
	Index   int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export slide %d (%s): %v", e.Index+1, e.SlideID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Entry is one named file of the archive.
type Entry struct {
	Name string
	Data []byte
}

// Frame is the captured output of one slide.
type Frame struct {
	SlideID uuid.UUID
	// Media is the raw video payload, nil for image and colour slides.
	Media *media.Payload
	// PNG is the rasterised slide, or only its overlays for video slides.
	PNG []byte
}

// Archive is a finished export.
type Archive struct {
	Name    string
	Data    []byte
	Entries []string
}

// Deliver hands a finished archive to the user. A non-nil error means
// the user did not receive it.
type Deliver func(ctx context.Context, a *Archive) error

// Painter rasterises a visual tree.
type Painter interface {
	PNG(ctx context.Context, t render.Tree) ([]byte, error)
}

// Exporter captures and packs carousels.
type Exporter struct {
	painter     Painter
	loader      raster.Loader
	concurrency int
	onSuccess   func(ctx context.Context, owner string)

	mu      sync.Mutex
	running map[string]bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithConcurrency bounds the number of slides captured at once.
func WithConcurrency(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// OnSuccess registers a hook run exactly once after each archive is
// produced and delivered.
func OnSuccess(fn func(ctx context.Context, owner string)) Option {
	return func(e *Exporter) { e.onSuccess = fn }
}

// New creates an Exporter. loader resolves video payloads.
func New(painter Painter, loader raster.Loader, opts ...Option) *Exporter {
	e := &Exporter{
		painter:     painter,
		loader:      loader,
		concurrency: 4,
		running:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export captures every slide of c, packs the frames and passes the
// archive to deliver, which may be nil. Only one export per owner may run
// at a time, delivery included.
func (e *Exporter) Export(ctx context.Context, owner string, c *models.Carousel, deliver Deliver) (*Archive, error) {
	if c == nil || len(c.Slides) == 0 {
		return nil, ErrNoSlides
	}
	if err := e.acquire(owner); err != nil {
		return nil, err
	}
	defer e.release(owner)

	start := time.Now()
	a, err := e.export(ctx, c)
	metrics.ExportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("error").Inc()
		slog.Error("export failed", "carousel_id", c.ID, "error", err)
		return nil, err
	}
	if deliver != nil {
		if err := deliver(ctx, a); err != nil {
			metrics.ExportsTotal.WithLabelValues("undelivered").Inc()
			slog.Error("archive delivery failed", "carousel_id", c.ID, "archive", a.Name, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
		}
	}
	metrics.ExportsTotal.WithLabelValues("ok").Inc()

	if e.onSuccess != nil {
		e.onSuccess(ctx, owner)
	}
	slog.Info("export complete", "carousel_id", c.ID, "entries", len(a.Entries), "bytes", len(a.Data))
	return a, nil
}

func (e *Exporter) acquire(owner string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[owner] {
		return ErrInProgress
	}
	e.running[owner] = true
	return nil
}

func (e *Exporter) release(owner string) {
	e.mu.Lock()
	delete(e.running, owner)
	e.mu.Unlock()
}

func (e *Exporter) export(ctx context.Context, c *models.Carousel) (*Archive, error) {
	frames, err := e.Capture(ctx, render.Carousel(c, nil))
	if err != nil {
		return nil, err
	}
	return Pack(c, frames)
}

// Capture renders every tree concurrently. Frames are returned in
// completion order.
func (e *Exporter) Capture(ctx context.Context, trees []render.Tree) ([]Frame, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	var mu sync.Mutex
	frames := make([]Frame, 0, len(trees))
	for _, t := range trees {
		g.Go(func() error {
			f, err := e.capture(ctx, t)
			if err != nil {
				return &Error{SlideID: t.SlideID, Index: t.Index, Err: err}
			}
			mu.Lock()
			frames = append(frames, f)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func (e *Exporter) capture(ctx context.Context, t render.Tree) (Frame, error) {
	f := Frame{SlideID: t.SlideID}
	if t.HasVideo() {
		if e.loader == nil {
			return f, errors.New("no loader for video")
		}
		p, err := e.loader.Load(ctx, t.Background.Media)
		if err != nil {
			return f, fmt.Errorf("load video: %w", err)
		}
		f.Media = &p
		t = t.WithoutVideo()
	}
	png, err := e.painter.PNG(ctx, t)
	if err != nil {
		return f, err
	}
	f.PNG = png
	return f, nil
}

// Pack numbers frames by their slide's position in c and writes the
// archive. Frames for slides no longer in c are skipped.
func Pack(c *models.Carousel, frames []Frame) (*Archive, error) {
	index := c.SlideIndex()
	ordered := make([]*Frame, len(c.Slides))
	for i := range frames {
		if n, ok := index[frames[i].SlideID]; ok {
			ordered[n] = &frames[i]
		}
	}

	var entries []Entry
	for i, f := range ordered {
		if f == nil {
			continue
		}
		n := i + 1
		if f.Media != nil {
			entries = append(entries,
				Entry{Name: fmt.Sprintf("slide-%d.%s", n, f.Media.Extension("mp4")), Data: f.Media.Data},
				Entry{Name: fmt.Sprintf("slide-%d_overlay.png", n), Data: f.PNG},
			)
			continue
		}
		entries = append(entries, Entry{Name: fmt.Sprintf("slide-%d.png", n), Data: f.PNG})
	}

	data, err := Zip(entries)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, en := range entries {
		names[i] = en.Name
	}
	return &Archive{Name: FileName(c.Title), Data: data, Entries: names}, nil
}

// FileName derives the archive file name from a carousel title.
func FileName(title string) string {
	return slug.Compact(title, "carousel") + ".zip"
}

// Zip writes entries, in order, into an in-memory archive.
func Zip(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, en := range entries {
		w, err := zw.Create(en.Name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", en.Name, err)
		}
		if _, err := w.Write(en.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", en.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
