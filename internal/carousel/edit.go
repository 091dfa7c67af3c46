package carousel

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"caroumate/internal/media"
	"caroumate/internal/models"
	"caroumate/internal/style"
)

// Direction moves a slide within the carousel.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// UpdateSlide applies a JSON merge patch to a slide of the open carousel.
// A null member clears the override. The slide id cannot change.
func (s *Service) UpdateSlide(ctx context.Context, user string, slideID uuid.UUID, patch []byte) (*models.Carousel, error) {
	return s.mutate(ctx, user, func(ws *workspace, c *models.Carousel) error {
		sl := c.Slide(slideID)
		if sl == nil {
			return ErrSlideNotFound
		}
		next := sl.Clone()
		if err := models.MergePatch(&next, patch); err != nil {
			return err
		}
		next.ID = slideID
		*sl = next
		ws.bump(slideID)
		return nil
	})
}

// UpdatePreferences applies a JSON merge patch to the carousel preferences.
func (s *Service) UpdatePreferences(ctx context.Context, user string, patch []byte) (*models.Carousel, error) {
	return s.mutate(ctx, user, func(_ *workspace, c *models.Carousel) error {
		next := c.Preferences.Clone()
		if err := models.MergePatch(&next, patch); err != nil {
			return err
		}
		next.Normalize()
		c.Preferences = next
		return nil
	})
}

// clearers reset one per-slide override, keyed by its JSON name.
var clearers = map[string]func(*models.SlideData){
	"background_color":   func(sl *models.SlideData) { sl.BackgroundColor = nil },
	"font_color":         func(sl *models.SlideData) { sl.FontColor = nil },
	"background_image":   func(sl *models.SlideData) { sl.BackgroundImage = nil },
	"background_opacity": func(sl *models.SlideData) { sl.BackgroundOpacity = nil },
	"headline_style":     func(sl *models.SlideData) { sl.HeadlineStyle = nil },
	"body_style":         func(sl *models.SlideData) { sl.BodyStyle = nil },
	"headline_color":     func(sl *models.SlideData) { sl.HeadlineColor = nil },
	"body_color":         func(sl *models.SlideData) { sl.BodyColor = nil },
}

// ClearSlideOverrides clears the named override on every slide so the
// carousel-level value applies again.
func (s *Service) ClearSlideOverrides(ctx context.Context, user, field string) (*models.Carousel, error) {
	reset, ok := clearers[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return s.mutate(ctx, user, func(ws *workspace, c *models.Carousel) error {
		for i := range c.Slides {
			reset(&c.Slides[i])
			ws.bump(c.Slides[i].ID)
		}
		return nil
	})
}

// MoveSlide swaps a slide with its neighbour.
func (s *Service) MoveSlide(ctx context.Context, user string, slideID uuid.UUID, dir Direction) (*models.Carousel, error) {
	return s.mutate(ctx, user, func(_ *workspace, c *models.Carousel) error {
		i := c.IndexOf(slideID)
		if i < 0 {
			return ErrSlideNotFound
		}
		j := i + 1
		if dir == Left {
			j = i - 1
		}
		if j < 0 || j >= len(c.Slides) {
			return ErrMoveOutOfRange
		}
		c.Slides[i], c.Slides[j] = c.Slides[j], c.Slides[i]
		return nil
	})
}

// ApplyBrandKit copies the user's brand kit into the carousel preferences
// and drops per-slide colour overrides.
func (s *Service) ApplyBrandKit(ctx context.Context, user string) (*models.Carousel, error) {
	settings, err := s.persist.LoadSettings(ctx, user)
	if err != nil {
		return nil, err
	}
	kit := models.DefaultBrandKit()
	if settings.BrandKit != nil {
		kit = *settings.BrandKit
	}
	return s.mutate(ctx, user, func(ws *workspace, c *models.Carousel) error {
		c.Preferences = style.ApplyBrandKit(c.Preferences, kit)
		for i := range c.Slides {
			c.Slides[i].BackgroundColor = nil
			c.Slides[i].FontColor = nil
			ws.bump(c.Slides[i].ID)
		}
		return nil
	})
}

// prepareVisual turns uploaded bytes into a data URI. Videos are kept
// as-is; images are optimised first.
func (s *Service) prepareVisual(data []byte) (string, error) {
	mt := media.Sniff(data)
	switch {
	case strings.HasPrefix(mt, "video/"):
		return media.EncodeDataURI(mt, data), nil
	case strings.HasPrefix(mt, "image/"):
		img, err := s.optimize(data)
		if err != nil {
			return "", fmt.Errorf("optimise upload: %w", err)
		}
		return media.EncodeDataURI(img.MediaType, img.Data), nil
	}
	return "", fmt.Errorf("%w: got %s", ErrUnsupportedMedia, mt)
}

// UploadVisual sets an uploaded image or video as a slide's visual, or as
// the carousel's when slideID is nil.
func (s *Service) UploadVisual(ctx context.Context, user string, slideID *uuid.UUID, data []byte) (*models.Carousel, error) {
	uri, err := s.prepareVisual(data)
	if err != nil {
		return nil, err
	}
	return s.setVisual(ctx, user, slideID, &uri)
}

// RemoveVisual clears a slide's visual, or the carousel's when slideID is
// nil.
func (s *Service) RemoveVisual(ctx context.Context, user string, slideID *uuid.UUID) (*models.Carousel, error) {
	return s.setVisual(ctx, user, slideID, nil)
}

func (s *Service) setVisual(ctx context.Context, user string, slideID *uuid.UUID, uri *string) (*models.Carousel, error) {
	return s.mutate(ctx, user, func(ws *workspace, c *models.Carousel) error {
		if slideID == nil {
			c.Preferences.BackgroundImage = ""
			if uri != nil {
				c.Preferences.BackgroundImage = *uri
			}
			return nil
		}
		sl := c.Slide(*slideID)
		if sl == nil {
			return ErrSlideNotFound
		}
		sl.BackgroundImage = uri
		ws.bump(sl.ID)
		return nil
	})
}
