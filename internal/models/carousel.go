// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SlideData is one slide of a carousel. Every pointer field is an
// optional override of the matching carousel-level value; nil inherits.
type SlideData struct {
	ID           uuid.UUID `json:"id"`
	Headline     string    `json:"headline"`
	Body         string    `json:"body"`
	VisualPrompt string    `json:"visual_prompt"`

	BackgroundColor   *string    `json:"background_color,omitempty"`
	FontColor         *string    `json:"font_color,omitempty"`
	BackgroundImage   *string    `json:"background_image,omitempty"`
	BackgroundOpacity *float64   `json:"background_opacity,omitempty"`
	HeadlineStyle     *TextStyle `json:"headline_style,omitempty"`
	BodyStyle         *TextStyle `json:"body_style,omitempty"`
	HeadlineColor     *string    `json:"headline_color,omitempty"`
	BodyColor         *string    `json:"body_color,omitempty"`
}

// Clone returns a deep copy of s.
func (s SlideData) Clone() SlideData {
	out := s
	out.BackgroundColor = clonePtr(s.BackgroundColor)
	out.FontColor = clonePtr(s.FontColor)
	out.BackgroundImage = clonePtr(s.BackgroundImage)
	out.BackgroundOpacity = clonePtr(s.BackgroundOpacity)
	out.HeadlineColor = clonePtr(s.HeadlineColor)
	out.BodyColor = clonePtr(s.BodyColor)
	if s.HeadlineStyle != nil {
		hs := s.HeadlineStyle.Clone()
		out.HeadlineStyle = &hs
	}
	if s.BodyStyle != nil {
		bs := s.BodyStyle.Clone()
		out.BodyStyle = &bs
	}
	return out
}

// HasVideo reports whether the slide's own visual is a video payload.
func (s *SlideData) HasVideo() bool {
	return s.BackgroundImage != nil && IsVideoURI(*s.BackgroundImage)
}

// Carousel is an ordered sequence of slides plus shared preferences.
type Carousel struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	CreatedAt   time.Time         `json:"created_at"`
	Slides      []SlideData       `json:"slides"`
	Category    string            `json:"category"`
	Preferences DesignPreferences `json:"preferences"`
}

// Clone returns a deep copy of c.
func (c *Carousel) Clone() *Carousel {
	out := *c
	out.Slides = make([]SlideData, len(c.Slides))
	for i, s := range c.Slides {
		out.Slides[i] = s.Clone()
	}
	out.Preferences = c.Preferences.Clone()
	return &out
}

// IndexOf returns the position of the slide with the given id, or -1.
func (c *Carousel) IndexOf(id uuid.UUID) int {
	for i := range c.Slides {
		if c.Slides[i].ID == id {
			return i
		}
	}
	return -1
}

// Slide returns a pointer into c.Slides for the given id, or nil.
func (c *Carousel) Slide(id uuid.UUID) *SlideData {
	if i := c.IndexOf(id); i >= 0 {
		return &c.Slides[i]
	}
	return nil
}

// SlideIndex maps slide ids to their position in c.Slides.
func (c *Carousel) SlideIndex() map[uuid.UUID]int {
	m := make(map[uuid.UUID]int, len(c.Slides))
	for i, s := range c.Slides {
		m[s.ID] = i
	}
	return m
}

// IsVideoURI reports whether a visual payload is a video data URI.
func IsVideoURI(v string) bool {
	return strings.HasPrefix(v, "data:video")
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
