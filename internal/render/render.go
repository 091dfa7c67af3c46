// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render maps compiled slide parameters to a visual tree. The
// tree is target-agnostic: the raster package paints it to PNG for
// export and Preview turns it into an HTML document.
package render

import (
	"github.com/google/uuid"

	"caroumate/internal/models"
	"caroumate/internal/style"
)

// FillKind tells a painter how to draw the background layer.
type FillKind int

const (
	FillColor FillKind = iota
	FillGradient
	FillMedia
)

// Fill describes the background layer.
type Fill struct {
	Kind  FillKind
	Color string
	// Stops run from the top-left to the bottom-right corner.
	Stops []string
	Media string
	Video bool
	// Playback flags for video media. Audio is never part of the output.
	Autoplay, Loop, Muted bool
}

// IsMedia reports whether the fill is an image or video payload.
func (f Fill) IsMedia() bool { return f.Kind == FillMedia }

// Background is the bottom layer. Opacity applies to it alone.
type Background struct {
	Fill
	Opacity float64
	// Hidden is set while capturing the overlay of a video slide.
	Hidden bool
}

// Border is the frame a design style draws around the slide.
type Border struct {
	Top, Right, Bottom, Left float64
	Color                    string
	Shadow                   bool
}

// None reports whether the border draws nothing.
func (b Border) None() bool {
	return b.Top == 0 && b.Right == 0 && b.Bottom == 0 && b.Left == 0 && !b.Shadow
}

// TextNode is a headline or body block.
type TextNode struct {
	Text   string
	Params style.TextParams
}

// Layer names a z-ordered layer of the tree.
type Layer int

const (
	LayerBackground Layer = iota
	LayerText
	LayerBranding
	LayerSlideNumber
	LayerGenerating
)

// GeneratingTint is the colour of the overlay shown while a visual is
// being produced for the slide.
const GeneratingTint = "#000000"

// GeneratingOpacity is the opacity of the generating overlay.
const GeneratingOpacity = 0.6

// Tree is the visual tree of one slide.
type Tree struct {
	SlideID     uuid.UUID
	Index       int
	Total       int
	AspectRatio models.AspectRatio
	Font        models.FontChoice
	// TextColor is the container colour inherited by text without its
	// own colour.
	TextColor   string
	Background  Background
	Border      Border
	Headline    TextNode
	Body        TextNode
	Branding    *style.OverlayParams
	SlideNumber *style.OverlayParams
	Generating  bool
}

// Render builds the visual tree for one slide from its resolved style and
// compiled parameters. index is zero-based.
func Render(slide models.SlideData, r style.Resolved, p style.Params, index, total int) Tree {
	t := Tree{
		SlideID:     slide.ID,
		Index:       index,
		Total:       total,
		AspectRatio: r.AspectRatio,
		Font:        r.Font,
		TextColor:   r.FontColor,
		Background: Background{
			Fill:    backgroundFill(r),
			Opacity: p.BackgroundOpacity,
		},
		Border:      borderFor(r.Style),
		Headline:    TextNode{Text: slide.Headline, Params: p.Headline},
		Body:        TextNode{Text: slide.Body, Params: p.Body},
		Branding:    p.Branding,
		SlideNumber: p.SlideNumber,
	}
	if r.Style == models.StyleArtistic {
		t.TextColor = "#FFFFFF"
	}
	return t
}

// Slide resolves, compiles and renders the slide at index in c.
func Slide(c *models.Carousel, index int) Tree {
	s := c.Slides[index]
	r := style.Resolve(c.Preferences, s, nil)
	return Render(s, r, style.CompileSlide(r, index, len(c.Slides)), index, len(c.Slides))
}

// Carousel renders every slide in order. generating reports which
// slides currently have a visual in flight; it may be nil.
func Carousel(c *models.Carousel, generating func(uuid.UUID) bool) []Tree {
	out := make([]Tree, len(c.Slides))
	for i := range c.Slides {
		out[i] = Slide(c, i)
		if generating != nil {
			out[i].Generating = generating(c.Slides[i].ID)
		}
	}
	return out
}

// Layers returns the visible layers bottom to top.
func (t *Tree) Layers() []Layer {
	layers := make([]Layer, 0, 5)
	if !t.Background.Hidden {
		layers = append(layers, LayerBackground)
	}
	layers = append(layers, LayerText)
	if t.Branding != nil {
		layers = append(layers, LayerBranding)
	}
	if t.SlideNumber != nil {
		layers = append(layers, LayerSlideNumber)
	}
	if t.Generating {
		layers = append(layers, LayerGenerating)
	}
	return layers
}

// HasVideo reports whether the background is a video.
func (t *Tree) HasVideo() bool {
	return t.Background.Kind == FillMedia && t.Background.Video
}

// WithoutVideo returns a copy with a video background hidden, for
// capturing the overlay separately from the raw media.
func (t Tree) WithoutVideo() Tree {
	if t.HasVideo() {
		t.Background.Hidden = true
	}
	return t
}

// backgroundFill picks the explicit visual first, then the design
// style's treatment, then the flat colour.
func backgroundFill(r style.Resolved) Fill {
	if r.BackgroundImage != "" {
		video := models.IsVideoURI(r.BackgroundImage)
		return Fill{
			Kind:     FillMedia,
			Media:    r.BackgroundImage,
			Video:    video,
			Autoplay: video,
			Loop:     video,
			Muted:    video,
		}
	}
	if f, ok := treatment(r.Style); ok {
		return f
	}
	return Fill{Kind: FillColor, Color: r.BackgroundColor}
}

func treatment(s models.DesignStyle) (Fill, bool) {
	switch s {
	case models.StyleColorful:
		return Fill{Kind: FillGradient, Stops: []string{"#F9A8D4", "#818CF8"}}, true
	case models.StyleVintage:
		return Fill{Kind: FillColor, Color: "#FEFCE8"}, true
	case models.StyleModern, models.StyleCorporate:
		return Fill{Kind: FillColor, Color: "#FFFFFF"}, true
	case models.StyleArtistic:
		return Fill{Kind: FillGradient, Stops: []string{"#3730A3", "#581C87", "#0F172A"}}, true
	case models.StyleMinimalist, models.StyleBold, models.StyleElegant:
		return Fill{}, false
	}
	return Fill{}, false
}

func borderFor(s models.DesignStyle) Border {
	switch s {
	case models.StyleBold:
		return Border{Top: 4, Right: 4, Bottom: 4, Left: 4, Color: "#111827"}
	case models.StyleElegant:
		return Border{Top: 1, Right: 1, Bottom: 1, Left: 1, Color: "#D1D5DB", Shadow: true}
	case models.StyleColorful:
		return Border{Top: 4, Right: 4, Bottom: 4, Left: 4, Color: "transparent"}
	case models.StyleVintage:
		return Border{Top: 2, Right: 2, Bottom: 2, Left: 2, Color: "#854D0E"}
	case models.StyleModern:
		return Border{Bottom: 4, Color: "#D1D5DB"}
	case models.StyleCorporate:
		return Border{Left: 4, Color: "#2563EB"}
	case models.StyleMinimalist, models.StyleArtistic:
		return Border{}
	}
	return Border{}
}
