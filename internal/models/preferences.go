// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Text attribute enums. The empty string means "inherit" inside a
// TextStyle override.
type (
	FontWeight    string
	FontStyle     string
	TextAlign     string
	TextTransform string
)

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"

	FontStyleNormal FontStyle = "normal"
	FontStyleItalic FontStyle = "italic"

	AlignLeft    TextAlign = "left"
	AlignCenter  TextAlign = "center"
	AlignRight   TextAlign = "right"
	AlignJustify TextAlign = "justify"

	TransformNone      TextTransform = "none"
	TransformUppercase TextTransform = "uppercase"
)

// TextDecoration is a set of independently toggled decoration lines.
type TextDecoration uint8

const (
	DecorUnderline TextDecoration = 1 << iota
	DecorLineThrough
)

// Has reports whether every flag in f is set.
func (d TextDecoration) Has(f TextDecoration) bool { return d&f == f }

// Toggle flips the flags in f.
func (d TextDecoration) Toggle(f TextDecoration) TextDecoration { return d ^ f }

// String returns the CSS text-decoration-line value.
func (d TextDecoration) String() string {
	var parts []string
	if d.Has(DecorUnderline) {
		parts = append(parts, "underline")
	}
	if d.Has(DecorLineThrough) {
		parts = append(parts, "line-through")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// MarshalText implements encoding.TextMarshaler.
func (d TextDecoration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts any space-separated combination of "underline"
// and "line-through", or "none".
func (d *TextDecoration) UnmarshalText(b []byte) error {
	var out TextDecoration
	for _, f := range strings.Fields(string(b)) {
		switch f {
		case "underline":
			out |= DecorUnderline
		case "line-through":
			out |= DecorLineThrough
		case "none":
		default:
			return fmt.Errorf("unknown text decoration %q", f)
		}
	}
	*d = out
	return nil
}

// TextStroke is a simulated outline around text.
type TextStroke struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// TextStyle is a sparse set of text attributes. Zero values and nil
// pointers mean the attribute is not set at this layer.
type TextStyle struct {
	FontWeight FontWeight      `json:"font_weight,omitempty"`
	FontStyle  FontStyle       `json:"font_style,omitempty"`
	Decoration *TextDecoration `json:"text_decoration,omitempty"`
	Align      TextAlign       `json:"text_align,omitempty"`
	Transform  TextTransform   `json:"text_transform,omitempty"`
	FontSize   *float64        `json:"font_size,omitempty"`
	Stroke     *TextStroke     `json:"text_stroke,omitempty"`
}

// Clone returns a deep copy of s.
func (s TextStyle) Clone() TextStyle {
	out := s
	if s.Decoration != nil {
		d := *s.Decoration
		out.Decoration = &d
	}
	if s.FontSize != nil {
		v := *s.FontSize
		out.FontSize = &v
	}
	if s.Stroke != nil {
		st := *s.Stroke
		out.Stroke = &st
	}
	return out
}

// OverlayStyle places a small text overlay on the slide.
type OverlayStyle struct {
	Color    string   `json:"color"`
	Opacity  float64  `json:"opacity"`
	Position Position `json:"position"`
	FontSize float64  `json:"font_size,omitempty"`
}

// SlideNumberStyle controls the "n / total" overlay.
type SlideNumberStyle struct {
	Show bool `json:"show"`
	OverlayStyle
}

// DesignPreferences are the carousel-level visual settings.
type DesignPreferences struct {
	BackgroundColor   string           `json:"background_color"`
	FontColor         string           `json:"font_color"`
	BackgroundImage   string           `json:"background_image,omitempty"`
	BackgroundOpacity float64          `json:"background_opacity"`
	Style             DesignStyle      `json:"style"`
	Font              FontChoice       `json:"font"`
	AspectRatio       AspectRatio      `json:"aspect_ratio"`
	BrandingText      string           `json:"branding_text,omitempty"`
	BrandingStyle     OverlayStyle     `json:"branding_style"`
	HeadlineStyle     TextStyle        `json:"headline_style"`
	BodyStyle         TextStyle        `json:"body_style"`
	SlideNumberStyle  SlideNumberStyle `json:"slide_number_style"`
}

// Built-in overlay font size in rem when none is configured.
const DefaultOverlayFontSize = 0.7

func ptr[T any](v T) *T { return &v }

// DefaultPreferences returns a fully populated preference record.
func DefaultPreferences() DesignPreferences {
	return DesignPreferences{
		BackgroundColor:   "#FFFFFF",
		FontColor:         "#111827",
		BackgroundOpacity: 1,
		Style:             StyleMinimalist,
		Font:              FontInter,
		AspectRatio:       RatioSquare,
		BrandingStyle: OverlayStyle{
			Color:    "#111827",
			Opacity:  0.75,
			Position: BottomRight,
			FontSize: DefaultOverlayFontSize,
		},
		HeadlineStyle: TextStyle{
			FontWeight: WeightBold,
			Align:      AlignCenter,
			FontSize:   ptr(1.4),
			Stroke:     &TextStroke{Color: "#000000"},
		},
		BodyStyle: TextStyle{
			Align:    AlignCenter,
			FontSize: ptr(0.8),
			Stroke:   &TextStroke{Color: "#000000"},
		},
		SlideNumberStyle: SlideNumberStyle{
			OverlayStyle: OverlayStyle{
				Color:    "#FFFFFF",
				Opacity:  0.8,
				Position: TopRight,
				FontSize: DefaultOverlayFontSize,
			},
		},
	}
}

// UnmarshalJSON decodes onto DefaultPreferences so a stored record that
// predates a field, or omits it, always comes back fully populated.
func (p *DesignPreferences) UnmarshalJSON(data []byte) error {
	type plain DesignPreferences
	d := plain(DefaultPreferences())
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*p = DesignPreferences(d)
	p.Normalize()
	return nil
}

// Normalize replaces unknown or empty values with their defaults and
// clamps opacities into [0,1].
func (p *DesignPreferences) Normalize() {
	def := DefaultPreferences()
	if p.BackgroundColor == "" {
		p.BackgroundColor = def.BackgroundColor
	}
	if p.FontColor == "" {
		p.FontColor = def.FontColor
	}
	if !p.Style.Valid() {
		p.Style = def.Style
	}
	if !p.Font.Valid() {
		p.Font = def.Font
	}
	if !p.AspectRatio.Valid() {
		p.AspectRatio = def.AspectRatio
	}
	p.BackgroundOpacity = clamp01(p.BackgroundOpacity)
	normalizeOverlay(&p.BrandingStyle, def.BrandingStyle)
	normalizeOverlay(&p.SlideNumberStyle.OverlayStyle, def.SlideNumberStyle.OverlayStyle)
}

func normalizeOverlay(o *OverlayStyle, def OverlayStyle) {
	if o.Color == "" {
		o.Color = def.Color
	}
	if !o.Position.Valid() {
		o.Position = def.Position
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	o.Opacity = clamp01(o.Opacity)
}

// Clone returns a deep copy of p.
func (p DesignPreferences) Clone() DesignPreferences {
	out := p
	out.HeadlineStyle = p.HeadlineStyle.Clone()
	out.BodyStyle = p.BodyStyle.Clone()
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
