// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package style turns layered carousel configuration into concrete
// per-slide visual parameters. Resolution merges built-in defaults,
// carousel preferences and slide overrides; compilation converts the
// merged record into sizes, shadows and anchors a renderer can paint.
// Everything here is pure and allocation-light so it can run on every
// edit.
package style

import "caroumate/internal/models"

// ResolvedText is a text style with every attribute decided.
type ResolvedText struct {
	Color      string
	FontWeight models.FontWeight
	FontStyle  models.FontStyle
	Decoration models.TextDecoration
	Align      models.TextAlign
	Transform  models.TextTransform
	FontSize   float64
	Stroke     models.TextStroke
}

// Resolved is the effective style of one slide.
type Resolved struct {
	BackgroundColor   string
	FontColor         string
	BackgroundImage   string
	BackgroundOpacity float64
	Style             models.DesignStyle
	Font              models.FontChoice
	AspectRatio       models.AspectRatio

	Headline ResolvedText
	Body     ResolvedText

	BrandingText string
	Branding     models.OverlayStyle
	SlideNumber  models.SlideNumberStyle
}

// Resolve merges prefs and the slide's overrides into a Resolved style.
// A non-nil kit is applied to prefs first, as if the user had applied it.
// Neither input is modified.
//
// Every attribute takes the slide override when present, then the
// carousel value, then the built-in default. Headline and body colours
// fall back to the slide's effective font colour rather than the
// carousel's, and text styles merge one attribute at a time.
func Resolve(prefs models.DesignPreferences, slide models.SlideData, kit *models.BrandKit) Resolved {
	if kit != nil {
		prefs = ApplyBrandKit(prefs, *kit)
	}
	def := models.DefaultPreferences()

	fontColor := pick(slide.FontColor, nonEmpty(prefs.FontColor, def.FontColor))

	r := Resolved{
		BackgroundColor:   pick(slide.BackgroundColor, nonEmpty(prefs.BackgroundColor, def.BackgroundColor)),
		FontColor:         fontColor,
		BackgroundImage:   pick(slide.BackgroundImage, prefs.BackgroundImage),
		BackgroundOpacity: clamp01(pick(slide.BackgroundOpacity, prefs.BackgroundOpacity)),
		Style:             prefs.Style,
		Font:              prefs.Font,
		AspectRatio:       prefs.AspectRatio,
		BrandingText:      prefs.BrandingText,
		Branding:          prefs.BrandingStyle,
		SlideNumber:       prefs.SlideNumberStyle,
	}
	if !r.Style.Valid() {
		r.Style = def.Style
	}
	if !r.Font.Valid() {
		r.Font = def.Font
	}
	if !r.AspectRatio.Valid() {
		r.AspectRatio = def.AspectRatio
	}
	if r.Branding.FontSize <= 0 {
		r.Branding.FontSize = models.DefaultOverlayFontSize
	}
	if r.SlideNumber.FontSize <= 0 {
		r.SlideNumber.FontSize = models.DefaultOverlayFontSize
	}

	r.Headline = mergeText(slide.HeadlineStyle, prefs.HeadlineStyle, builtinText(RoleHeadline))
	r.Headline.Color = pick(slide.HeadlineColor, fontColor)
	r.Body = mergeText(slide.BodyStyle, prefs.BodyStyle, builtinText(RoleBody))
	r.Body.Color = pick(slide.BodyColor, fontColor)
	return r
}

// ApplyBrandKit returns prefs with the kit's colours, body font and
// branding copied in.
func ApplyBrandKit(prefs models.DesignPreferences, kit models.BrandKit) models.DesignPreferences {
	out := prefs.Clone()
	if kit.Colors.Primary != "" {
		out.BackgroundColor = kit.Colors.Primary
	}
	if kit.Colors.Text != "" {
		out.FontColor = kit.Colors.Text
	}
	if kit.Fonts.Body.Valid() {
		out.Font = kit.Fonts.Body
	}
	if kit.BrandingText != "" {
		out.BrandingText = kit.BrandingText
	}
	if kit.BrandingStyle != nil {
		out.BrandingStyle = *kit.BrandingStyle
	}
	return out
}

// builtinText is the bottom layer for each role.
func builtinText(role Role) ResolvedText {
	def := models.DefaultPreferences()
	t := ResolvedText{
		FontWeight: models.WeightNormal,
		FontStyle:  models.FontStyleNormal,
		Align:      models.AlignCenter,
		Transform:  models.TransformNone,
	}
	switch role {
	case RoleHeadline:
		t.FontWeight = models.WeightBold
		t.FontSize = *def.HeadlineStyle.FontSize
	case RoleBody:
		t.FontSize = *def.BodyStyle.FontSize
	}
	return t
}

func mergeText(over *models.TextStyle, base models.TextStyle, t ResolvedText) ResolvedText {
	layers := []models.TextStyle{base}
	if over != nil {
		layers = append(layers, *over)
	}
	for _, l := range layers {
		if l.FontWeight != "" {
			t.FontWeight = l.FontWeight
		}
		if l.FontStyle != "" {
			t.FontStyle = l.FontStyle
		}
		if l.Decoration != nil {
			t.Decoration = *l.Decoration
		}
		if l.Align != "" {
			t.Align = l.Align
		}
		if l.Transform != "" {
			t.Transform = l.Transform
		}
		if l.FontSize != nil {
			t.FontSize = *l.FontSize
		}
		if l.Stroke != nil {
			t.Stroke = *l.Stroke
		}
	}
	return t
}

func pick[T any](over *T, base T) T {
	if over != nil {
		return *over
	}
	return base
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
