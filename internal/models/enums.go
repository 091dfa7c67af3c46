// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Position is one of the six anchor points used to place overlay text
// (branding, slide number) on a slide.
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
)

// Positions lists every anchor position in display order.
var Positions = []Position{TopLeft, TopCenter, TopRight, BottomLeft, BottomCenter, BottomRight}

// Valid reports whether p is a known anchor position.
func (p Position) Valid() bool {
	switch p {
	case TopLeft, TopCenter, TopRight, BottomLeft, BottomCenter, BottomRight:
		return true
	}
	return false
}

// DesignStyle is a named visual preset. Each preset implies its own
// background treatment and border.
type DesignStyle string

const (
	StyleMinimalist DesignStyle = "Minimalist"
	StyleBold       DesignStyle = "Bold & Punchy"
	StyleColorful   DesignStyle = "Vibrant & Colorful"
	StyleElegant    DesignStyle = "Elegant & Refined"
	StyleVintage    DesignStyle = "Retro & Vintage"
	StyleModern     DesignStyle = "Modern & Clean"
	StyleCorporate  DesignStyle = "Corporate & Professional"
	StyleArtistic   DesignStyle = "Artistic & Creative"
)

// DesignStyles lists every preset.
var DesignStyles = []DesignStyle{
	StyleMinimalist, StyleBold, StyleColorful, StyleElegant,
	StyleVintage, StyleModern, StyleCorporate, StyleArtistic,
}

// Valid reports whether s is a known preset.
func (s DesignStyle) Valid() bool {
	switch s {
	case StyleMinimalist, StyleBold, StyleColorful, StyleElegant,
		StyleVintage, StyleModern, StyleCorporate, StyleArtistic:
		return true
	}
	return false
}

// FontChoice is a font family name from the supported catalogue.
type FontChoice string

const (
	FontInter   FontChoice = "Inter"
	FontPoppins FontChoice = "Poppins"
)

// Fonts is the supported font catalogue.
var Fonts = []FontChoice{
	// sans
	"Inter", "Lato", "Montserrat", "Open Sans", "Poppins", "Raleway", "Roboto",
	// serif
	"Lora", "Merriweather", "PT Serif", "Playfair Display",
	// display
	"Lobster", "Oswald",
	// mono
	"Roboto Mono", "Source Code Pro",
	"Nunito", "Work Sans", "Rubik", "Bebas Neue", "Anton", "DM Sans", "Barlow", "Cabin", "Titillium Web",
	"Cormorant Garamond", "EB Garamond", "Bitter", "Crimson Text", "Spectral", "Zilla Slab", "Cardo", "Bree Serif",
	"Pacifico", "Caveat", "Dancing Script", "Permanent Marker", "Alfa Slab One", "Righteous", "Satisfy", "Abril Fatface", "Chewy",
	"Space Mono", "IBM Plex Mono",
	// handwriting
	"Indie Flower", "Patrick Hand", "Playpen Sans", "Balsamiq Sans",
}

var fontSet = func() map[FontChoice]struct{} {
	m := make(map[FontChoice]struct{}, len(Fonts))
	for _, f := range Fonts {
		m[f] = struct{}{}
	}
	return m
}()

// Valid reports whether f is in the font catalogue.
func (f FontChoice) Valid() bool {
	_, ok := fontSet[f]
	return ok
}

// AspectRatio is the frame shape of every slide in a carousel.
type AspectRatio string

const (
	RatioSquare   AspectRatio = "1:1"
	RatioPortrait AspectRatio = "3:4"
	RatioStory    AspectRatio = "9:16"
)

// Valid reports whether r is a supported aspect ratio.
func (r AspectRatio) Valid() bool {
	switch r {
	case RatioSquare, RatioPortrait, RatioStory:
		return true
	}
	return false
}

// Dimensions returns width and height for a frame of the given base width.
func (r AspectRatio) Dimensions(width int) (int, int) {
	switch r {
	case RatioPortrait:
		return width, width * 4 / 3
	case RatioStory:
		return width, width * 16 / 9
	default:
		return width, width
	}
}

// AIModel identifies the text model used for content generation.
type AIModel string

const (
	ModelGeminiFlash AIModel = "gemini-2.5-flash"
	ModelGeminiPro   AIModel = "gemini-2.5-pro"
)

// Valid reports whether m is a supported model.
func (m AIModel) Valid() bool {
	return m == ModelGeminiFlash || m == ModelGeminiPro
}
