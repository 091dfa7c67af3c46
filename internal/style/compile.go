package style

import (
	"fmt"
	"strconv"
	"strings"

	"caroumate/internal/models"
)

// Role selects the legibility floor for a text block.
type Role int

const (
	RoleHeadline Role = iota
	RoleBody
)

// MinSize is the smallest size in rem a role may render at.
func (r Role) MinSize() float64 {
	switch r {
	case RoleHeadline:
		return 0.75
	default:
		return 0.6
	}
}

func (r Role) String() string {
	if r == RoleHeadline {
		return "headline"
	}
	return "body"
}

const (
	// RemPx is the pixel size of one rem.
	RemPx = 16.0
	// ReferenceViewport is the viewport width at which the preferred
	// size reaches the configured size.
	ReferenceViewport = 1200.0
)

// FluidSize is a three-point clamp: a floor in rem, a preferred size
// proportional to viewport width, and a ceiling in rem.
type FluidSize struct {
	MinRem      float64
	PreferredVW float64
	MaxRem      float64
}

// Fluid builds the clamp for a configured size.
func Fluid(size float64, role Role) FluidSize {
	return FluidSize{
		MinRem:      role.MinSize(),
		PreferredVW: size * RemPx / ReferenceViewport * 100,
		MaxRem:      size,
	}
}

// Rem evaluates the clamp at the given viewport width in pixels. As with
// CSS clamp(), the floor wins when it exceeds the ceiling.
func (f FluidSize) Rem(viewport float64) float64 {
	preferred := f.PreferredVW * viewport / 100 / RemPx
	return max(f.MinRem, min(preferred, f.MaxRem))
}

// Pixels evaluates the clamp in pixels.
func (f FluidSize) Pixels(viewport float64) float64 {
	return f.Rem(viewport) * RemPx
}

// CSS renders the clamp() expression.
func (f FluidSize) CSS() string {
	return fmt.Sprintf("clamp(%srem, %.2fvw, %srem)", num(f.MinRem), f.PreferredVW, num(f.MaxRem))
}

// Shadow is one flat text shadow.
type Shadow struct {
	DX, DY float64
	Blur   float64
	Color  string
}

// compass lists unit offsets for the eight directions.
var compass = [8][2]float64{
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
}

// StrokeShadows approximates a text outline with eight flat shadows at
// the stroke width in each compass direction. It returns nil when the
// width is not positive or no colour is set.
func StrokeShadows(s models.TextStroke) []Shadow {
	if s.Width <= 0 || s.Color == "" {
		return nil
	}
	out := make([]Shadow, 0, len(compass))
	for _, d := range compass {
		out = append(out, Shadow{DX: d[0] * s.Width, DY: d[1] * s.Width, Color: s.Color})
	}
	return out
}

// ShadowCSS renders a text-shadow value.
func ShadowCSS(shadows []Shadow) string {
	parts := make([]string, len(shadows))
	for i, s := range shadows {
		parts[i] = fmt.Sprintf("%spx %spx %spx %s", num(s.DX), num(s.DY), num(s.Blur), s.Color)
	}
	return strings.Join(parts, ", ")
}

// VEdge and HEdge name the edges an overlay is anchored to.
type (
	VEdge int
	HEdge int
)

const (
	EdgeTop VEdge = iota
	EdgeBottom
)

const (
	EdgeLeft HEdge = iota
	EdgeCenter
	EdgeRight
)

// Anchor is the fixed placement of an overlay.
type Anchor struct {
	Vertical   VEdge
	Horizontal HEdge
	// Inset is the distance in px from the anchored edges. Centred
	// anchors only use it vertically.
	Inset float64
	Align models.TextAlign
}

const (
	topInset    = 12
	bottomInset = 16
)

// AnchorFor maps a position to its static placement.
func AnchorFor(p models.Position) Anchor {
	switch p {
	case models.TopLeft:
		return Anchor{EdgeTop, EdgeLeft, topInset, models.AlignLeft}
	case models.TopCenter:
		return Anchor{EdgeTop, EdgeCenter, topInset, models.AlignCenter}
	case models.TopRight:
		return Anchor{EdgeTop, EdgeRight, topInset, models.AlignRight}
	case models.BottomLeft:
		return Anchor{EdgeBottom, EdgeLeft, bottomInset, models.AlignLeft}
	case models.BottomCenter:
		return Anchor{EdgeBottom, EdgeCenter, bottomInset, models.AlignCenter}
	case models.BottomRight:
		return Anchor{EdgeBottom, EdgeRight, bottomInset, models.AlignRight}
	}
	return Anchor{EdgeBottom, EdgeRight, bottomInset, models.AlignRight}
}

// CSS renders the absolute offsets of the anchor.
func (a Anchor) CSS() string {
	inset := num(a.Inset) + "px"
	var b strings.Builder
	if a.Vertical == EdgeTop {
		b.WriteString("top:" + inset + ";")
	} else {
		b.WriteString("bottom:" + inset + ";")
	}
	switch a.Horizontal {
	case EdgeLeft:
		b.WriteString("left:" + inset + ";")
	case EdgeRight:
		b.WriteString("right:" + inset + ";")
	case EdgeCenter:
		b.WriteString("left:50%;transform:translateX(-50%);")
	}
	b.WriteString("text-align:" + string(a.Align) + ";")
	return b.String()
}

// TextParams are the concrete parameters for painting one text block.
type TextParams struct {
	Role       Role
	Color      string
	FontWeight models.FontWeight
	FontStyle  models.FontStyle
	Decoration models.TextDecoration
	Align      models.TextAlign
	Transform  models.TextTransform
	Size       FluidSize
	Shadows    []Shadow
}

// Compile converts a resolved text style into paint parameters.
func Compile(t ResolvedText, role Role) TextParams {
	return TextParams{
		Role:       role,
		Color:      t.Color,
		FontWeight: t.FontWeight,
		FontStyle:  t.FontStyle,
		Decoration: t.Decoration,
		Align:      t.Align,
		Transform:  t.Transform,
		Size:       Fluid(t.FontSize, role),
		Shadows:    StrokeShadows(t.Stroke),
	}
}

// CSS renders the params as an inline style declaration list.
func (p TextParams) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "color:%s;font-size:%s;font-weight:%s;font-style:%s;text-align:%s;text-transform:%s;text-decoration-line:%s;",
		p.Color, p.Size.CSS(), p.FontWeight, p.FontStyle, p.Align, p.Transform, p.Decoration)
	if len(p.Shadows) > 0 {
		b.WriteString("text-shadow:" + ShadowCSS(p.Shadows) + ";")
	}
	return b.String()
}

// OverlayParams place a branding or slide-number overlay.
type OverlayParams struct {
	Text     string
	Color    string
	Opacity  float64
	FontSize float64 // rem
	Anchor   Anchor
}

// CSS renders the overlay's inline style.
func (o OverlayParams) CSS() string {
	return fmt.Sprintf("position:absolute;%scolor:%s;opacity:%s;font-size:%srem;",
		o.Anchor.CSS(), o.Color, num(o.Opacity), num(o.FontSize))
}

// Params are the compiled parameters of a whole slide.
type Params struct {
	Headline          TextParams
	Body              TextParams
	BackgroundOpacity float64
	Branding          *OverlayParams
	SlideNumber       *OverlayParams
}

// CompileSlide compiles every text block and overlay of a resolved
// slide. index is zero-based; overlays that are hidden or empty are nil.
func CompileSlide(r Resolved, index, total int) Params {
	p := Params{
		Headline:          Compile(r.Headline, RoleHeadline),
		Body:              Compile(r.Body, RoleBody),
		BackgroundOpacity: clamp01(r.BackgroundOpacity),
	}
	if r.BrandingText != "" {
		p.Branding = &OverlayParams{
			Text:     r.BrandingText,
			Color:    r.Branding.Color,
			Opacity:  clamp01(r.Branding.Opacity),
			FontSize: r.Branding.FontSize,
			Anchor:   AnchorFor(r.Branding.Position),
		}
	}
	if r.SlideNumber.Show && total > 0 {
		p.SlideNumber = &OverlayParams{
			Text:     fmt.Sprintf("%d / %d", index+1, total),
			Color:    r.SlideNumber.Color,
			Opacity:  clamp01(r.SlideNumber.Opacity),
			FontSize: r.SlideNumber.FontSize,
			Anchor:   AnchorFor(r.SlideNumber.Position),
		}
	}
	return p
}

// num formats without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
