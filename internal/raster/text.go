package raster

import (
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"caroumate/internal/models"
	"caroumate/internal/style"
)

// The bitmap face is drawn at its native size and scaled to the target
// pixel size.
var face = basicfont.Face7x13

const (
	glyphW = 7
	glyphH = 13
	ascent = 11
)

// textRun describes one text block to paint.
type textRun struct {
	text       string
	px         float64 // font size in device pixels
	lineHeight float64 // multiple of px
	color      color.NRGBA
	bold       bool
	decoration models.TextDecoration
	align      models.TextAlign
	shadows    []style.Shadow // offsets already in device pixels
}

// glyphScale is the factor from native glyph height to target size.
func (t textRun) glyphScale() float64 {
	return max(t.px/glyphH, 0.1)
}

// charWidth is the advance of one character in device pixels.
func (t textRun) charWidth() float64 {
	return glyphW * t.glyphScale()
}

// wrap breaks the text into lines no wider than maxWidth device pixels.
// Explicit newlines are kept.
func (t textRun) wrap(maxWidth float64) []string {
	perLine := max(int(maxWidth/t.charWidth()), 1)
	var lines []string
	for _, para := range strings.Split(t.text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, w := range words {
			for utf8.RuneCountInString(w) > perLine {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				r := []rune(w)
				lines = append(lines, string(r[:perLine]))
				w = string(r[perLine:])
			}
			switch {
			case line == "":
				line = w
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) <= perLine:
				line += " " + w
			default:
				lines = append(lines, line)
				line = w
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// height returns the block height in device pixels for n lines.
func (t textRun) height(n int) float64 {
	return float64(n) * t.px * t.lineHeight
}

// drawLines paints pre-wrapped lines into the box starting at top y.
func drawLines(dst draw.Image, t textRun, lines []string, box image.Rectangle, y float64) {
	lh := t.px * t.lineHeight
	for _, line := range lines {
		if line != "" {
			mask := lineMask(t, line)
			w := mask.Bounds().Dx()
			var x int
			switch t.align {
			case models.AlignRight:
				x = box.Max.X - w
			case models.AlignCenter:
				x = box.Min.X + (box.Dx()-w)/2
			default:
				x = box.Min.X
			}
			// Centre the glyph box vertically within the line box.
			top := int(y + (lh-float64(mask.Bounds().Dy()))/2)
			paintMask(dst, mask, image.Pt(x, top), t)
		}
		y += lh
	}
}

// lineMask renders one line at native size with bold and decoration
// applied, then scales it to the target size.
func lineMask(t textRun, line string) *image.Alpha {
	n := utf8.RuneCountInString(line)
	w := n*glyphW + 1
	native := image.NewAlpha(image.Rect(0, 0, w, glyphH))

	d := font.Drawer{Dst: native, Src: image.Opaque, Face: face, Dot: fixed.P(0, ascent)}
	d.DrawString(line)
	if t.bold {
		d.Dot = fixed.P(1, ascent)
		d.DrawString(line)
	}
	if t.decoration.Has(models.DecorUnderline) {
		hline(native, ascent+1, n*glyphW)
	}
	if t.decoration.Has(models.DecorLineThrough) {
		hline(native, ascent/2+1, n*glyphW)
	}

	k := t.glyphScale()
	dw := max(int(float64(w)*k+0.5), 1)
	dh := max(int(float64(glyphH)*k+0.5), 1)
	scaled := image.NewAlpha(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), native, native.Bounds(), draw.Src, nil)
	return scaled
}

func hline(m *image.Alpha, y, w int) {
	for x := 0; x < w; x++ {
		m.SetAlpha(x, y, color.Alpha{A: 255})
	}
}

// paintMask draws the stroke shadows, then the text colour, through mask.
func paintMask(dst draw.Image, mask *image.Alpha, at image.Point, t textRun) {
	r := mask.Bounds().Add(at)
	for _, s := range t.shadows {
		sc, ok := parseColor(s.Color)
		if !ok {
			continue
		}
		off := image.Pt(int(s.DX+signHalf(s.DX)), int(s.DY+signHalf(s.DY)))
		draw.DrawMask(dst, r.Add(off), image.NewUniform(sc), image.Point{}, mask, image.Point{}, draw.Over)
	}
	draw.DrawMask(dst, r, image.NewUniform(t.color), image.Point{}, mask, image.Point{}, draw.Over)
}

// signHalf rounds offsets away from zero.
func signHalf(v float64) float64 {
	switch {
	case v > 0:
		return 0.5
	case v < 0:
		return -0.5
	}
	return 0
}

// applyTransform applies a CSS text-transform.
func applyTransform(s string, tr models.TextTransform) string {
	if tr == models.TransformUppercase {
		return strings.ToUpper(s)
	}
	return s
}
