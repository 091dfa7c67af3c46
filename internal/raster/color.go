package raster

import (
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// parseColor reads a CSS hex colour or "transparent". ok is false for
// anything it cannot read.
func parseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "transparent") {
		return color.NRGBA{}, true
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, true
}

// withOpacity scales the alpha of c.
func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*clamp01(opacity) + 0.5)
	return c
}

// gradient fills dst with a linear gradient running from the top-left to
// the bottom-right corner through evenly spaced stops.
func gradient(dst *image.NRGBA, stops []string) {
	cols := make([]colorful.Color, 0, len(stops))
	for _, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			continue
		}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return
	}

	b := dst.Bounds()
	w, h := float64(b.Dx()-1), float64(b.Dy()-1)
	segments := float64(len(cols) - 1)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := 0.0
			if w+h > 0 {
				t = (float64(x-b.Min.X) + float64(y-b.Min.Y)) / (w + h)
			}
			c := cols[0]
			if segments > 0 {
				pos := t * segments
				i := min(int(pos), len(cols)-2)
				c = cols[i].BlendRgb(cols[i+1], pos-float64(i))
			}
			r, g, bl := c.Clamped().RGB255()
			dst.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: bl, A: 255})
		}
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
