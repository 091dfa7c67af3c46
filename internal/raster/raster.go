// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package raster paints slide visual trees into PNG frames for export.
// The canvas starts fully transparent; every visible pixel comes from a
// layer of the tree, so a flat background colour is composited exactly
// once and a hidden video background leaves the frame transparent.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"caroumate/internal/media"
	"caroumate/internal/render"
	"caroumate/internal/style"
)

// Options control frame geometry.
type Options struct {
	// Width is the slide width in CSS pixels.
	Width int
	// Scale multiplies every CSS pixel.
	Scale float64
	// Viewport is the width in CSS pixels fluid font sizes are evaluated at.
	Viewport float64
}

// DefaultOptions match the on-screen card captured at double density.
func DefaultOptions() Options {
	return Options{Width: 288, Scale: 2, Viewport: style.ReferenceViewport}
}

// Loader resolves a visual reference to its bytes.
type Loader interface {
	Load(ctx context.Context, uri string) (media.Payload, error)
}

// Rasterizer paints trees.
type Rasterizer struct {
	opts   Options
	loader Loader
}

// Layout constants in CSS pixels.
const (
	contentPadding  = 24
	headlineGap     = 16
	headlineLeading = 1.2
	bodyLeading     = 1.5
	overlayLeading  = 1.2
)

// New creates a Rasterizer. Zero option fields take their defaults.
func New(opts Options, loader Loader) *Rasterizer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Scale <= 0 {
		opts.Scale = def.Scale
	}
	if opts.Viewport <= 0 {
		opts.Viewport = def.Viewport
	}
	return &Rasterizer{opts: opts, loader: loader}
}

// Size returns the frame size in device pixels for a tree.
func (r *Rasterizer) Size(t render.Tree) image.Point {
	w, h := t.AspectRatio.Dimensions(r.opts.Width)
	return image.Pt(r.px(float64(w)), r.px(float64(h)))
}

// Paint renders the tree onto a new transparent canvas.
func (r *Rasterizer) Paint(ctx context.Context, t render.Tree) (*image.NRGBA, error) {
	size := r.Size(t)
	canvas := image.NewNRGBA(image.Rectangle{Max: size})

	if !t.Background.Hidden {
		if err := r.paintBackground(ctx, canvas, t.Background); err != nil {
			return nil, err
		}
	}
	r.paintBorder(canvas, t.Border)
	r.paintContent(canvas, t)
	if t.Branding != nil {
		r.paintOverlay(canvas, *t.Branding)
	}
	if t.SlideNumber != nil {
		r.paintOverlay(canvas, *t.SlideNumber)
	}
	if t.Generating {
		tint, _ := parseColor(render.GeneratingTint)
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(withOpacity(tint, render.GeneratingOpacity)), image.Point{}, draw.Over)
	}
	return canvas, nil
}

// PNG paints the tree and encodes it.
func (r *Rasterizer) PNG(ctx context.Context, t render.Tree) ([]byte, error) {
	img, err := r.Paint(ctx, t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Rasterizer) px(v float64) int {
	return int(v*r.opts.Scale + 0.5)
}

func (r *Rasterizer) paintBackground(ctx context.Context, canvas *image.NRGBA, bg render.Background) error {
	layer := image.NewNRGBA(canvas.Bounds())
	switch bg.Kind {
	case render.FillColor:
		c, ok := parseColor(bg.Color)
		if !ok {
			return nil
		}
		draw.Draw(layer, layer.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	case render.FillGradient:
		gradient(layer, bg.Stops)
	case render.FillMedia:
		if bg.Video {
			// Frames are not decoded; video is exported as raw media.
			return nil
		}
		if err := r.cover(ctx, layer, bg.Media); err != nil {
			return err
		}
	}
	opacity := image.NewUniform(color.Alpha{A: uint8(clamp01(bg.Opacity)*255 + 0.5)})
	draw.DrawMask(canvas, canvas.Bounds(), layer, image.Point{}, opacity, image.Point{}, draw.Over)
	return nil
}

// cover scales the visual to fill dst, cropping the overflow evenly.
func (r *Rasterizer) cover(ctx context.Context, dst *image.NRGBA, uri string) error {
	if r.loader == nil {
		return fmt.Errorf("no loader for visual")
	}
	p, err := r.loader.Load(ctx, uri)
	if err != nil {
		return fmt.Errorf("load visual: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return fmt.Errorf("decode visual: %w", err)
	}

	sb := src.Bounds()
	db := dst.Bounds()
	scale := max(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	cw := int(float64(db.Dx())/scale + 0.5)
	ch := int(float64(db.Dy())/scale + 0.5)
	x0 := sb.Min.X + (sb.Dx()-cw)/2
	y0 := sb.Min.Y + (sb.Dy()-ch)/2
	crop := image.Rect(x0, y0, x0+cw, y0+ch).Intersect(sb)

	draw.CatmullRom.Scale(dst, db, src, crop, draw.Src, nil)
	return nil
}

func (r *Rasterizer) paintBorder(canvas *image.NRGBA, b render.Border) {
	if b.None() {
		return
	}
	c, ok := parseColor(b.Color)
	if !ok || c.A == 0 {
		return
	}
	fill := image.NewUniform(c)
	bounds := canvas.Bounds()
	W, H := bounds.Dx(), bounds.Dy()
	strips := []image.Rectangle{
		image.Rect(0, 0, W, r.px(b.Top)),
		image.Rect(W-r.px(b.Right), 0, W, H),
		image.Rect(0, H-r.px(b.Bottom), W, H),
		image.Rect(0, 0, r.px(b.Left), H),
	}
	for _, s := range strips {
		if !s.Empty() {
			draw.Draw(canvas, s, fill, image.Point{}, draw.Over)
		}
	}
}

func (r *Rasterizer) paintContent(canvas *image.NRGBA, t render.Tree) {
	pad := r.px(contentPadding)
	box := canvas.Bounds().Inset(pad)
	if box.Empty() {
		return
	}

	head := r.textRun(t.Headline, t.TextColor, headlineLeading)
	body := r.textRun(t.Body, t.TextColor, bodyLeading)

	var headLines, bodyLines []string
	total := 0.0
	if t.Headline.Text != "" {
		headLines = head.wrap(float64(box.Dx()))
		total += head.height(len(headLines))
	}
	if t.Body.Text != "" {
		bodyLines = body.wrap(float64(box.Dx()))
		total += body.height(len(bodyLines))
	}
	if headLines != nil && bodyLines != nil {
		total += float64(r.px(headlineGap))
	}

	y := max(float64(box.Min.Y)+(float64(box.Dy())-total)/2, float64(box.Min.Y))
	if headLines != nil {
		drawLines(canvas, head, headLines, box, y)
		y += head.height(len(headLines)) + float64(r.px(headlineGap))
	}
	if bodyLines != nil {
		drawLines(canvas, body, bodyLines, box, y)
	}
}

func (r *Rasterizer) textRun(n render.TextNode, fallback string, leading float64) textRun {
	p := n.Params
	c, ok := parseColor(p.Color)
	if !ok {
		if c, ok = parseColor(fallback); !ok {
			c = color.NRGBA{A: 255}
		}
	}
	shadows := make([]style.Shadow, len(p.Shadows))
	for i, s := range p.Shadows {
		s.DX *= r.opts.Scale
		s.DY *= r.opts.Scale
		shadows[i] = s
	}
	return textRun{
		text:       applyTransform(n.Text, p.Transform),
		px:         p.Size.Pixels(r.opts.Viewport) * r.opts.Scale,
		lineHeight: leading,
		color:      c,
		bold:       p.FontWeight == "bold",
		decoration: p.Decoration,
		align:      p.Align,
		shadows:    shadows,
	}
}

func (r *Rasterizer) paintOverlay(canvas *image.NRGBA, o style.OverlayParams) {
	c, ok := parseColor(o.Color)
	if !ok || o.Text == "" {
		return
	}
	run := textRun{
		text:       o.Text,
		px:         o.FontSize * style.RemPx * r.opts.Scale,
		lineHeight: overlayLeading,
		color:      withOpacity(c, o.Opacity),
		align:      o.Anchor.Align,
	}

	inset := r.px(o.Anchor.Inset)
	b := canvas.Bounds()
	lh := int(run.height(1) + 0.5)
	var top int
	if o.Anchor.Vertical == style.EdgeTop {
		top = inset
	} else {
		top = b.Dy() - inset - lh
	}
	box := image.Rect(inset, top, b.Dx()-inset, top+lh)
	if o.Anchor.Horizontal == style.EdgeCenter {
		box.Min.X, box.Max.X = 0, b.Dx()
		run.align = "center"
	}
	drawLines(canvas, run, []string{run.text}, box, float64(top))
}
