// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"caroumate/internal/models"
	"caroumate/internal/style"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded HTML preview template.
type Renderer struct {
	tmpl *template.Template
}

// previewData is passed to preview.html.
type previewData struct {
	Title  string
	Slides []Tree
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"containerCSS":  containerCSS,
		"backgroundCSS": backgroundCSS,
		"textCSS": func(p style.TextParams) template.CSS {
			return template.CSS(p.CSS())
		},
		"overlayCSS": func(o *style.OverlayParams) template.CSS {
			return template.CSS(o.CSS())
		},
		"mediaURL": mediaURL,
	}
	tmpl, err := template.New("preview.html").Funcs(funcMap).ParseFS(templateFS, "templates/preview.html")
	if err != nil {
		return nil, fmt.Errorf("parse preview template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Preview writes a self-contained HTML document showing every slide.
func (rn *Renderer) Preview(w io.Writer, title string, slides []Tree) error {
	return rn.tmpl.ExecuteTemplate(w, "preview.html", previewData{Title: title, Slides: slides})
}

// Page writes the preview as an HTTP response.
func (rn *Renderer) Page(w http.ResponseWriter, title string, slides []Tree) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rn.Preview(w, title, slides); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func containerCSS(t Tree) template.CSS {
	var b strings.Builder
	fmt.Fprintf(&b, "aspect-ratio:%s;font-family:'%s',sans-serif;color:%s;", cssRatio(t.AspectRatio), t.Font, t.TextColor)
	bd := t.Border
	if bd.Top > 0 || bd.Right > 0 || bd.Bottom > 0 || bd.Left > 0 {
		fmt.Fprintf(&b, "border-style:solid;border-color:%s;border-width:%s %s %s %s;",
			bd.Color, px(bd.Top), px(bd.Right), px(bd.Bottom), px(bd.Left))
	}
	if bd.Shadow {
		b.WriteString("box-shadow:0 10px 15px -3px rgba(0,0,0,0.1);")
	}
	return template.CSS(b.String())
}

func backgroundCSS(bg Background) template.CSS {
	css := "opacity:" + strconv.FormatFloat(bg.Opacity, 'f', -1, 64) + ";"
	switch bg.Kind {
	case FillColor:
		css += "background-color:" + bg.Color + ";"
	case FillGradient:
		css += "background-image:linear-gradient(to bottom right," + strings.Join(bg.Stops, ",") + ");"
	}
	return template.CSS(css)
}

// mediaURL passes through data URIs for images and videos and http(s)
// links; anything else is dropped.
func mediaURL(s string) template.URL {
	switch {
	case strings.HasPrefix(s, "data:image/"), strings.HasPrefix(s, "data:video/"),
		strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "http://"):
		return template.URL(s)
	}
	return ""
}

func cssRatio(r models.AspectRatio) string {
	return strings.Replace(string(r), ":", " / ", 1)
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
