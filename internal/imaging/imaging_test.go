package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	Startup(0)
	code := m.Run()
	Shutdown()
	os.Exit(code)
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOptimize(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		maxWidth  int
		wantWidth int
	}{
		{"downscaled", 400, 200, 100, 100},
		{"not upscaled", 80, 40, 1080, 80},
		{"default width", 60, 60, 0, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Optimize(pngOf(t, tt.w, tt.h), tt.maxWidth, 0)
			if err != nil {
				t.Fatalf("Optimize: %v", err)
			}
			if out.Width != tt.wantWidth {
				t.Errorf("width = %d, want %d", out.Width, tt.wantWidth)
			}
			if out.ContentType != "image/webp" {
				t.Errorf("content type = %q", out.ContentType)
			}
			if len(out.Data) < 12 || string(out.Data[8:12]) != "WEBP" {
				t.Error("output is not WebP")
			}
		})
	}
}

func TestOptimizeRejectsGarbage(t *testing.T) {
	if _, err := Optimize([]byte("not an image"), 0, 0); err == nil {
		t.Error("expected error for invalid input")
	}
}
