package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestCarouselLookup(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	car := &Carousel{Slides: []SlideData{{ID: b}, {ID: a}, {ID: c}}}

	if got := car.IndexOf(a); got != 1 {
		t.Errorf("IndexOf(a) = %d, want 1", got)
	}
	if got := car.IndexOf(uuid.New()); got != -1 {
		t.Errorf("IndexOf(unknown) = %d, want -1", got)
	}
	if s := car.Slide(c); s == nil || s.ID != c {
		t.Errorf("Slide(c) = %v", s)
	}
	idx := car.SlideIndex()
	if idx[b] != 0 || idx[a] != 1 || idx[c] != 2 {
		t.Errorf("SlideIndex = %v", idx)
	}
}

func TestCarouselCloneIsDeep(t *testing.T) {
	size := 2.0
	car := &Carousel{
		ID:          uuid.New(),
		Preferences: DefaultPreferences(),
		Slides: []SlideData{{
			ID:              uuid.New(),
			BackgroundColor: strPtr("#FF0000"),
			HeadlineStyle:   &TextStyle{FontSize: &size},
		}},
	}

	cp := car.Clone()
	*cp.Slides[0].BackgroundColor = "#00FF00"
	*cp.Slides[0].HeadlineStyle.FontSize = 3
	cp.Slides = append(cp.Slides, SlideData{})

	if *car.Slides[0].BackgroundColor != "#FF0000" {
		t.Error("clone shares background colour")
	}
	if *car.Slides[0].HeadlineStyle.FontSize != 2 {
		t.Error("clone shares headline style")
	}
	if len(car.Slides) != 1 {
		t.Error("clone shares slide slice")
	}
}

func TestIsVideoURI(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"data:video/mp4;base64,AAAA", true},
		{"data:video/webm;base64,AAAA", true},
		{"data:image/png;base64,AAAA", false},
		{"https://cdn.example.com/v.mp4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsVideoURI(tt.in); got != tt.want {
			t.Errorf("IsVideoURI(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	s := SlideData{BackgroundImage: strPtr("data:video/mp4;base64,AAAA")}
	if !s.HasVideo() {
		t.Error("HasVideo() = false for video slide")
	}
}

// TestSlideOverridesOmitted verifies that unset overrides are absent from
// the encoded record so they inherit on reload.
func TestSlideOverridesOmitted(t *testing.T) {
	b, err := json.Marshal(SlideData{ID: uuid.New(), Headline: "h"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"background_color", "font_color", "background_image", "headline_style", "body_color"} {
		if _, ok := m[k]; ok {
			t.Errorf("unset override %q was encoded", k)
		}
	}
}

func TestMergePatchSlide(t *testing.T) {
	s := SlideData{
		ID:        uuid.New(),
		Headline:  "old",
		FontColor: strPtr("#111111"),
		BodyStyle: &TextStyle{FontWeight: WeightBold},
	}

	patch := `{"headline":"new","font_color":null,"body_style":{"text_align":"left"},"headline_color":"#ABCDEF"}`
	if err := MergePatch(&s, []byte(patch)); err != nil {
		t.Fatalf("MergePatch: %v", err)
	}
	if s.Headline != "new" {
		t.Errorf("Headline = %q", s.Headline)
	}
	if s.FontColor != nil {
		t.Errorf("FontColor = %q, want cleared", *s.FontColor)
	}
	if s.BodyStyle == nil || s.BodyStyle.FontWeight != WeightBold || s.BodyStyle.Align != AlignLeft {
		t.Errorf("BodyStyle = %+v, want merged", s.BodyStyle)
	}
	if s.HeadlineColor == nil || *s.HeadlineColor != "#ABCDEF" {
		t.Errorf("HeadlineColor = %v", s.HeadlineColor)
	}
}

func TestMergePatchPreferencesStaysPopulated(t *testing.T) {
	p := DefaultPreferences()
	p.BrandingText = "@acme"
	if err := MergePatch(&p, []byte(`{"branding_text":null,"headline_style":{"text_transform":"uppercase"}}`)); err != nil {
		t.Fatalf("MergePatch: %v", err)
	}
	if p.BrandingText != "" {
		t.Errorf("BrandingText = %q, want cleared", p.BrandingText)
	}
	if p.HeadlineStyle.Transform != TransformUppercase || p.HeadlineStyle.FontWeight != WeightBold {
		t.Errorf("HeadlineStyle = %+v", p.HeadlineStyle)
	}
	if p.BackgroundColor == "" || p.Font == "" {
		t.Error("patched preferences lost defaults")
	}
}

func TestMergePatchRejectsBadJSON(t *testing.T) {
	s := SlideData{}
	if err := MergePatch(&s, []byte(`{`)); err == nil {
		t.Error("expected error for malformed patch")
	}
}
