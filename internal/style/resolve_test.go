package style

import (
	"testing"

	"caroumate/internal/models"
)

func strPtr(s string) *string                               { return &s }
func f64Ptr(v float64) *float64                             { return &v }
func decoPtr(d models.TextDecoration) *models.TextDecoration { return &d }

// TestResolveSlideOverridesWin verifies that every slide-level override
// beats the carousel value for that attribute.
func TestResolveSlideOverridesWin(t *testing.T) {
	prefs := models.DefaultPreferences()
	prefs.BackgroundColor = "#FFFFFF"
	prefs.FontColor = "#111111"
	prefs.BackgroundImage = "data:image/png;base64,AAAA"
	prefs.BackgroundOpacity = 0.5

	slide := models.SlideData{
		BackgroundColor:   strPtr("#FF0000"),
		FontColor:         strPtr("#00FF00"),
		BackgroundImage:   strPtr("data:video/mp4;base64,BBBB"),
		BackgroundOpacity: f64Ptr(0.25),
		HeadlineColor:     strPtr("#0000FF"),
		BodyColor:         strPtr("#FFFF00"),
	}

	r := Resolve(prefs, slide, nil)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"background color", r.BackgroundColor, "#FF0000"},
		{"font color", r.FontColor, "#00FF00"},
		{"background image", r.BackgroundImage, "data:video/mp4;base64,BBBB"},
		{"background opacity", r.BackgroundOpacity, 0.25},
		{"headline color", r.Headline.Color, "#0000FF"},
		{"body color", r.Body.Color, "#FFFF00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestResolveInheritsWithoutOverrides(t *testing.T) {
	prefs := models.DefaultPreferences()
	prefs.BackgroundColor = "#ABCDEF"
	prefs.FontColor = "#222222"

	r := Resolve(prefs, models.SlideData{}, nil)
	if r.BackgroundColor != "#ABCDEF" {
		t.Errorf("BackgroundColor = %q", r.BackgroundColor)
	}
	if r.Headline.Color != "#222222" || r.Body.Color != "#222222" {
		t.Errorf("text colours = %q / %q, want global font colour", r.Headline.Color, r.Body.Color)
	}
	if r.BackgroundImage != "" {
		t.Errorf("BackgroundImage = %q, want none", r.BackgroundImage)
	}
}

// TestResolveFontColorFallbackChain verifies that a slide font colour is
// the fallback for both headline and body, below their own overrides.
func TestResolveFontColorFallbackChain(t *testing.T) {
	prefs := models.DefaultPreferences()
	prefs.FontColor = "#000000"

	slide := models.SlideData{
		FontColor:     strPtr("#123456"),
		HeadlineColor: strPtr("#FF0000"),
	}
	r := Resolve(prefs, slide, nil)
	if r.Headline.Color != "#FF0000" {
		t.Errorf("headline colour = %q, want own override", r.Headline.Color)
	}
	if r.Body.Color != "#123456" {
		t.Errorf("body colour = %q, want slide font colour", r.Body.Color)
	}
}

// TestResolveTextStyleMergesPerAttribute pins the headline example: bold
// is inherited while the size is overridden.
func TestResolveTextStyleMergesPerAttribute(t *testing.T) {
	prefs := models.DefaultPreferences()
	prefs.HeadlineStyle = models.TextStyle{FontWeight: models.WeightBold, FontSize: f64Ptr(1.4)}

	slide := models.SlideData{HeadlineStyle: &models.TextStyle{FontSize: f64Ptr(2.0)}}
	r := Resolve(prefs, slide, nil)

	if r.Headline.FontWeight != models.WeightBold {
		t.Errorf("FontWeight = %q, want inherited bold", r.Headline.FontWeight)
	}
	if r.Headline.FontSize != 2.0 {
		t.Errorf("FontSize = %v, want 2.0", r.Headline.FontSize)
	}
}

func TestResolveTextStyleSubAttributes(t *testing.T) {
	prefs := models.DefaultPreferences()
	prefs.BodyStyle = models.TextStyle{
		Align:      models.AlignLeft,
		Decoration: decoPtr(models.DecorUnderline),
		Stroke:     &models.TextStroke{Color: "#000000", Width: 2},
	}
	slide := models.SlideData{BodyStyle: &models.TextStyle{
		Transform:  models.TransformUppercase,
		Decoration: decoPtr(models.DecorUnderline | models.DecorLineThrough),
		Stroke:     &models.TextStroke{Color: "#FFFFFF", Width: 0},
	}}

	r := Resolve(prefs, slide, nil)
	if r.Body.Align != models.AlignLeft {
		t.Errorf("Align = %q, want inherited left", r.Body.Align)
	}
	if r.Body.Transform != models.TransformUppercase {
		t.Errorf("Transform = %q", r.Body.Transform)
	}
	if r.Body.Decoration != models.DecorUnderline|models.DecorLineThrough {
		t.Errorf("Decoration = %v", r.Body.Decoration)
	}
	if r.Body.Stroke.Width != 0 || r.Body.Stroke.Color != "#FFFFFF" {
		t.Errorf("Stroke = %+v, want slide stroke", r.Body.Stroke)
	}
	if r.Body.FontSize != 0.8 {
		t.Errorf("FontSize = %v, want built-in 0.8", r.Body.FontSize)
	}
	if r.Body.FontWeight != models.WeightNormal {
		t.Errorf("FontWeight = %q, want built-in normal", r.Body.FontWeight)
	}
}

// TestResolveDoesNotMutateInputs guards the base and override records.
func TestResolveDoesNotMutateInputs(t *testing.T) {
	prefs := models.DefaultPreferences()
	slide := models.SlideData{HeadlineStyle: &models.TextStyle{FontSize: f64Ptr(3)}}
	kit := models.DefaultBrandKit()
	kit.Colors.Primary = "#101010"

	_ = Resolve(prefs, slide, &kit)

	if prefs.BackgroundColor != "#FFFFFF" {
		t.Errorf("prefs mutated: %q", prefs.BackgroundColor)
	}
	if *prefs.HeadlineStyle.FontSize != 1.4 {
		t.Errorf("prefs headline mutated")
	}
	if *slide.HeadlineStyle.FontSize != 3 || slide.HeadlineStyle.FontWeight != "" {
		t.Errorf("slide override mutated: %+v", slide.HeadlineStyle)
	}
}

func TestResolveWithBrandKit(t *testing.T) {
	prefs := models.DefaultPreferences()
	kit := models.BrandKit{
		Colors:        models.BrandColors{Primary: "#0A0A0A", Text: "#FAFAFA"},
		Fonts:         models.BrandFonts{Headline: "Poppins", Body: "Lora"},
		BrandingText:  "@acme",
		BrandingStyle: &models.OverlayStyle{Color: "#FF00FF", Opacity: 0.5, Position: models.TopLeft},
	}
	r := Resolve(prefs, models.SlideData{}, &kit)
	if r.BackgroundColor != "#0A0A0A" || r.FontColor != "#FAFAFA" || r.Font != "Lora" {
		t.Errorf("kit not applied: %q %q %q", r.BackgroundColor, r.FontColor, r.Font)
	}
	if r.BrandingText != "@acme" || r.Branding.Position != models.TopLeft {
		t.Errorf("branding not applied: %q %+v", r.BrandingText, r.Branding)
	}
	if r.Branding.FontSize != models.DefaultOverlayFontSize {
		t.Errorf("branding font size = %v, want default", r.Branding.FontSize)
	}

	// A slide override still wins over the kit.
	r = Resolve(prefs, models.SlideData{BackgroundColor: strPtr("#FF0000")}, &kit)
	if r.BackgroundColor != "#FF0000" {
		t.Errorf("slide override lost to kit: %q", r.BackgroundColor)
	}
}

func TestResolveEmptyImageOverrideHidesCarouselVisual(t *testing.T) {
	prefs := models.DefaultPreferences()
	prefs.BackgroundImage = "data:image/png;base64,AAAA"
	r := Resolve(prefs, models.SlideData{BackgroundImage: strPtr("")}, nil)
	if r.BackgroundImage != "" {
		t.Errorf("BackgroundImage = %q, want explicit none", r.BackgroundImage)
	}
}
