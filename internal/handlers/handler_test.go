// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the API handler
// tests. The carousel service runs over the in-memory persistence backend
// with a canned generator, so no external service is needed.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"caroumate/internal/ai"
	"caroumate/internal/carousel"
	"caroumate/internal/media"
	"caroumate/internal/middleware"
	"caroumate/internal/models"
	"caroumate/internal/persist"
	"caroumate/internal/render"
)

const testUser = "user-1"

// mockGenerator implements carousel.Generator with canned results.
type mockGenerator struct {
	err      error
	imageErr error
}

func (m *mockGenerator) GenerateSlides(_ context.Context, req ai.ContentRequest) ([]ai.SlideContent, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []ai.SlideContent{
		{Headline: "Why " + req.Topic, Body: "Because", VisualPrompt: "sunrise"},
		{Headline: "How", Body: "Step by step", VisualPrompt: "stairs"},
		{Headline: "Follow for more", Body: "Daily tips", VisualPrompt: "phone"},
	}, nil
}

func (m *mockGenerator) GenerateImage(context.Context, string, models.AspectRatio) (media.Payload, error) {
	if m.imageErr != nil {
		return media.Payload{}, m.imageErr
	}
	return media.Payload{MediaType: "image/png", Data: []byte("png")}, nil
}

func (m *mockGenerator) GenerateVideo(context.Context, string, models.AspectRatio) (media.Payload, error) {
	return media.Payload{MediaType: "video/mp4", Data: []byte("mp4")}, nil
}

func (m *mockGenerator) EditImage(_ context.Context, img media.Payload, _ string) (media.Payload, error) {
	return img, nil
}

func (m *mockGenerator) SuggestDesign(context.Context, string, string) (ai.DesignSuggestion, error) {
	return ai.DesignSuggestion{BackgroundColor: "#000000", FontColor: "#FFFFFF", Font: models.FontPoppins, Style: models.StyleBold}, nil
}

func (m *mockGenerator) Assist(_ context.Context, topic string, kind ai.AssistKind, _ string) ([]string, error) {
	return []string{string(kind) + " for " + topic}, nil
}

func (m *mockGenerator) Caption(context.Context, []models.SlideData, string) (string, error) {
	return "A **caption** #tips", nil
}

func (m *mockGenerator) Thread(context.Context, []models.SlideData, string) (string, error) {
	return "1/ a thread", nil
}

func (m *mockGenerator) RegenerateText(_ context.Context, _ string, _ models.SlideData, part ai.TextPart) (string, error) {
	return "new " + string(part), nil
}

type stubPainter struct{}

func (stubPainter) PNG(_ context.Context, t render.Tree) ([]byte, error) {
	return []byte("png:" + t.SlideID.String()), nil
}

// testEnv holds the dependencies of a handler test.
type testEnv struct {
	Gen     *mockGenerator
	Persist *persist.Store
	Service *carousel.Service
	API     *API
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	gen := &mockGenerator{}
	p := persist.New(persist.NewMemoryBackend(0))
	svc := carousel.New(gen, p, stubPainter{}, nil,
		carousel.WithClock(func() time.Time { return time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC) }),
		carousel.WithOptimizer(func([]byte) (media.Payload, error) {
			return media.Payload{MediaType: "image/webp", Data: []byte("webp")}, nil
		}),
	)

	return &testEnv{
		Gen:     gen,
		Persist: p,
		Service: svc,
		API:     NewAPI(svc, renderer, nil),
	}
}

// generate opens a fresh carousel for testUser.
func (env *testEnv) generate(t *testing.T) *models.Carousel {
	t.Helper()
	c, err := env.Service.Generate(context.Background(), testUser, carousel.GenerateRequest{Topic: "sleep", Niche: "Health"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return c
}

// newRequest builds a request for testUser. params are chi URL
// parameters as key, value pairs.
func newRequest(method, target string, body io.Reader, params ...string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.WithUser(req.Context(), testUser)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func jsonBody(s string) io.Reader {
	return bytes.NewBufferString(s)
}

// decodeView decodes a carousel response.
func decodeView(t *testing.T, rec *httptest.ResponseRecorder) *testView {
	t.Helper()
	var v testView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return &v
}

// testView mirrors carouselView for decoding.
type testView struct {
	models.Carousel
	Styles []struct {
		SlideID         string `json:"slide_id"`
		BackgroundColor string `json:"background_color"`
		FontColor       string `json:"font_color"`
		Headline        struct {
			Color    string  `json:"color"`
			FontSize float64 `json:"font_size"`
		} `json:"headline"`
	} `json:"styles"`
	Stale bool `json:"stale"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body: %v\nbody: %s", err, rec.Body.String())
	}
	return e
}
