// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"caroumate/internal/ai"
	"caroumate/internal/export"
	"caroumate/internal/models"
	"caroumate/internal/persist"
)

// --- Carousel ---

func TestGenerate_Returns201WithStyles(t *testing.T) {
	env := newTestEnv(t)

	req := newRequest(http.MethodPost, "/api/carousel/generate", jsonBody(`{"topic":"sleep","niche":"Health"}`))
	rec := httptest.NewRecorder()
	env.API.Generate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Generate: got status %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	v := decodeView(t, rec)
	if v.Title != "sleep" || v.Category != "Health" {
		t.Errorf("Generate: title/category = %q/%q", v.Title, v.Category)
	}
	if len(v.Slides) != 3 || len(v.Styles) != 3 {
		t.Fatalf("Generate: %d slides, %d styles, want 3 and 3", len(v.Slides), len(v.Styles))
	}
	if v.Styles[0].SlideID != v.Slides[0].ID.String() {
		t.Errorf("Generate: style slide id = %s, want %s", v.Styles[0].SlideID, v.Slides[0].ID)
	}
	if v.Styles[0].BackgroundColor != "#FFFFFF" {
		t.Errorf("Generate: background = %q, want default #FFFFFF", v.Styles[0].BackgroundColor)
	}
}

func TestGenerate_MissingTopic_Returns400(t *testing.T) {
	env := newTestEnv(t)

	req := newRequest(http.MethodPost, "/api/carousel/generate", jsonBody(`{"niche":"Health"}`))
	rec := httptest.NewRecorder()
	env.API.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Generate: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if e := decodeError(t, rec); !strings.Contains(e.Error, "topic") {
		t.Errorf("Generate: error = %q, want it to mention topic", e.Error)
	}
}

func TestGenerate_NoAPIKey_Returns400WithCategory(t *testing.T) {
	env := newTestEnv(t)
	env.Gen.err = fmt.Errorf("generate slides: %w", ai.ErrAPIKeyNotConfigured)

	req := newRequest(http.MethodPost, "/api/carousel/generate", jsonBody(`{"topic":"sleep"}`))
	rec := httptest.NewRecorder()
	env.API.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Generate: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if e := decodeError(t, rec); e.Category != ai.CategoryNotConfigured {
		t.Errorf("Generate: category = %q, want %q", e.Category, ai.CategoryNotConfigured)
	}
}

// resourceExhausted is a Gemini rate-limit reply.
const resourceExhausted = `{"error":{"code":429,"message":"You exceeded your current quota, please check your plan and billing details.","status":"RESOURCE_EXHAUSTED"}}`

func TestGenerate_UpstreamQuota_Returns502(t *testing.T) {
	env := newTestEnv(t)
	env.Gen.err = &ai.APIError{Provider: "gemini", Status: http.StatusTooManyRequests, Body: resourceExhausted}

	req := newRequest(http.MethodPost, "/api/carousel/generate", jsonBody(`{"topic":"sleep"}`))
	rec := httptest.NewRecorder()
	env.API.Generate(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Generate: got status %d, want %d", rec.Code, http.StatusBadGateway)
	}
	e := decodeError(t, rec)
	if e.Category != ai.CategoryQuotaExceeded {
		t.Errorf("Generate: category = %q, want %q", e.Category, ai.CategoryQuotaExceeded)
	}
	if e.HelpURL == "" {
		t.Error("Generate: quota error should carry a help link")
	}
	if strings.Contains(e.Error, "RESOURCE_EXHAUSTED") {
		t.Errorf("Generate: raw upstream body leaked: %q", e.Error)
	}
}

func TestCurrent_NoCarousel_Returns404(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.API.Current(rec, newRequest(http.MethodGet, "/api/carousel", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Current: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPreview_ReturnsHTML(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.Preview(rec, newRequest(http.MethodGet, "/api/carousel/preview", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Preview: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Preview: Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Why sleep") {
		t.Error("Preview: body does not contain the first headline")
	}
}

func TestUpdatePreferences_AppliesToEverySlide(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	req := newRequest(http.MethodPatch, "/api/carousel/preferences", jsonBody(`{"background_color":"#101010","headline_style":{"font_size":2}}`))
	rec := httptest.NewRecorder()
	env.API.UpdatePreferences(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("UpdatePreferences: got status %d: %s", rec.Code, rec.Body.String())
	}
	v := decodeView(t, rec)
	for i, st := range v.Styles {
		if st.BackgroundColor != "#101010" {
			t.Errorf("slide %d: background = %q, want #101010", i, st.BackgroundColor)
		}
		if st.Headline.FontSize != 2 {
			t.Errorf("slide %d: headline size = %v, want 2", i, st.Headline.FontSize)
		}
	}
}

func TestUpdatePreferences_InvalidFont_Returns400(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	req := newRequest(http.MethodPatch, "/api/carousel/preferences", jsonBody(`{"font":"Wingdings"}`))
	rec := httptest.NewRecorder()
	env.API.UpdatePreferences(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("UpdatePreferences: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAssist_DefaultsToTitle(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.Assist(rec, newRequest(http.MethodPost, "/api/carousel/assist", jsonBody(`{"kind":"hook"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Assist: got status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out.Suggestions) != 1 || out.Suggestions[0] != "hook for sleep" {
		t.Errorf("Assist: suggestions = %v", out.Suggestions)
	}
}

func TestShare_ReturnsCaptionAndThread(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.Share(rec, newRequest(http.MethodPost, "/api/carousel/share", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Share: got status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Caption struct {
			HTML     string   `json:"html"`
			Hashtags []string `json:"hashtags"`
		} `json:"caption"`
		Thread struct {
			Text string `json:"text"`
		} `json:"thread"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Caption.HTML, "<strong>caption</strong>") {
		t.Errorf("Share: caption html = %q", out.Caption.HTML)
	}
	if out.Thread.Text != "1/ a thread" {
		t.Errorf("Share: thread = %q", out.Thread.Text)
	}
}

// --- Export ---

func TestExport_StreamsZip(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.Export(rec, newRequest(http.MethodPost, "/api/carousel/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Export: got status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Export: Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="sleep.zip"` {
		t.Errorf("Export: Content-Disposition = %q", cd)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("Export: read zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "slide-1.png,slide-2.png,slide-3.png" {
		t.Errorf("Export: entries = %v", names)
	}

	stats, err := env.Persist.Stats(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	if stats.DownloadCount != 1 {
		t.Errorf("Export: download count = %d, want 1", stats.DownloadCount)
	}
}

func TestExport_LinkWithoutStorage_Returns400(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.Export(rec, newRequest(http.MethodPost, "/api/carousel/export?deliver=link", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Export: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// fakeLinker records delivered archives, or fails with err.
type fakeLinker struct {
	err   error
	names []string
}

func (f *fakeLinker) DeliverArchive(_ context.Context, userID, name string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "https://s3.example.com/exports/" + userID + "/" + name + "?X-Amz-Expires=900", nil
}

func TestExport_Link(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)
	linker := &fakeLinker{}
	env.API.linker = linker

	rec := httptest.NewRecorder()
	env.API.Export(rec, newRequest(http.MethodPost, "/api/carousel/export?deliver=link", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Export: got status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		URL       string `json:"url"`
		Name      string `json:"name"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "sleep.zip" || !strings.HasPrefix(body.URL, "https://s3.example.com/exports/") || body.ExpiresIn != 900 {
		t.Errorf("Export: body = %+v", body)
	}
	if len(linker.names) != 1 {
		t.Errorf("Export: %d archives delivered, want 1", len(linker.names))
	}

	stats, _ := env.Persist.Stats(context.Background(), testUser)
	if stats.DownloadCount != 1 {
		t.Errorf("Export: download count = %d, want 1", stats.DownloadCount)
	}
}

func TestExport_LinkUploadFails_DoesNotCount(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)
	env.API.linker = &fakeLinker{err: errors.New("s3 put exports/user-1/sleep.zip: connection refused")}

	rec := httptest.NewRecorder()
	env.API.Export(rec, newRequest(http.MethodPost, "/api/carousel/export?deliver=link", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Export: got status %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if e := decodeError(t, rec); e.Error != "download failed" {
		t.Errorf("Export: error = %q, want %q", e.Error, "download failed")
	}

	stats, _ := env.Persist.Stats(context.Background(), testUser)
	if stats.DownloadCount != 0 {
		t.Errorf("Export: download count = %d, want 0", stats.DownloadCount)
	}

	// The export slot is free again.
	env.API.linker = &fakeLinker{}
	rec = httptest.NewRecorder()
	env.API.Export(rec, newRequest(http.MethodPost, "/api/carousel/export?deliver=link", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Export retry: got status %d", rec.Code)
	}
}

func TestExport_NoCarousel_Returns404(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.API.Export(rec, newRequest(http.MethodPost, "/api/carousel/export", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Export: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// --- Slides ---

func TestUpdateSlide_OverrideAndClear(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	id := c.Slides[1].ID.String()

	rec := httptest.NewRecorder()
	env.API.UpdateSlide(rec, newRequest(http.MethodPatch, "/api/slides/"+id,
		jsonBody(`{"font_color":"#FF0000","headline":"Edited"}`), "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("UpdateSlide: got status %d: %s", rec.Code, rec.Body.String())
	}
	v := decodeView(t, rec)
	if v.Slides[1].Headline != "Edited" {
		t.Errorf("UpdateSlide: headline = %q", v.Slides[1].Headline)
	}
	if v.Styles[1].Headline.Color != "#FF0000" {
		t.Errorf("UpdateSlide: headline colour = %q, want the slide font colour", v.Styles[1].Headline.Color)
	}
	if v.Styles[0].Headline.Color == "#FF0000" {
		t.Error("UpdateSlide: override leaked into another slide")
	}

	rec = httptest.NewRecorder()
	env.API.UpdateSlide(rec, newRequest(http.MethodPatch, "/api/slides/"+id,
		jsonBody(`{"font_color":null}`), "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("UpdateSlide clear: got status %d: %s", rec.Code, rec.Body.String())
	}
	v = decodeView(t, rec)
	if v.Slides[1].FontColor != nil {
		t.Errorf("UpdateSlide clear: font colour = %v, want nil", *v.Slides[1].FontColor)
	}
	if v.Styles[1].FontColor != v.Preferences.FontColor {
		t.Errorf("UpdateSlide clear: font colour = %q, want carousel %q", v.Styles[1].FontColor, v.Preferences.FontColor)
	}
}

func TestUpdateSlide_Errors(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	id := c.Slides[0].ID.String()

	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"bad id", "not-a-uuid", `{"headline":"x"}`, http.StatusBadRequest},
		{"unknown slide", uuid.NewString(), `{"headline":"x"}`, http.StatusNotFound},
		{"unknown field", id, `{"headlines":"x"}`, http.StatusBadRequest},
		{"bad colour", id, `{"background_color":"teal"}`, http.StatusBadRequest},
		{"not an object", id, `["headline"]`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.API.UpdateSlide(rec, newRequest(http.MethodPatch, "/api/slides/"+tt.id, jsonBody(tt.body), "id", tt.id))
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestMoveSlide(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	first := c.Slides[0].ID.String()

	rec := httptest.NewRecorder()
	env.API.MoveSlide(rec, newRequest(http.MethodPost, "/api/slides/"+first+"/move", jsonBody(`{"direction":"left"}`), "id", first))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("MoveSlide left edge: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = httptest.NewRecorder()
	env.API.MoveSlide(rec, newRequest(http.MethodPost, "/api/slides/"+first+"/move", jsonBody(`{"direction":"right"}`), "id", first))
	if rec.Code != http.StatusOK {
		t.Fatalf("MoveSlide: got status %d: %s", rec.Code, rec.Body.String())
	}
	if v := decodeView(t, rec); v.Slides[1].ID.String() != first {
		t.Errorf("MoveSlide: slide not moved to position 2")
	}
}

func TestGenerateImage_SetsVisual(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	id := c.Slides[0].ID.String()

	rec := httptest.NewRecorder()
	env.API.GenerateImage(rec, newRequest(http.MethodPost, "/api/slides/"+id+"/image", nil, "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("GenerateImage: got status %d: %s", rec.Code, rec.Body.String())
	}
	v := decodeView(t, rec)
	if v.Slides[0].BackgroundImage == nil || !strings.HasPrefix(*v.Slides[0].BackgroundImage, "data:image/png;base64,") {
		t.Errorf("GenerateImage: visual = %v", v.Slides[0].BackgroundImage)
	}
	if v.Stale {
		t.Error("GenerateImage: result reported stale")
	}
}

func TestGenerateImage_NoImage_Returns502(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	id := c.Slides[0].ID.String()
	env.Gen.imageErr = ai.ErrNoImage

	rec := httptest.NewRecorder()
	env.API.GenerateImage(rec, newRequest(http.MethodPost, "/api/slides/"+id+"/image", nil, "id", id))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("GenerateImage: got status %d, want %d", rec.Code, http.StatusBadGateway)
	}
	if e := decodeError(t, rec); e.Category != ai.CategoryImageGeneration {
		t.Errorf("GenerateImage: category = %q", e.Category)
	}
}

func TestEditImage_WithoutImage_Returns400(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	id := c.Slides[0].ID.String()

	rec := httptest.NewRecorder()
	env.API.EditImage(rec, newRequest(http.MethodPost, "/api/slides/"+id+"/edit", jsonBody(`{"prompt":"brighter"}`), "id", id))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("EditImage: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRegenerateContent(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	id := c.Slides[2].ID.String()

	rec := httptest.NewRecorder()
	env.API.RegenerateContent(rec, newRequest(http.MethodPost, "/api/slides/"+id+"/regenerate", jsonBody(`{"part":"body"}`), "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("RegenerateContent: got status %d: %s", rec.Code, rec.Body.String())
	}
	if v := decodeView(t, rec); v.Slides[2].Body != "new body" {
		t.Errorf("RegenerateContent: body = %q", v.Slides[2].Body)
	}
}

func TestClearOverrides_UnknownField_Returns400(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.ClearOverrides(rec, newRequest(http.MethodDelete, "/api/slides/overrides/headline", nil, "field", "headline"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ClearOverrides: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// multipartBody builds an upload with one "file" part.
func multipartBody(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload.bin")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadSlideVisual(t *testing.T) {
	env := newTestEnv(t)
	c := env.generate(t)
	id := c.Slides[0].ID.String()

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	body, ct := multipartBody(t, png)
	req := newRequest(http.MethodPost, "/api/slides/"+id+"/visual", body, "id", id)
	req.Header.Set("Content-Type", ct)

	rec := httptest.NewRecorder()
	env.API.UploadSlideVisual(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("UploadSlideVisual: got status %d: %s", rec.Code, rec.Body.String())
	}
	v := decodeView(t, rec)
	if v.Slides[0].BackgroundImage == nil || !strings.HasPrefix(*v.Slides[0].BackgroundImage, "data:image/webp;base64,") {
		t.Errorf("UploadSlideVisual: visual = %v, want optimised webp", v.Slides[0].BackgroundImage)
	}

	rec = httptest.NewRecorder()
	env.API.RemoveSlideVisual(rec, newRequest(http.MethodDelete, "/api/slides/"+id+"/visual", nil, "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("RemoveSlideVisual: got status %d", rec.Code)
	}
	if v := decodeView(t, rec); v.Slides[0].BackgroundImage != nil {
		t.Error("RemoveSlideVisual: visual still set")
	}
}

func TestUploadCarouselVisual_RejectsText(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	body, ct := multipartBody(t, []byte("just some text"))
	req := newRequest(http.MethodPost, "/api/carousel/visual", body)
	req.Header.Set("Content-Type", ct)

	rec := httptest.NewRecorder()
	env.API.UploadCarouselVisual(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("UploadCarouselVisual: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUploadCarouselVisual_MissingFile_Returns400(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "x")
	mw.Close()
	req := newRequest(http.MethodPost, "/api/carousel/visual", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	env.API.UploadCarouselVisual(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("UploadCarouselVisual: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// --- History and account ---

func TestHistory_OpenAndDelete(t *testing.T) {
	env := newTestEnv(t)
	first := env.generate(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.History(rec, newRequest(http.MethodGet, "/api/history", nil))
	var list struct {
		Carousels []models.Carousel `json:"carousels"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Carousels) != 2 || list.Carousels[1].ID != first.ID {
		t.Fatalf("History: got %d carousels, want 2 with the first generated last", len(list.Carousels))
	}

	id := first.ID.String()
	rec = httptest.NewRecorder()
	env.API.OpenHistory(rec, newRequest(http.MethodPost, "/api/history/"+id+"/open", nil, "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("OpenHistory: got status %d", rec.Code)
	}
	if v := decodeView(t, rec); v.ID != first.ID {
		t.Errorf("OpenHistory: opened %s, want %s", v.ID, first.ID)
	}

	rec = httptest.NewRecorder()
	env.API.DeleteHistory(rec, newRequest(http.MethodDelete, "/api/history/"+id, nil, "id", id))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DeleteHistory: got status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.API.Current(rec, newRequest(http.MethodGet, "/api/carousel", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Current after deleting the open carousel: got status %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = httptest.NewRecorder()
	env.API.DeleteHistory(rec, newRequest(http.MethodDelete, "/api/history/"+id, nil, "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("DeleteHistory twice: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestClearHistory(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.ClearHistory(rec, newRequest(http.MethodDelete, "/api/history", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ClearHistory: got status %d", rec.Code)
	}
	history, err := env.Service.History(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("ClearHistory: %d carousels left", len(history))
	}
}

func TestSettings_HidesAndKeepsAPIKey(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.API.SaveSettings(rec, newRequest(http.MethodPut, "/api/settings",
		jsonBody(`{"api_key":"secret","ai_model":"gemini-2.5-pro"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("SaveSettings: got status %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("SaveSettings: response leaks the API key")
	}

	rec = httptest.NewRecorder()
	env.API.SaveSettings(rec, newRequest(http.MethodPut, "/api/settings",
		jsonBody(`{"system_prompt":"Be brief."}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("SaveSettings: got status %d: %s", rec.Code, rec.Body.String())
	}

	s, err := env.Service.Settings(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	if s.APIKey != "secret" {
		t.Errorf("SaveSettings: stored key = %q, want it kept", s.APIKey)
	}
	if s.AIModel != models.ModelGeminiFlash {
		t.Errorf("SaveSettings: model = %q, want the default after a replace", s.AIModel)
	}
	if s.SystemPrompt != "Be brief." || s.BrandKit == nil {
		t.Errorf("SaveSettings: settings = %+v", s)
	}

	rec = httptest.NewRecorder()
	env.API.Settings(rec, newRequest(http.MethodGet, "/api/settings", nil))
	var view settingsView
	json.Unmarshal(rec.Body.Bytes(), &view)
	if !view.APIKeySet {
		t.Error("Settings: api_key_set = false, want true")
	}
}

func TestSaveSettings_InvalidModel_Returns400(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.API.SaveSettings(rec, newRequest(http.MethodPut, "/api/settings", jsonBody(`{"ai_model":"gpt-2"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("SaveSettings: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestProfile_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.API.SaveProfile(rec, newRequest(http.MethodPut, "/api/profile",
		jsonBody(`{"name":"Ana","niche":["Fitness"],"profile_complete":true}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("SaveProfile: got status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	env.API.Profile(rec, newRequest(http.MethodGet, "/api/profile", nil))
	var p models.UserProfile
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Name != "Ana" || len(p.Niche) != 1 || !p.ProfileComplete {
		t.Errorf("Profile: got %+v", p)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.generate(t)
	env.generate(t)

	rec := httptest.NewRecorder()
	env.API.Stats(rec, newRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Stats: got status %d", rec.Code)
	}
	var d struct {
		CarouselCount    int64  `json:"carousel_count"`
		HistoryCount     int    `json:"history_count"`
		MostUsedCategory string `json:"most_used_category"`
	}
	json.Unmarshal(rec.Body.Bytes(), &d)
	if d.CarouselCount != 2 || d.HistoryCount != 2 || d.MostUsedCategory != "Health" {
		t.Errorf("Stats: got %+v", d)
	}
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", invalid("bad"), http.StatusBadRequest},
		{"unexpected", fmt.Errorf("open: %w", errors.New("disk on fire")), http.StatusInternalServerError},
		{"upstream", &ai.APIError{Provider: "gemini", Status: 500, Body: "boom"}, http.StatusBadGateway},
		{"malformed", ai.ErrMalformedResponse, http.StatusBadGateway},
		{"upstream quota", &ai.APIError{Provider: "gemini", Status: 429, Body: resourceExhausted}, http.StatusBadGateway},
		{"storage quota", fmt.Errorf("write settings: %w", persist.ErrQuotaExceeded), http.StatusInsufficientStorage},
		{"history too large", persist.ErrHistoryTooLarge, http.StatusInsufficientStorage},
		{"quota wording alone", errors.New("monthly quota report failed"), http.StatusInternalServerError},
		{"no slides", export.ErrNoSlides, http.StatusInternalServerError},
		{"undelivered", fmt.Errorf("%w: %w", export.ErrDelivery, errors.New("reset")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, newRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
