// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"caroumate/internal/media"
	"caroumate/internal/models"
)

const (
	geminiBaseURL    = "https://generativelanguage.googleapis.com"
	geminiImageModel = "gemini-2.5-flash-image"
	geminiVideoModel = "veo-3.1-fast-generate-preview"

	// veoPollInterval is how often a pending video operation is checked.
	veoPollInterval = 10 * time.Second
	// veoMaxWait bounds a single video generation.
	veoMaxWait = 10 * time.Minute
)

// geminiProvider implements the Provider interface using the Google
// Gemini REST API (POST /v1beta/models/{model}:generateContent).
// Images use the image model with the IMAGE response modality; videos use
// Veo through a long-running operation.
type geminiProvider struct {
	config       ProviderConfig
	client       *http.Client
	mediaClient  *http.Client
	pollInterval time.Duration
}

// newGemini creates a new Google Gemini provider.
func newGemini(cfg ProviderConfig) *geminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = string(models.ModelGeminiFlash)
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = geminiImageModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = geminiVideoModel
	}
	return &geminiProvider{
		config:       cfg,
		client:       &http.Client{Timeout: 60 * time.Second},
		mediaClient:  &http.Client{Timeout: 120 * time.Second},
		pollInterval: veoPollInterval,
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

// Generate sends a generateContent request to the Gemini API using the
// request model, or the configured one.
func (p *geminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	creds := credentialsFrom(ctx, p.config)
	body := geminiRequest{
		SystemInstruction: systemInstruction(systemPrompt),
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: userPrompt}}}},
	}

	var result geminiResponse
	if err := p.post(ctx, p.client, creds, creds.Model, "generateContent", body, &result); err != nil {
		return "", err
	}
	text := result.text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateJSON asks for application/json output constrained by schema.
func (p *geminiProvider) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) ([]byte, error) {
	creds := credentialsFrom(ctx, p.config)
	body := geminiRequest{
		SystemInstruction: systemInstruction(systemPrompt),
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: userPrompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema.upper(),
		},
	}

	var result geminiResponse
	if err := p.post(ctx, p.client, creds, creds.Model, "generateContent", body, &result); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(result.text())
	if text == "" {
		return nil, ErrEmptyResponse
	}
	return []byte(text), nil
}

// GenerateImage creates an image with the image model. The aspect ratio
// is requested in the prompt.
func (p *geminiProvider) GenerateImage(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error) {
	text := fmt.Sprintf("%s. The image should have an aspect ratio of %s.", prompt, ratio)
	return p.image(ctx, []geminiPart{{Text: text}})
}

// EditImage sends the image and the instruction together and returns the
// edited image.
func (p *geminiProvider) EditImage(ctx context.Context, image media.Payload, prompt string) (media.Payload, error) {
	return p.image(ctx, []geminiPart{
		{InlineData: &geminiInlineData{
			MimeType: image.MediaType,
			Data:     base64.StdEncoding.EncodeToString(image.Data),
		}},
		{Text: prompt},
	})
}

func (p *geminiProvider) image(ctx context.Context, parts []geminiPart) (media.Payload, error) {
	creds := credentialsFrom(ctx, p.config)
	body := geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"IMAGE"}},
	}

	var result geminiResponse
	if err := p.post(ctx, p.mediaClient, creds, p.config.ImageModel, "generateContent", body, &result); err != nil {
		return media.Payload{}, err
	}

	for _, c := range result.Candidates {
		for _, part := range c.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return media.Payload{}, fmt.Errorf("%w: image data: %v", ErrMalformedResponse, err)
			}
			mediaType := part.InlineData.MimeType
			if mediaType == "" {
				mediaType = "image/png"
			}
			return media.Payload{MediaType: mediaType, Data: data}, nil
		}
	}
	return media.Payload{}, ErrNoImage
}

// GenerateVideo starts a Veo operation, polls it until done and downloads
// the first generated sample. Portrait ratios produce 9:16 video, the rest
// 16:9.
func (p *geminiProvider) GenerateVideo(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error) {
	creds := credentialsFrom(ctx, p.config)
	ctx, cancel := context.WithTimeout(ctx, veoMaxWait)
	defer cancel()

	body := veoRequest{
		Instances: []veoInstance{{Prompt: prompt}},
		Parameters: veoParameters{
			AspectRatio: VideoAspectRatio(ratio),
			Resolution:  "720p",
			SampleCount: 1,
		},
	}

	var op veoOperation
	if err := p.post(ctx, p.client, creds, p.config.VideoModel, "predictLongRunning", body, &op); err != nil {
		return media.Payload{}, err
	}

	for !op.Done {
		if op.Name == "" {
			return media.Payload{}, fmt.Errorf("%w: video operation has no name", ErrMalformedResponse)
		}
		select {
		case <-ctx.Done():
			return media.Payload{}, fmt.Errorf("gemini video: %w", ctx.Err())
		case <-time.After(p.pollInterval):
		}
		name := op.Name
		op = veoOperation{}
		if err := p.do(ctx, p.client, creds, http.MethodGet, p.config.BaseURL+"/v1beta/"+name, nil, &op); err != nil {
			return media.Payload{}, err
		}
	}

	if len(op.Error) > 0 && string(op.Error) != "null" {
		return media.Payload{}, &APIError{Provider: "gemini", Status: op.errorCode(), Body: `{"error":` + string(op.Error) + `}`}
	}
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 || samples[0].Video.URI == "" {
		return media.Payload{}, fmt.Errorf("%w: video generation finished without a video", ErrEmptyResponse)
	}
	return p.download(ctx, creds, samples[0].Video.URI)
}

// VideoAspectRatio maps a carousel ratio to one Veo accepts.
func VideoAspectRatio(ratio models.AspectRatio) string {
	switch ratio {
	case models.RatioPortrait, models.RatioStory:
		return "9:16"
	}
	return "16:9"
}

func (p *geminiProvider) download(ctx context.Context, creds Credentials, uri string) (media.Payload, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+creds.APIKey, nil)
	if err != nil {
		return media.Payload{}, fmt.Errorf("gemini video request: %w", err)
	}
	resp, err := p.mediaClient.Do(req)
	if err != nil {
		return media.Payload{}, fmt.Errorf("gemini video download: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return media.Payload{}, fmt.Errorf("gemini video read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return media.Payload{}, &APIError{Provider: "gemini", Status: resp.StatusCode, Body: string(data)}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "video/") {
		mediaType = "video/mp4"
	}
	return media.Payload{MediaType: mediaType, Data: data}, nil
}

// post calls POST /v1beta/models/{model}:{method}.
func (p *geminiProvider) post(ctx context.Context, client *http.Client, creds Credentials, model, method string, body, out any) error {
	url := fmt.Sprintf("%s/v1beta/models/%s:%s", p.config.BaseURL, model, method)
	return p.do(ctx, client, creds, http.MethodPost, url, body, out)
}

func (p *geminiProvider) do(ctx context.Context, client *http.Client, creds Credentials, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gemini marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("gemini request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-goog-api-key", creds.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gemini read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Provider: "gemini", Status: resp.StatusCode, Body: string(respBody)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: gemini unmarshal: %v", ErrMalformedResponse, err)
	}
	return nil
}

func systemInstruction(prompt string) *geminiContent {
	if prompt == "" {
		return nil
	}
	return &geminiContent{Parts: []geminiPart{{Text: prompt}}}
}

// --- Gemini API types ---

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema  `json:"responseSchema,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// text joins the text parts of the first candidate.
func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// --- Veo long-running operation types ---

type veoInstance struct {
	Prompt string `json:"prompt"`
}

type veoParameters struct {
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution,omitempty"`
	SampleCount int    `json:"sampleCount,omitempty"`
}

type veoRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoOperation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    json.RawMessage `json:"error,omitempty"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

func (op veoOperation) errorCode() int {
	var e struct {
		Code int `json:"code"`
	}
	_ = json.Unmarshal(op.Error, &e)
	return e.Code
}
