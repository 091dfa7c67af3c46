package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"caroumate/internal/media"
	"caroumate/internal/models"
)

// openAIProvider implements the Provider interface using the OpenAI
// chat completions API (POST /v1/chat/completions) and the image API
// (POST /v1/images/generations).
//
// The per-request model names Gemini models, so it is ignored here; only
// the per-request key applies.
type openAIProvider struct {
	config ProviderConfig
	client *http.Client
}

// newOpenAI creates a new OpenAI provider.
func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gpt-image-1"
	}
	return &openAIProvider{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *openAIProvider) Name() string { return "openai" }

// Generate sends a chat completion request to OpenAI and returns the
// assistant's response text.
func (p *openAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	text, err := p.doChat(ctx, openAIRequest{
		Model:    p.config.Model,
		Messages: chatMessages(systemPrompt, userPrompt),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateJSON uses a json_schema response format. The API requires an
// object at the top level, so other schemas are wrapped in an "items"
// property and unwrapped again.
func (p *openAIProvider) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) ([]byte, error) {
	wrapped := schema.Type != "object"
	root := schema
	if wrapped {
		root = Object(map[string]*Schema{"items": schema}, "items")
	}

	text, err := p.doChat(ctx, openAIRequest{
		Model:    p.config.Model,
		Messages: chatMessages(systemPrompt, userPrompt),
		ResponseFormat: &openAIResponseFormat{
			Type:       "json_schema",
			JSONSchema: &openAIJSONSchema{Name: "response", Schema: root},
		},
	})
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	if !wrapped {
		return []byte(text), nil
	}

	var envelope struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil || len(envelope.Items) == 0 {
		return nil, ErrMalformedResponse
	}
	return envelope.Items, nil
}

// GenerateImage calls the image API. Portrait ratios use the tall size.
func (p *openAIProvider) GenerateImage(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error) {
	size := "1024x1024"
	if ratio == models.RatioPortrait || ratio == models.RatioStory {
		size = "1024x1536"
	}

	var result openAIImageResponse
	if err := p.post(ctx, "/images/generations", openAIImageRequest{
		Model:  p.config.ImageModel,
		Prompt: prompt,
		Size:   size,
		N:      1,
	}, &result); err != nil {
		return media.Payload{}, err
	}

	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return media.Payload{}, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return media.Payload{}, fmt.Errorf("%w: image data: %v", ErrMalformedResponse, err)
	}
	return media.Payload{MediaType: media.Sniff(data), Data: data}, nil
}

// doChat performs the HTTP call to the chat completions endpoint.
func (p *openAIProvider) doChat(ctx context.Context, body openAIRequest) (string, error) {
	var result openAIResponse
	if err := p.post(ctx, "/chat/completions", body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return result.Choices[0].Message.Content, nil
}

func (p *openAIProvider) post(ctx context.Context, path string, body, out any) error {
	creds := credentialsFrom(ctx, p.config)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("openai marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openai read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{Provider: "openai", Status: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: openai unmarshal: %v", ErrMalformedResponse, err)
	}
	return nil
}

func chatMessages(systemPrompt, userPrompt string) []openAIMessage {
	var out []openAIMessage
	if systemPrompt != "" {
		out = append(out, openAIMessage{Role: "system", Content: systemPrompt})
	}
	return append(out, openAIMessage{Role: "user", Content: userPrompt})
}

// --- OpenAI request/response types ---

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIJSONSchema struct {
	Name   string  `json:"name"`
	Schema *Schema `json:"schema"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}
