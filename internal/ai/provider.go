// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai is the boundary to the generation services. Each provider
// implements Provider for plain text and any of the optional capability
// interfaces (structured output, images, image edits, video). The Registry
// selects the active provider by name and attaches the caller's API key
// to each request.
package ai

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"caroumate/internal/media"
	"caroumate/internal/models"
)

// Provider defines the interface that all AI providers must implement.
// Each provider handles its own HTTP communication and response parsing.
type Provider interface {
	// Generate sends a prompt to the LLM and returns the generated text.
	// systemPrompt sets the model's behaviour; userPrompt is the user's request.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
}

// StructuredGenerator returns JSON matching a response schema.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) ([]byte, error)
}

// ImageGenerator creates an image from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error)
}

// ImageEditor transforms an existing image according to a prompt.
type ImageEditor interface {
	EditImage(ctx context.Context, image media.Payload, prompt string) (media.Payload, error)
}

// VideoGenerator creates a short muted video clip from a text prompt.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error)
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey     string
	Model      string
	ImageModel string
	VideoModel string
	BaseURL    string
}

// Credentials override the provider's server configuration for one request.
type Credentials struct {
	APIKey string
	Model  string
}

type credentialsKey struct{}

// WithCredentials attaches per-request credentials to ctx.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, c)
}

// RequestCredentials returns the credentials attached to ctx.
func RequestCredentials(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey{}).(Credentials)
	return c, ok
}

// credentialsFrom returns the request credentials with empty fields
// filled from cfg.
func credentialsFrom(ctx context.Context, cfg ProviderConfig) Credentials {
	c, _ := RequestCredentials(ctx)
	if c.APIKey == "" {
		c.APIKey = cfg.APIKey
	}
	if c.Model == "" {
		c.Model = cfg.Model
	}
	return c
}

// Registry manages available AI providers and selects the active one.
// It supports runtime switching by changing the active provider name.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	serverKey map[string]bool
	active    string
}

// NewRegistry creates a registry with a provider for every known name in
// configs. Providers without a server key are still registered, since
// users may supply their own key per request.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		serverKey: make(map[string]bool),
		active:    active,
	}

	for name, cfg := range configs {
		switch name {
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		default:
			continue
		}
		r.serverKey[name] = cfg.APIKey != ""
	}
	return r
}

// Register adds or replaces a provider in the registry. Registered
// providers are assumed to carry their own credentials.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	r.serverKey[name] = true
}

// Active returns the currently active provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("ai: no provider configured for %q", r.active)
	}
	return p, nil
}

// SetActive switches the active provider at runtime.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("ai: provider %q is not available", name)
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Available returns the sorted names of all registered providers.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasProvider checks whether a named provider is registered.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// ready returns the active provider once a usable key is known for the
// request. No network call is made without one.
func (r *Registry) ready(ctx context.Context) (Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[r.active]
	hasServerKey := r.serverKey[r.active]
	name := r.active
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("ai: no provider configured for %q", name)
	}
	c, _ := RequestCredentials(ctx)
	if c.APIKey == "" && !hasServerKey {
		return nil, ErrAPIKeyNotConfigured
	}
	return p, nil
}

// Generate calls the active provider's Generate method.
func (r *Registry) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	p, err := r.ready(ctx)
	if err != nil {
		return "", err
	}
	return p.Generate(ctx, systemPrompt, userPrompt)
}

// GenerateJSON asks the active provider for output matching schema.
func (r *Registry) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) ([]byte, error) {
	p, err := r.ready(ctx)
	if err != nil {
		return nil, err
	}
	sg, ok := p.(StructuredGenerator)
	if !ok {
		return nil, fmt.Errorf("%w: provider %q has no structured output", ErrUnsupported, p.Name())
	}
	return sg.GenerateJSON(ctx, systemPrompt, userPrompt, schema)
}

// GenerateImage calls the active provider's image generation if supported.
func (r *Registry) GenerateImage(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error) {
	p, err := r.ready(ctx)
	if err != nil {
		return media.Payload{}, err
	}
	ig, ok := p.(ImageGenerator)
	if !ok {
		return media.Payload{}, fmt.Errorf("%w: provider %q does not generate images", ErrUnsupported, p.Name())
	}
	return ig.GenerateImage(ctx, prompt, ratio)
}

// EditImage calls the active provider's image editing if supported.
func (r *Registry) EditImage(ctx context.Context, image media.Payload, prompt string) (media.Payload, error) {
	p, err := r.ready(ctx)
	if err != nil {
		return media.Payload{}, err
	}
	ie, ok := p.(ImageEditor)
	if !ok {
		return media.Payload{}, fmt.Errorf("%w: provider %q does not edit images", ErrUnsupported, p.Name())
	}
	return ie.EditImage(ctx, image, prompt)
}

// GenerateVideo calls the active provider's video generation if supported.
func (r *Registry) GenerateVideo(ctx context.Context, prompt string, ratio models.AspectRatio) (media.Payload, error) {
	p, err := r.ready(ctx)
	if err != nil {
		return media.Payload{}, err
	}
	vg, ok := p.(VideoGenerator)
	if !ok {
		return media.Payload{}, fmt.Errorf("%w: provider %q does not generate video", ErrUnsupported, p.Name())
	}
	return vg.GenerateVideo(ctx, prompt, ratio)
}

// SupportsImageGeneration returns true if the active provider can generate images.
func (r *Registry) SupportsImageGeneration() bool {
	p, err := r.Active()
	if err != nil {
		return false
	}
	_, ok := p.(ImageGenerator)
	return ok
}

// SupportsVideoGeneration returns true if the active provider can generate video.
func (r *Registry) SupportsVideoGeneration() bool {
	p, err := r.Active()
	if err != nil {
		return false
	}
	_, ok := p.(VideoGenerator)
	return ok
}
