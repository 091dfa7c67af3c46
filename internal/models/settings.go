// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "encoding/json"

// DefaultSystemPrompt is prepended to every content generation request
// unless the user configures their own.
const DefaultSystemPrompt = "You are an expert social media content strategist specializing in creating viral carousels."

// BrandKit is a reusable style profile a user can apply to a carousel.
type BrandKit struct {
	Colors        BrandColors   `json:"colors"`
	Fonts         BrandFonts    `json:"fonts"`
	Logo          string        `json:"logo,omitempty"`
	BrandingText  string        `json:"branding_text,omitempty"`
	BrandingStyle *OverlayStyle `json:"branding_style,omitempty"`
}

type BrandColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Text      string `json:"text"`
}

type BrandFonts struct {
	Headline FontChoice `json:"headline"`
	Body     FontChoice `json:"body"`
}

// AppSettings is the per-user application configuration.
type AppSettings struct {
	AIModel      AIModel   `json:"ai_model"`
	APIKey       string    `json:"api_key"`
	SystemPrompt string    `json:"system_prompt"`
	BrandKit     *BrandKit `json:"brand_kit,omitempty"`
}

// DefaultBrandKit returns the brand kit new users start with.
func DefaultBrandKit() BrandKit {
	return BrandKit{
		Colors: BrandColors{Primary: "#FFFFFF", Secondary: "#00C2CB", Text: "#111827"},
		Fonts:  BrandFonts{Headline: FontPoppins, Body: FontInter},
		BrandingStyle: &OverlayStyle{
			Color:    "#111827",
			Opacity:  0.75,
			Position: BottomRight,
			FontSize: DefaultOverlayFontSize,
		},
	}
}

// DefaultSettings returns the settings new users start with.
func DefaultSettings() AppSettings {
	kit := DefaultBrandKit()
	return AppSettings{
		AIModel:      ModelGeminiFlash,
		SystemPrompt: DefaultSystemPrompt,
		BrandKit:     &kit,
	}
}

// UnmarshalJSON decodes onto DefaultSettings, including the nested brand
// kit, so partial stored records come back complete.
func (s *AppSettings) UnmarshalJSON(data []byte) error {
	type plain AppSettings
	d := plain(DefaultSettings())
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*s = AppSettings(d)
	if !s.AIModel.Valid() {
		s.AIModel = ModelGeminiFlash
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = DefaultSystemPrompt
	}
	if s.BrandKit == nil {
		kit := DefaultBrandKit()
		s.BrandKit = &kit
	}
	return nil
}

// UserProfile is the minimal profile the generator reads.
type UserProfile struct {
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Niche           []string `json:"niche"`
	Language        string   `json:"language,omitempty"`
	ProfileComplete bool     `json:"profile_complete"`
}

// Stats holds per-user usage counters.
type Stats struct {
	DownloadCount int64 `json:"download_count"`
	CarouselCount int64 `json:"carousel_count"`
}
