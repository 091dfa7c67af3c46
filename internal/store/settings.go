package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"caroumate/internal/models"
)

// SettingsStore handles per-user application settings.
type SettingsStore struct {
	db *sql.DB
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Find retrieves the settings for a user, filled in from the defaults.
// Returns nil if the user has never saved settings.
func (s *SettingsStore) Find(userID string) (*models.AppSettings, error) {
	var (
		model, key, prompt string
		kit                []byte
	)
	err := s.db.QueryRow(`
		SELECT ai_model, api_key, system_prompt, brand_kit
		FROM settings WHERE user_id = $1
	`, userID).Scan(&model, &key, &prompt, &kit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}

	doc := map[string]any{"ai_model": model, "api_key": key, "system_prompt": prompt}
	if len(kit) > 0 {
		doc["brand_kit"] = json.RawMessage(kit)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	out := &models.AppSettings{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

// Upsert creates or replaces the settings for a user.
func (s *SettingsStore) Upsert(userID string, st models.AppSettings) error {
	var kit []byte
	if st.BrandKit != nil {
		var err error
		if kit, err = json.Marshal(st.BrandKit); err != nil {
			return fmt.Errorf("encode brand kit: %w", err)
		}
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (user_id, ai_model, api_key, system_prompt, brand_kit, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			ai_model = EXCLUDED.ai_model,
			api_key = EXCLUDED.api_key,
			system_prompt = EXCLUDED.system_prompt,
			brand_kit = EXCLUDED.brand_kit,
			updated_at = EXCLUDED.updated_at
	`, userID, st.AIModel, st.APIKey, st.SystemPrompt, kit)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
