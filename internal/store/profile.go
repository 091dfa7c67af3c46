// Package store provides database access for the per-user records the
// carousel service keeps: profiles, settings, carousels with their slides,
// and usage counters. Each store struct wraps a *sql.DB.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"caroumate/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ProfileStore handles user profile rows.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore with the given database connection.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Find retrieves the profile for a user. Returns nil if not found.
func (s *ProfileStore) Find(userID string) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	var niche []byte
	err := s.db.QueryRow(`
		SELECT name, email, niche, language, profile_complete
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.Name, &p.Email, &niche, &p.Language, &p.ProfileComplete)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if err := json.Unmarshal(niche, &p.Niche); err != nil {
		return nil, fmt.Errorf("decode profile niche: %w", err)
	}
	return p, nil
}

// Upsert creates or replaces the profile for a user.
func (s *ProfileStore) Upsert(userID string, p models.UserProfile) error {
	niche := p.Niche
	if niche == nil {
		niche = []string{}
	}
	nicheJSON, err := json.Marshal(niche)
	if err != nil {
		return fmt.Errorf("encode profile niche: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO profiles (user_id, name, email, niche, language, profile_complete, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			niche = EXCLUDED.niche,
			language = EXCLUDED.language,
			profile_complete = EXCLUDED.profile_complete,
			updated_at = EXCLUDED.updated_at
	`, userID, p.Name, p.Email, nicheJSON, p.Language, p.ProfileComplete)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
