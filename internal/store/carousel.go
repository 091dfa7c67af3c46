// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"caroumate/internal/models"
)

// slideOverrides is the JSONB form of a slide's optional fields.
type slideOverrides struct {
	BackgroundColor   *string           `json:"background_color,omitempty"`
	FontColor         *string           `json:"font_color,omitempty"`
	BackgroundImage   *string           `json:"background_image,omitempty"`
	BackgroundOpacity *float64          `json:"background_opacity,omitempty"`
	HeadlineStyle     *models.TextStyle `json:"headline_style,omitempty"`
	BodyStyle         *models.TextStyle `json:"body_style,omitempty"`
	HeadlineColor     *string           `json:"headline_color,omitempty"`
	BodyColor         *string           `json:"body_color,omitempty"`
}

// CarouselStore handles carousels and their slides.
type CarouselStore struct {
	db *sql.DB
}

// NewCarouselStore creates a new CarouselStore.
func NewCarouselStore(db *sql.DB) *CarouselStore {
	return &CarouselStore{db: db}
}

// Save upserts a carousel and replaces its slides in one transaction.
func (s *CarouselStore) Save(userID string, c *models.Carousel) error {
	prefs, err := json.Marshal(c.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO carousels (id, user_id, title, category, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			preferences = EXCLUDED.preferences,
			updated_at = EXCLUDED.updated_at
		WHERE carousels.user_id = EXCLUDED.user_id
	`, c.ID, userID, c.Title, c.Category, prefs, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert carousel: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM slides WHERE carousel_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clear slides: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO slides (id, carousel_id, position, headline, body, visual_prompt, overrides)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare slide insert: %w", err)
	}
	defer stmt.Close()

	for i, sl := range c.Slides {
		ov, err := json.Marshal(slideOverrides{
			BackgroundColor:   sl.BackgroundColor,
			FontColor:         sl.FontColor,
			BackgroundImage:   sl.BackgroundImage,
			BackgroundOpacity: sl.BackgroundOpacity,
			HeadlineStyle:     sl.HeadlineStyle,
			BodyStyle:         sl.BodyStyle,
			HeadlineColor:     sl.HeadlineColor,
			BodyColor:         sl.BodyColor,
		})
		if err != nil {
			return fmt.Errorf("encode slide overrides: %w", err)
		}
		if _, err := stmt.Exec(sl.ID, c.ID, i, sl.Headline, sl.Body, sl.VisualPrompt, ov); err != nil {
			return fmt.Errorf("insert slide %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Find retrieves one carousel with its slides.
func (s *CarouselStore) Find(userID string, id uuid.UUID) (*models.Carousel, error) {
	c := &models.Carousel{}
	var prefs []byte
	err := s.db.QueryRow(`
		SELECT id, title, category, preferences, created_at
		FROM carousels WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&c.ID, &c.Title, &c.Category, &prefs, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find carousel: %w", err)
	}
	if err := json.Unmarshal(prefs, &c.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if c.Slides, err = s.slides(c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns a user's carousels, newest first, with their slides.
func (s *CarouselStore) List(userID string) ([]*models.Carousel, error) {
	rows, err := s.db.Query(`
		SELECT id, title, category, preferences, created_at
		FROM carousels WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list carousels: %w", err)
	}
	defer rows.Close()

	var out []*models.Carousel
	for rows.Next() {
		c := &models.Carousel{}
		var prefs []byte
		if err := rows.Scan(&c.ID, &c.Title, &c.Category, &prefs, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan carousel: %w", err)
		}
		if err := json.Unmarshal(prefs, &c.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range out {
		if c.Slides, err = s.slides(c.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes a carousel and, by cascade, its slides.
func (s *CarouselStore) Delete(userID string, id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM carousels WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete carousel: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every carousel of a user.
func (s *CarouselStore) DeleteAll(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM carousels WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete carousels: %w", err)
	}
	return nil
}

func (s *CarouselStore) slides(carouselID uuid.UUID) ([]models.SlideData, error) {
	rows, err := s.db.Query(`
		SELECT id, headline, body, visual_prompt, overrides
		FROM slides WHERE carousel_id = $1
		ORDER BY position ASC
	`, carouselID)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	defer rows.Close()

	slides := []models.SlideData{}
	for rows.Next() {
		var (
			sl  models.SlideData
			raw []byte
			ov  slideOverrides
		)
		if err := rows.Scan(&sl.ID, &sl.Headline, &sl.Body, &sl.VisualPrompt, &raw); err != nil {
			return nil, fmt.Errorf("scan slide: %w", err)
		}
		if err := json.Unmarshal(raw, &ov); err != nil {
			return nil, fmt.Errorf("decode slide overrides: %w", err)
		}
		sl.BackgroundColor = ov.BackgroundColor
		sl.FontColor = ov.FontColor
		sl.BackgroundImage = ov.BackgroundImage
		sl.BackgroundOpacity = ov.BackgroundOpacity
		sl.HeadlineStyle = ov.HeadlineStyle
		sl.BodyStyle = ov.BodyStyle
		sl.HeadlineColor = ov.HeadlineColor
		sl.BodyColor = ov.BodyColor
		slides = append(slides, sl)
	}
	return slides, rows.Err()
}
