package store

import (
	"database/sql"

	"github.com/google/uuid"

	"caroumate/internal/models"
)

// Records groups the stores behind the record mirror the carousel service
// writes to.
type Records struct {
	Carousels *CarouselStore
	Profiles  *ProfileStore
	Settings  *SettingsStore
	Stats     *StatsStore
}

// NewRecords creates every store over db.
func NewRecords(db *sql.DB) *Records {
	return &Records{
		Carousels: NewCarouselStore(db),
		Profiles:  NewProfileStore(db),
		Settings:  NewSettingsStore(db),
		Stats:     NewStatsStore(db),
	}
}

func (r *Records) SaveCarousel(userID string, c *models.Carousel) error {
	return r.Carousels.Save(userID, c)
}

func (r *Records) DeleteCarousel(userID string, id uuid.UUID) error {
	return r.Carousels.Delete(userID, id)
}

func (r *Records) DeleteAllCarousels(userID string) error {
	return r.Carousels.DeleteAll(userID)
}

func (r *Records) UpsertSettings(userID string, s models.AppSettings) error {
	return r.Settings.Upsert(userID, s)
}

func (r *Records) UpsertProfile(userID string, p models.UserProfile) error {
	return r.Profiles.Upsert(userID, p)
}

func (r *Records) IncrementCounter(userID string, c Counter) error {
	_, err := r.Stats.Increment(userID, c)
	return err
}
