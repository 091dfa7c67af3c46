package store

import (
	"database/sql"
	"fmt"

	"caroumate/internal/models"
)

// Counter names a column of the stats table.
type Counter string

const (
	CounterDownloads Counter = "download_count"
	CounterCarousels Counter = "carousel_count"
)

// StatsStore handles per-user usage counters.
type StatsStore struct {
	db *sql.DB
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// Get returns the counters for a user. A user without a row has zeros.
func (s *StatsStore) Get(userID string) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRow(`
		SELECT download_count, carousel_count FROM stats WHERE user_id = $1
	`, userID).Scan(&st.DownloadCount, &st.CarouselCount)
	if err == sql.ErrNoRows {
		return models.Stats{}, nil
	}
	if err != nil {
		return models.Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return st, nil
}

// Increment atomically adds one to a counter and returns the new value.
func (s *StatsStore) Increment(userID string, c Counter) (int64, error) {
	var query string
	switch c {
	case CounterDownloads:
		query = `
			INSERT INTO stats (user_id, download_count) VALUES ($1, 1)
			ON CONFLICT (user_id) DO UPDATE SET
				download_count = stats.download_count + 1, updated_at = NOW()
			RETURNING download_count`
	case CounterCarousels:
		query = `
			INSERT INTO stats (user_id, carousel_count) VALUES ($1, 1)
			ON CONFLICT (user_id) DO UPDATE SET
				carousel_count = stats.carousel_count + 1, updated_at = NOW()
			RETURNING carousel_count`
	default:
		return 0, fmt.Errorf("unknown counter %q", c)
	}

	var n int64
	if err := s.db.QueryRow(query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("increment %s: %w", c, err)
	}
	return n, nil
}
