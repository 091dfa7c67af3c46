// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package persist keeps per-user history, settings, profile and counters
// in a capacity-limited key-value backend.
//
// History writes are sanitised first: video payloads are never stored.
// When the backend reports that it is out of space, the oldest history
// entry is dropped and the write retried, down to a single entry.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"caroumate/internal/metrics"
	"caroumate/internal/models"
)

var (
	// ErrQuotaExceeded is returned by a Backend that has no room for a write.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrHistoryTooLarge means even the newest history entry alone does not fit.
	ErrHistoryTooLarge = errors.New("history item too large")
	// ErrNotFound is returned by a Backend for a missing key.
	ErrNotFound = errors.New("key not found")
)

// Key prefixes. The user id follows the colon.
const (
	historyPrefix   = "caroumate-history:"
	settingsPrefix  = "caroumate-settings:"
	profilePrefix   = "caroumate-profile:"
	downloadsPrefix = "caroumate-downloads:"
	carouselsPrefix = "caroumate-carousels:"
)

// Backend stores opaque values by key.
type Backend interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// Incrementer is implemented by backends with an atomic counter.
type Incrementer interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// IsQuotaError reports whether err signals exhausted capacity.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(strings.ToLower(msg), "quota") || strings.Contains(msg, "OOM ")
}

// asQuota wraps a backend's own out-of-space error in ErrQuotaExceeded so
// callers can match it with errors.Is.
func asQuota(err error) error {
	if IsQuotaError(err) && !errors.Is(err, ErrQuotaExceeded) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}

// Store is the persistence layer.
type Store struct {
	backend Backend
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Sanitize returns a copy of history with every video payload removed.
// The input is not modified.
func Sanitize(history []*models.Carousel) []*models.Carousel {
	out := make([]*models.Carousel, 0, len(history))
	for _, c := range history {
		if c == nil {
			continue
		}
		cp := c.Clone()
		if models.IsVideoURI(cp.Preferences.BackgroundImage) {
			cp.Preferences.BackgroundImage = ""
		}
		for i := range cp.Slides {
			if cp.Slides[i].HasVideo() {
				cp.Slides[i].BackgroundImage = nil
			}
		}
		out = append(out, cp)
	}
	return out
}

// SaveHistory writes history, newest first. On a quota error the oldest
// entry is evicted and the write retried. It returns the entries that were
// persisted, which the caller should adopt as its history.
//
// A non-quota error is returned without evicting anything.
func (s *Store) SaveHistory(ctx context.Context, user string, history []*models.Carousel) ([]*models.Carousel, error) {
	key := historyPrefix + user
	for n := len(history); n >= 0; n-- {
		data, err := json.Marshal(Sanitize(history[:n]))
		if err != nil {
			return history, fmt.Errorf("encode history: %w", err)
		}

		err = s.backend.Write(ctx, key, data)
		if err == nil {
			return history[:n], nil
		}
		if !IsQuotaError(err) {
			slog.Error("history write failed", "user_id", user, "error", err)
			return history, fmt.Errorf("write history: %w", err)
		}
		if n <= 1 {
			slog.Warn("history entry too large to persist", "user_id", user, "bytes", len(data))
			return history, ErrHistoryTooLarge
		}

		metrics.HistoryEvictionsTotal.Inc()
		slog.Warn("history quota exceeded, evicting oldest entry",
			"user_id", user, "entries", n, "carousel_id", history[n-1].ID)
	}
	return history, ErrHistoryTooLarge
}

// LoadHistory reads the stored history. A missing record is empty.
func (s *Store) LoadHistory(ctx context.Context, user string) ([]*models.Carousel, error) {
	var history []*models.Carousel
	ok, err := s.readJSON(ctx, historyPrefix+user, &history)
	if err != nil || !ok {
		return []*models.Carousel{}, err
	}
	return history, nil
}

// ClearHistory removes the stored history.
func (s *Store) ClearHistory(ctx context.Context, user string) error {
	return s.remove(ctx, historyPrefix+user)
}

// SaveSettings stores settings.
func (s *Store) SaveSettings(ctx context.Context, user string, settings models.AppSettings) error {
	return s.writeJSON(ctx, settingsPrefix+user, settings)
}

// LoadSettings reads settings merged onto the defaults.
func (s *Store) LoadSettings(ctx context.Context, user string) (models.AppSettings, error) {
	settings := models.DefaultSettings()
	if _, err := s.readJSON(ctx, settingsPrefix+user, &settings); err != nil {
		return models.DefaultSettings(), err
	}
	return settings, nil
}

// SaveProfile stores the profile.
func (s *Store) SaveProfile(ctx context.Context, user string, p models.UserProfile) error {
	return s.writeJSON(ctx, profilePrefix+user, p)
}

// LoadProfile reads the profile. A missing record is the zero profile.
func (s *Store) LoadProfile(ctx context.Context, user string) (models.UserProfile, error) {
	var p models.UserProfile
	_, err := s.readJSON(ctx, profilePrefix+user, &p)
	return p, err
}

// IncrementDownloads adds one to the download counter, atomically when
// the backend supports it.
func (s *Store) IncrementDownloads(ctx context.Context, user string) (int64, error) {
	return s.increment(ctx, downloadsPrefix+user)
}

// Downloads returns the download counter.
func (s *Store) Downloads(ctx context.Context, user string) (int64, error) {
	return s.counter(ctx, downloadsPrefix+user)
}

// IncrementCarousels adds one to the generated carousel counter.
func (s *Store) IncrementCarousels(ctx context.Context, user string) (int64, error) {
	return s.increment(ctx, carouselsPrefix+user)
}

// Stats returns both counters.
func (s *Store) Stats(ctx context.Context, user string) (models.Stats, error) {
	downloads, err := s.counter(ctx, downloadsPrefix+user)
	if err != nil {
		return models.Stats{}, err
	}
	carousels, err := s.counter(ctx, carouselsPrefix+user)
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{DownloadCount: downloads, CarouselCount: carousels}, nil
}

func (s *Store) increment(ctx context.Context, key string) (int64, error) {
	if inc, ok := s.backend.(Incrementer); ok {
		return inc.Incr(ctx, key)
	}
	n, err := s.counter(ctx, key)
	if err != nil {
		return 0, err
	}
	n++
	if err := s.backend.Write(ctx, key, []byte(strconv.FormatInt(n, 10))); err != nil {
		return 0, fmt.Errorf("write counter: %w", asQuota(err))
	}
	return n, nil
}

func (s *Store) counter(ctx context.Context, key string) (int64, error) {
	data, err := s.backend.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter: %w", err)
	}
	return n, nil
}

func (s *Store) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Write(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, asQuota(err))
	}
	return nil
}

// readJSON decodes the value at key into v. ok is false when the key
// does not exist.
func (s *Store) readJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.backend.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := s.backend.Remove(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Owner returns the user id a key belongs to.
func Owner(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}
