package carousel

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"caroumate/internal/export"
	"caroumate/internal/models"
	"caroumate/internal/render"
)

// NoCategory is reported as the most used category of an empty history.
const NoCategory = "N/A"

// Dashboard summarises a user's activity.
type Dashboard struct {
	models.Stats
	HistoryCount     int    `json:"history_count"`
	MostUsedCategory string `json:"most_used_category"`
}

// History returns copies of the stored carousels, newest first.
func (s *Service) History(ctx context.Context, user string) ([]*models.Carousel, error) {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	out := make([]*models.Carousel, len(ws.history))
	for i, c := range ws.history {
		out[i] = c.Clone()
	}
	return out, nil
}

// Open makes a history entry the carousel being edited.
func (s *Service) Open(ctx context.Context, user string, id uuid.UUID) (*models.Carousel, error) {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	i := ws.entry(id)
	if i < 0 {
		return nil, ErrCarouselNotFound
	}
	ws.current = ws.history[i]
	return ws.current.Clone(), nil
}

// Close leaves the open carousel. It stays in the history.
func (s *Service) Close(ctx context.Context, user string) error {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return err
	}
	ws.current = nil
	ws.mu.Unlock()
	return nil
}

// Delete removes a carousel from the history, closing it if it is open.
func (s *Service) Delete(ctx context.Context, user string, id uuid.UUID) error {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return err
	}
	i := ws.entry(id)
	if i < 0 {
		ws.mu.Unlock()
		return ErrCarouselNotFound
	}
	ws.history = append(ws.history[:i:i], ws.history[i+1:]...)
	if ws.current != nil && ws.current.ID == id {
		ws.current = nil
	}
	perr := s.save(ctx, user, ws)
	ws.mu.Unlock()

	s.mirror(user, "carousel", func(r Records) error { return r.DeleteCarousel(user, id) })
	return perr
}

// ClearHistory removes every stored carousel and closes the open one.
func (s *Service) ClearHistory(ctx context.Context, user string) error {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return err
	}
	ws.history = []*models.Carousel{}
	ws.current = nil
	perr := s.save(ctx, user, ws)
	ws.mu.Unlock()

	s.mirror(user, "carousels", func(r Records) error { return r.DeleteAllCarousels(user) })
	return perr
}

// Export packs the open carousel into a zip archive and hands it to
// deliver. The download is counted only once deliver succeeds.
func (s *Service) Export(ctx context.Context, user string, deliver export.Deliver) (*export.Archive, error) {
	c, err := s.Current(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, user, c, deliver)
}

// Preview returns the open carousel with one visual tree per slide.
// Slides with a generation in flight are marked as generating.
func (s *Service) Preview(ctx context.Context, user string) (*models.Carousel, []render.Tree, error) {
	ws, err := s.workspace(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	if ws.current == nil {
		ws.mu.Unlock()
		return nil, nil, ErrNoCarousel
	}
	c := ws.current.Clone()
	busy := make(map[uuid.UUID]bool)
	for _, sl := range c.Slides {
		if ws.generating(sl.ID) {
			busy[sl.ID] = true
		}
	}
	ws.mu.Unlock()

	return c, render.Carousel(c, func(id uuid.UUID) bool { return busy[id] }), nil
}

// Settings returns the user's settings merged onto the defaults.
func (s *Service) Settings(ctx context.Context, user string) (models.AppSettings, error) {
	return s.persist.LoadSettings(ctx, user)
}

// SaveSettings replaces the user's settings.
func (s *Service) SaveSettings(ctx context.Context, user string, settings models.AppSettings) error {
	if err := s.persist.SaveSettings(ctx, user, settings); err != nil {
		return err
	}
	s.mirror(user, "settings", func(r Records) error { return r.UpsertSettings(user, settings) })
	return nil
}

// Profile returns the user's profile.
func (s *Service) Profile(ctx context.Context, user string) (models.UserProfile, error) {
	return s.persist.LoadProfile(ctx, user)
}

// SaveProfile replaces the user's profile.
func (s *Service) SaveProfile(ctx context.Context, user string, p models.UserProfile) error {
	if err := s.persist.SaveProfile(ctx, user, p); err != nil {
		return err
	}
	s.mirror(user, "profile", func(r Records) error { return r.UpsertProfile(user, p) })
	return nil
}

// Dashboard returns the user's counters and history summary.
func (s *Service) Dashboard(ctx context.Context, user string) (*Dashboard, error) {
	stats, err := s.persist.Stats(ctx, user)
	if err != nil {
		slog.Warn("stats unavailable", "user_id", user, "error", err)
	}
	history, err := s.History(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Stats:            stats,
		HistoryCount:     len(history),
		MostUsedCategory: MostUsedCategory(history),
	}, nil
}

// MostUsedCategory returns the category shared by the most carousels. On
// a tie the category seen last in history order wins.
func MostUsedCategory(history []*models.Carousel) string {
	if len(history) == 0 {
		return NoCategory
	}
	counts := make(map[string]int)
	var order []string
	for _, c := range history {
		if counts[c.Category] == 0 {
			order = append(order, c.Category)
		}
		counts[c.Category]++
	}
	best := order[0]
	for _, cat := range order[1:] {
		if counts[cat] >= counts[best] {
			best = cat
		}
	}
	return best
}
