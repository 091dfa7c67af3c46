package handlers

import (
	"encoding/json"
	"net/http"

	"caroumate/internal/models"
)

// History lists the saved carousels, newest first.
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	history, err := a.svc.History(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carousels": history})
}

// ClearHistory removes every saved carousel.
func (a *API) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.ClearHistory(r.Context(), user(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenHistory makes a saved carousel the open one.
func (a *API) OpenHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.Open(r.Context(), user(r), id)
	respond(w, r, c, err)
}

// DeleteHistory removes a saved carousel, closing it if it is open.
func (a *API) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.Delete(r.Context(), user(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// settingsView hides the stored API key.
type settingsView struct {
	AIModel      models.AIModel   `json:"ai_model"`
	APIKeySet    bool             `json:"api_key_set"`
	SystemPrompt string           `json:"system_prompt"`
	BrandKit     *models.BrandKit `json:"brand_kit,omitempty"`
}

func settingsViewOf(s models.AppSettings) settingsView {
	return settingsView{
		AIModel:      s.AIModel,
		APIKeySet:    s.APIKey != "",
		SystemPrompt: s.SystemPrompt,
		BrandKit:     s.BrandKit,
	}
}

// Settings returns the user's settings. The API key itself is never
// sent back.
func (a *API) Settings(w http.ResponseWriter, r *http.Request) {
	s, err := a.svc.Settings(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsViewOf(s))
}

// SaveSettings replaces the user's settings. Omitted members fall back to
// their defaults.
func (a *API) SaveSettings(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := decodeStrict(body, &settingsRequest{}); err != nil {
		writeError(w, r, err)
		return
	}
	var s models.AppSettings
	if err := json.Unmarshal(body, &s); err != nil {
		writeError(w, r, invalid("invalid settings: %v", err))
		return
	}

	// The key is never sent back, so a body without it keeps the
	// stored one. An explicit "" removes it.
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err == nil {
		if _, ok := members["api_key"]; !ok {
			cur, err := a.svc.Settings(r.Context(), user(r))
			if err != nil {
				writeError(w, r, err)
				return
			}
			s.APIKey = cur.APIKey
		}
	}

	if err := a.svc.SaveSettings(r.Context(), user(r), s); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsViewOf(s))
}

// Profile returns the user profile.
func (a *API) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Profile(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile replaces the user's profile.
func (a *API) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := models.UserProfile{
		Name:            req.Name,
		Email:           req.Email,
		Niche:           req.Niche,
		Language:        req.Language,
		ProfileComplete: req.ProfileComplete,
	}
	if p.Niche == nil {
		p.Niche = []string{}
	}
	if err := a.svc.SaveProfile(r.Context(), user(r), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Stats returns the user's counters and history summary.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.Dashboard(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
