package api

import (
	"net/http"

	"github.com/goodtune/sitetime/internal/storage"
	"github.com/rs/zerolog"
)

// SettingsRequest updates user preferences. Absent fields are unchanged.
type SettingsRequest struct {
	DailyGoalMinutes *int  `json:"daily_goal_minutes,omitempty"`
	ClearDailyGoal   bool  `json:"clear_daily_goal,omitempty"`
	HideDistracting  *bool `json:"hide_distracting,omitempty"`
}

// SettingsHandler handles user preferences.
type SettingsHandler struct {
	store  storage.SettingsStore
	logger zerolog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(store storage.SettingsStore, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:  store,
		logger: logger.With().Str("handler", "settings").Logger(),
	}
}

// Get returns the stored settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get settings")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Update applies a partial settings change. Input is validated before
// anything is written, so a rejected request changes nothing.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClearDailyGoal && req.DailyGoalMinutes != nil {
		writeError(w, http.StatusBadRequest, "daily_goal_minutes and clear_daily_goal are mutually exclusive")
		return
	}
	if err := storage.ValidateGoal(req.DailyGoalMinutes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.DailyGoalMinutes != nil || req.ClearDailyGoal {
		if err := h.store.SetDailyGoal(ctx, req.DailyGoalMinutes); err != nil {
			h.logger.Error().Err(err).Msg("Failed to set daily goal")
			writeError(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
	}
	if req.HideDistracting != nil {
		if err := h.store.SetHideDistracting(ctx, *req.HideDistracting); err != nil {
			h.logger.Error().Err(err).Msg("Failed to set hide distracting")
			writeError(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
	}

	h.Get(w, r)
}
