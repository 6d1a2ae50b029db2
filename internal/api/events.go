package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goodtune/sitetime/internal/tracker"
	"github.com/rs/zerolog"
)

// Tracker is the part of the activity tracker the API drives.
type Tracker interface {
	FocusChanged(ctx context.Context, tab tracker.TabInfo) error
	Idle(ctx context.Context) error
	Resume(ctx context.Context) error
	SetTrackingEnabled(ctx context.Context, enabled bool) error
	TrackingEnabled() bool
	State(ctx context.Context) (tracker.Snapshot, error)
	Watch() (<-chan bool, func())
}

// FocusRequest reports the newly focused tab.
type FocusRequest struct {
	TabID int    `json:"tab_id"`
	URL   string `json:"url"`
}

// NavigationRequest reports a tab update.
type NavigationRequest struct {
	TabID  int    `json:"tab_id"`
	URL    string `json:"url"`
	Status string `json:"status"`
	Active bool   `json:"active"`
}

// IdleRequest reports a system idle state change.
type IdleRequest struct {
	State string `json:"state"`
}

// EventHandler handles host events.
type EventHandler struct {
	tracker Tracker
	logger  zerolog.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(t Tracker, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		tracker: t,
		logger:  logger.With().Str("handler", "events").Logger(),
	}
}

// Focus handles a tab focus change.
func (h *EventHandler) Focus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tracker.FocusChanged(r.Context(), tracker.TabInfo{TabID: req.TabID, URL: req.URL}); err != nil {
		h.writeTrackerError(w, err, "focus")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Navigation handles a tab update. Only completed loads in the active tab
// count as a focus change.
func (h *EventHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	var req NavigationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Status != "complete" || !req.Active {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"ignored": true,
		})
		return
	}

	if err := h.tracker.FocusChanged(r.Context(), tracker.TabInfo{TabID: req.TabID, URL: req.URL}); err != nil {
		h.writeTrackerError(w, err, "navigation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Idle handles an idle state change.
func (h *EventHandler) Idle(w http.ResponseWriter, r *http.Request) {
	var req IdleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var err error
	switch req.State {
	case "idle", "locked":
		err = h.tracker.Idle(r.Context())
	case "active":
		err = h.tracker.Resume(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "state must be idle, locked or active")
		return
	}
	if err != nil {
		h.writeTrackerError(w, err, "idle")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) writeTrackerError(w http.ResponseWriter, err error, event string) {
	writeTrackerError(w, h.logger, err, event)
}

func writeTrackerError(w http.ResponseWriter, logger zerolog.Logger, err error, event string) {
	switch {
	case errors.Is(err, tracker.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "Tracker is shutting down")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled before the event was handled")
	default:
		logger.Error().Err(err).Str("event", event).Msg("Tracker event failed")
		writeError(w, http.StatusInternalServerError, "Failed to handle event")
	}
}
