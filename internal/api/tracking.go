package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// sseKeepAlive is how often an idle stream sends a comment line.
const sseKeepAlive = 25 * time.Second

// TrackingRequest toggles tracking.
type TrackingRequest struct {
	Enabled *bool `json:"enabled"`
}

// TrackingResponse reports the tracking flag.
type TrackingResponse struct {
	TrackingEnabled bool `json:"tracking_enabled"`
}

// TrackingHandler handles the tracking toggle and tracker state.
type TrackingHandler struct {
	tracker Tracker
	logger  zerolog.Logger
}

// NewTrackingHandler creates a new tracking handler.
func NewTrackingHandler(t Tracker, logger zerolog.Logger) *TrackingHandler {
	return &TrackingHandler{
		tracker: t,
		logger:  logger.With().Str("handler", "tracking").Logger(),
	}
}

// Get returns the current tracking flag.
func (h *TrackingHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TrackingResponse{TrackingEnabled: h.tracker.TrackingEnabled()})
}

// Set persists and broadcasts the tracking flag.
func (h *TrackingHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req TrackingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := h.tracker.SetTrackingEnabled(r.Context(), *req.Enabled); err != nil {
		writeTrackerError(w, h.logger, err, "tracking")
		return
	}

	writeJSON(w, http.StatusOK, TrackingResponse{TrackingEnabled: h.tracker.TrackingEnabled()})
}

// State returns the tracker snapshot.
func (h *TrackingHandler) State(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tracker.State(r.Context())
	if err != nil {
		writeTrackerError(w, h.logger, err, "state")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Stream sends tracking flag changes as server-sent events.
// The current value is sent first.
func (h *TrackingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug().Err(err).Msg("Failed to clear write deadline for stream")
	}

	updates, cancel := h.tracker.Watch()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(enabled bool) error {
		data, err := json.Marshal(TrackingResponse{TrackingEnabled: enabled})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: tracking\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(h.tracker.TrackingEnabled()); err != nil {
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case enabled := <-updates:
			if err := send(enabled); err != nil {
				h.logger.Debug().Err(err).Msg("Tracking stream closed")
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
