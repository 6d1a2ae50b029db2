package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goodtune/sitetime/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// CounterResponse is the stored time for one domain.
type CounterResponse struct {
	Domain string `json:"domain"`
	MS     int64  `json:"ms"`
}

// CounterHandler handles counter reads and resets.
type CounterHandler struct {
	store  storage.CounterStore
	logger zerolog.Logger
}

// NewCounterHandler creates a new counter handler.
func NewCounterHandler(store storage.CounterStore, logger zerolog.Logger) *CounterHandler {
	return &CounterHandler{
		store:  store,
		logger: logger.With().Str("handler", "counters").Logger(),
	}
}

// List returns all-time counters.
func (h *CounterHandler) List(w http.ResponseWriter, r *http.Request) {
	counters, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list counters")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve counters")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counters": counters,
		"count":    len(counters),
	})
}

// ListToday returns today's counters.
func (h *CounterHandler) ListToday(w http.ResponseWriter, r *http.Request) {
	counters, err := h.store.ListToday(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list today's counters")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve counters")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counters": counters,
		"count":    len(counters),
	})
}

// Get returns the all-time counter for one domain.
func (h *CounterHandler) Get(w http.ResponseWriter, r *http.Request) {
	domain := strings.ToLower(mux.Vars(r)["domain"])

	ms, err := h.store.Get(r.Context(), domain)
	if err != nil {
		h.logger.Error().Err(err).Str("domain", domain).Msg("Failed to get counter")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve counter")
		return
	}

	writeJSON(w, http.StatusOK, CounterResponse{Domain: domain, MS: ms})
}

// Reset clears one domain from both buckets.
func (h *CounterHandler) Reset(w http.ResponseWriter, r *http.Request) {
	domain := strings.ToLower(mux.Vars(r)["domain"])

	if err := h.store.ResetDomain(r.Context(), domain); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No time recorded for domain")
			return
		}
		h.logger.Error().Err(err).Str("domain", domain).Msg("Failed to reset counter")
		writeError(w, http.StatusInternalServerError, "Failed to reset counter")
		return
	}

	h.logger.Info().Str("domain", domain).Msg("Counter reset")
	w.WriteHeader(http.StatusNoContent)
}

// ResetAll clears every counter. Settings are kept.
func (h *CounterHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetAll(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to reset counters")
		writeError(w, http.StatusInternalServerError, "Failed to reset counters")
		return
	}

	h.logger.Info().Msg("All counters reset")
	w.WriteHeader(http.StatusNoContent)
}

// ResetToday clears the today bucket.
func (h *CounterHandler) ResetToday(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetToday(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to reset today's counters")
		writeError(w, http.StatusInternalServerError, "Failed to reset counters")
		return
	}

	h.logger.Info().Msg("Today's counters reset")
	w.WriteHeader(http.StatusNoContent)
}
