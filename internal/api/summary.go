package api

import (
	"context"
	"net/http"

	"github.com/goodtune/sitetime/internal/report"
	"github.com/rs/zerolog"
)

// Summarizer builds reports for a scope.
type Summarizer interface {
	Summary(ctx context.Context, scope report.Scope) (*report.Summary, error)
}

// SummaryHandler serves productivity reports.
type SummaryHandler struct {
	reporter Summarizer
	logger   zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(reporter Summarizer, logger zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{
		reporter: reporter,
		logger:   logger.With().Str("handler", "summary").Logger(),
	}
}

// Get returns the report for the scope query parameter (default today).
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, err := report.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.reporter.Summary(r.Context(), scope)
	if err != nil {
		h.logger.Error().Err(err).Str("scope", string(scope)).Msg("Failed to build summary")
		writeError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
