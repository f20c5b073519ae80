package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/service"
)

// StatsHandler exposes the spending summaries.
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// HandleSummary returns the dashboard summary.
//
// HTTP: GET /api/stats/summary?from=&to=
// Without a window, the breakdown covers the current calendar month; the
// all-time total is always included either way.
func (h *StatsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.stats.Summarize(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// HandlePeriod returns statistics for a named period.
//
// HTTP: GET /api/stats/period?period=week|month|year
func (h *StatsHandler) HandlePeriod(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}

	stats, err := h.stats.Period(r.Context(), userID, period)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
