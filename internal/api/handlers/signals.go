package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/internal/signals"
	"github.com/insiderlab/quant/pkg/logger"
)

// SignalSource produces the latest confirmed signals.
type SignalSource interface {
	Latest(ctx context.Context, asOf time.Time, topN int) ([]signals.Signal, error)
}

// SignalHandler handles signal API endpoints.
type SignalHandler struct {
	source      SignalSource
	defaultTopN int
	logger      *logger.Logger
}

// NewSignalHandler creates a signal handler.
func NewSignalHandler(source SignalSource, defaultTopN int, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		source:      source,
		defaultTopN: defaultTopN,
		logger:      log,
	}
}

// List returns the current confirmed signals.
// GET /api/signals?top_n=5&as_of=2024-06-03
func (h *SignalHandler) List(w http.ResponseWriter, r *http.Request) {
	topN := h.defaultTopN
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "top_n must be a positive integer")
			return
		}
		topN = parsed
	}

	asOf := contracts.Day(time.Now())
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := contracts.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	result, err := h.source.Latest(r.Context(), asOf, topN)
	if err != nil {
		h.logger.WithError(err).Error("Signal generation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"as_of":   contracts.FormatDay(asOf),
		"count":   len(result),
		"signals": result,
	})
}
