package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/search"
)

// statusClientClosed is the nginx convention for a request abandoned by
// the client.
const statusClientClosed = 499

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(logger *zap.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondError maps engine errors to status codes. Store failures are
// reported as a generic message; the cause is logged by the engine.
func respondError(logger *zap.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidParameterShape):
		respondJSON(logger, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, search.ErrNotFound):
		respondJSON(logger, w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondJSON(logger, w, statusClientClosed, errorResponse{Error: err.Error()})
	default:
		respondJSON(logger, w, http.StatusInternalServerError, errorResponse{Error: search.ErrSearchFailed.Error()})
	}
}

func badRequest(logger *zap.Logger, w http.ResponseWriter, message string) {
	respondJSON(logger, w, http.StatusBadRequest, errorResponse{Error: message})
}
