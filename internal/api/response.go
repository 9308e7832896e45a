package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/credentials"
	"github.com/sells-group/forest-carbon/internal/estimator"
	"github.com/sells-group/forest-carbon/internal/geo"
	"github.com/sells-group/forest-carbon/internal/store"
	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	RunID   string `json:"runId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := ErrorResponse{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

// statusFor maps a run error to an HTTP status and a short message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, geoengine.ErrUnauthorized):
		return http.StatusUnauthorized, "engine authentication failed"
	case errors.Is(err, credentials.ErrNotFound):
		return http.StatusNotFound, "credentials not found"
	case errors.Is(err, estimator.ErrInvalidRequest), errors.Is(err, geo.ErrInvalidBoundary):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, carbon.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient data"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "run not found"
	default:
		return http.StatusInternalServerError, "estimation failed"
	}
}
