package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"stop-route-service/internal/platform/httpx"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"
	"stop-route-service/internal/services"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object with no unknown fields. On failure
// it writes the 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeServiceError maps planner and provider errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	var upstream *httpx.StatusError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrStartingPoint):
		writeError(w, r, http.StatusConflict, services.ErrStartingPoint.Error())
	case errors.Is(err, services.ErrImportRunning):
		writeError(w, r, http.StatusConflict, services.ErrImportRunning.Error())
	case errors.Is(err, services.ErrStopNotFound):
		writeError(w, r, http.StatusNotFound, services.ErrStopNotFound.Error())
	case errors.Is(err, ports.ErrNoRoute):
		writeError(w, r, http.StatusNotFound, "no route")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	case errors.As(err, &upstream):
		log.Warn(op+" failed upstream", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusBadGateway, "upstream provider error")
	default:
		log.Error(op+" failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
