package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/service"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20 // 1MB

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Message: message, Code: code})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func respondInvalidAction(w http.ResponseWriter) {
	respondError(w, http.StatusBadRequest, "invalid_action", "Invalid action")
}

// handleServiceError maps service errors to HTTP statuses. Storage faults,
// timeouts included, are logged and answered with a 500 carrying fallback.
func handleServiceError(ctx context.Context, w http.ResponseWriter, log logrus.FieldLogger, err error, fallback string) {
	entry := logger.WithContext(ctx, log).WithError(err)

	var pe *service.ProviderError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		entry.Warn("invalid request")
		respondError(w, http.StatusBadRequest, "invalid_argument", detail(err, service.ErrInvalidRequest))
	case errors.Is(err, service.ErrNotFound):
		entry.Warn("resource not found")
		respondError(w, http.StatusNotFound, "not_found", detail(err, service.ErrNotFound))
	case errors.As(err, &pe):
		entry.Error("provider call failed")
		respondError(w, http.StatusInternalServerError, "upstream_error", pe.Message())
	default:
		entry.Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// detail strips the sentinel prefix so clients see only the specific message.
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
