package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/service"
)

const (
	// listCacheControl lets a CDN or browser reuse list reads for a minute.
	listCacheControl  = "public, s-maxage=60, stale-while-revalidate=300"
	mediaCacheControl = "public, max-age=31536000, immutable"

	maxJSONBody = 1 << 20
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes the localized message for key.
func writeError(w http.ResponseWriter, r *http.Request, status int, key string, args ...any) {
	writeJSON(w, status, errorResponse{Error: i18n.T(r, key, args...)})
}

func writeErrorDetails(w http.ResponseWriter, r *http.Request, status int, details, key string, args ...any) {
	writeJSON(w, status, errorResponse{Error: i18n.T(r, key, args...), Details: details})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}

// handleError maps service errors to a status and message. notFound is the
// message key used when the resource does not exist.
func handleError(w http.ResponseWriter, r *http.Request, err error, notFound string, logMsg string, attrs ...any) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, ve.Key, ve.Args...)
	case service.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, notFound)
	default:
		slog.Error(logMsg, append(attrs, "error", err)...)
		writeError(w, r, http.StatusInternalServerError, i18n.MsgServerError)
	}
}
