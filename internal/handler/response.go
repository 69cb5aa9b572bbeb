package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fsanano/shop-api/internal/service"

	"github.com/go-chi/chi/v5/middleware"
)

const unknownErrorMessage = "An unknown error occurred"

type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned for queries that are valid but matched nothing.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError converts a service error into its HTTP form. Nothing
// escapes unhandled: unexpected failures become a generic 400.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeError(w, http.StatusBadRequest, unknownErrorMessage)
		return
	}

	switch {
	case errors.Is(err, service.ErrNoResults):
		writeJSON(w, http.StatusNotFound, MessageResponse{Message: svcErr.Message})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, svcErr.Message)
	default:
		// ErrInvalidInput and ErrInsufficientStock
		writeError(w, http.StatusBadRequest, svcErr.Message)
	}
}
