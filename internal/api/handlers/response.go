package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// WriteError maps err to a status code. Unclassified errors are logged and
// reported as a generic internal error.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("Unhandled error")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(models.KindInternal),
			Message: "internal server error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case models.KindUnauthenticated:
		status = http.StatusUnauthorized
		w.Header().Set("WWW-Authenticate", "Bearer")
	case models.KindForbidden:
		status = http.StatusForbidden
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindConflict:
		status = http.StatusConflict
	case models.KindValidation:
		status = http.StatusUnprocessableEntity
	}
	msg := appErr.Message
	if msg == "" {
		msg = string(appErr.Kind)
	}
	writeJSON(w, status, ErrorResponse{Code: string(appErr.Kind), Message: msg})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: msg})
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeBadRequest(w, "request body is empty")
		} else {
			writeBadRequest(w, "invalid request body")
		}
		return false
	}
	return true
}
