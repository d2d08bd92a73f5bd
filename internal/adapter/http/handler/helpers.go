package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/atmcore/internal/adapter/http/dto"
	"github.com/iho/atmcore/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with a fixed message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

// writeDomainError maps a domain error to a status code and a short
// message. Backing-store error text is never surfaced to callers.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), messageForError(err))
}

func statusForError(err error) int {
	switch {
	// Checked first: an aborted transfer wraps its cause, and the abort
	// is the caller-visible outcome.
	case errors.Is(err, domain.ErrTransferAborted),
		errors.Is(err, domain.ErrContention):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrSelfTransfer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRecipientNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func messageForError(err error) string {
	for _, known := range []error{
		domain.ErrTransferAborted,
		domain.ErrInvalidAmount,
		domain.ErrInsufficientFunds,
		domain.ErrSelfTransfer,
		domain.ErrRecipientNotFound,
		domain.ErrAccountNotFound,
		domain.ErrInvalidCredentials,
		domain.ErrInvalidSession,
		domain.ErrContention,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "internal error"
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return i
}
