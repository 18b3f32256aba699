package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/store"
)

// validationErrors are rejected with 422 and their message.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidCategory,
	core.ErrInvalidKind,
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrMissingPayer,
	core.ErrPayerNotInCouple,
	core.ErrMissingOwner,
	core.ErrInvalidMonth,
	core.ErrInvalidQuantity,
	core.ErrInvalidDate,
	core.ErrGoalRegression,
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, err.Error()
		}
	}
	switch {
	case errors.Is(err, errBadParam):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, store.ErrAlreadyPaid):
		return http.StatusConflict, store.ErrAlreadyPaid.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeServiceError answers with the status of err; server errors are
// logged and their details withheld.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldUserID, userID(r),
			log.FieldError, err)
	}
	writeError(w, status, msg)
}

func writeBadBody(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}
