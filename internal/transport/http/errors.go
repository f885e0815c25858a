package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flashdrop/drop-api/internal/domain"
)

const (
	codeValidationError     = "VALIDATION_ERROR"
	codeInvalidUsername     = "INVALID_USERNAME"
	codeDropNotFound        = "DROP_NOT_FOUND"
	codeDropNotActive       = "DROP_NOT_ACTIVE"
	codeOutOfStock          = "OUT_OF_STOCK"
	codeConcurrentUpdate    = "CONCURRENT_UPDATE"
	codeReservationNotFound = "RESERVATION_NOT_FOUND"
	codeReservationExpired  = "RESERVATION_EXPIRED"
	codeUnauthorized        = "UNAUTHORIZED"
	codeNotFound            = "NOT_FOUND"
	codeExpired             = "EXPIRED"
	codeForbidden           = "FORBIDDEN"
	codeInternalError       = "INTERNAL_ERROR"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: code, Message: msg})
	if err != nil {
		_, _ = w.Write([]byte(`{"success":false,"error":"INTERNAL_ERROR"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeReserveError maps Reserve outcomes onto the API's status contract:
// business rejections are 400/404, retryable conflicts 409, anything
// unclassified a generic 500.
func writeReserveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, codeInvalidUsername, err.Error())
	case errors.Is(err, domain.ErrDropNotFound):
		writeError(w, http.StatusNotFound, codeDropNotFound, err.Error())
	case errors.Is(err, domain.ErrDropNotActive):
		writeError(w, http.StatusBadRequest, codeDropNotActive, err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		writeError(w, http.StatusNotFound, codeOutOfStock, err.Error())
	case errors.Is(err, domain.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, codeConcurrentUpdate, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "failed to reserve")
	}
}

func writePurchaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, codeInvalidUsername, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusGone, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationExpired):
		writeError(w, http.StatusGone, codeReservationExpired, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, codeUnauthorized, err.Error())
	case errors.Is(err, domain.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, codeConcurrentUpdate, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "failed to complete purchase")
	}
}
