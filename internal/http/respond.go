package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("response_encode_failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// errorStatus maps the domain error taxonomy to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, domain.ErrGateway):
		return http.StatusBadGateway, "gateway_error"
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusBadRequest, "invalid_signature"
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// handleServiceError writes err as a JSON error. Internal errors are logged and
// their text is not exposed.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request_failed", zap.String("code", code), zap.Error(err))
		msg = http.StatusText(status)
	}
	respondError(w, status, code, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// pathID reads a positive integer URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// parseQuantity accepts a JSON number or string holding a positive decimal
// with at most three decimal places.
func parseQuantity(raw json.Number) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, domain.Invalid("please enter a valid quantity")
	}
	if err := domain.CheckQuantity(q); err != nil {
		return decimal.Zero, err
	}
	return q, nil
}
