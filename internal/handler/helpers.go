package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/wallet"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePagination reads ?limit= and ?page=. Zero means "use the default".
func parsePagination(r *http.Request) (limit, page int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	return
}

// handleServiceError maps domain errors to HTTP responses. The body
// carries the message the app shows to the user.
func handleServiceError(w http.ResponseWriter, err error, p *wallet.Presenter, logger *zap.Logger) {
	var unauth *domain.ErrUnauthenticated
	var invalidAmount *domain.ErrInvalidAmount
	var invalidRecipient *domain.ErrInvalidRecipient
	var validation *domain.ErrValidation
	var insufficient *domain.ErrInsufficientBalance
	var inFlight *domain.ErrSubmissionInFlight
	var stale *domain.ErrStaleBalance
	var notFound *domain.ErrNotFound
	var httpErr *domain.ErrHTTP
	var circuitOpen *domain.ErrCircuitOpen
	var network *domain.ErrNetwork
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &unauth):
		logger.Warn("ledger rejected token")
		writeError(w, http.StatusUnauthorized, p.ErrorMessage(err))
	case errors.As(err, &invalidAmount):
		logger.Debug("invalid amount", zap.String("input", invalidAmount.Input))
		writeError(w, http.StatusBadRequest, p.ErrorMessage(err))
	case errors.As(err, &invalidRecipient):
		logger.Debug("invalid recipient")
		writeError(w, http.StatusBadRequest, p.ErrorMessage(err))
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient):
		logger.Warn("insufficient balance",
			zap.Float64("available", insufficient.Available),
			zap.Float64("required", insufficient.Required),
		)
		writeError(w, http.StatusUnprocessableEntity, p.ErrorMessage(err))
	case errors.As(err, &inFlight):
		logger.Warn("transfer in flight", zap.String("key", inFlight.Key))
		writeError(w, http.StatusConflict, p.ErrorMessage(err))
	case errors.As(err, &stale):
		logger.Warn("balance stale at submit")
		writeError(w, http.StatusServiceUnavailable, p.ErrorMessage(err))
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &httpErr):
		status := httpErr.Status
		if status >= 500 || status < 400 {
			status = http.StatusBadGateway
		}
		logger.Warn("ledger http error", zap.Int("upstream_status", httpErr.Status), zap.String("error", httpErr.Error()))
		writeError(w, status, httpErr.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, p.Locale.MsgLoadFailed)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, p.Locale.MsgLoadFailed)
	case errors.As(err, &network), errors.As(err, &external):
		logger.Error("ledger unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, p.Locale.MsgLoadFailed)
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
