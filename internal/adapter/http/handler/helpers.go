package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/fxledger/internal/adapter/http/dto"
	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnresolvedRate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidDay):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidRate):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDiscontinuity):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRatesFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseDayQuery parses a date query parameter, falling back to def when absent.
func parseDayQuery(r *http.Request, key string, def domain.Day) (domain.Day, error) {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return def, nil
	}
	return domain.ValidateDay(val)
}

// parseCurrencyQuery parses a currency query parameter, falling back to def when absent.
func parseCurrencyQuery(r *http.Request, key string, def domain.Currency) (domain.Currency, error) {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return def, nil
	}
	return domain.ValidateCurrency(val)
}
