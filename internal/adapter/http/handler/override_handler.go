package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/adapter/http/dto"
	"github.com/iho/fxledger/internal/domain"
)

// OverrideService defines the behavior needed by OverrideHandler.
type OverrideService interface {
	SetOverride(ctx context.Context, date domain.Day, currency domain.Currency, rate decimal.NullDecimal) (bool, error)
	ClearDate(ctx context.Context, date domain.Day) (bool, error)
	DatesWithOverrides() []domain.Day
	All() domain.Overrides
}

// OverrideHandler handles manual rate override requests.
type OverrideHandler struct {
	overrides OverrideService
}

// NewOverrideHandler creates a new OverrideHandler.
func NewOverrideHandler(overrides OverrideService) *OverrideHandler {
	return &OverrideHandler{overrides: overrides}
}

// List returns every date with overrides, most recent first.
func (h *OverrideHandler) List(w http.ResponseWriter, r *http.Request) {
	dates := h.overrides.DatesWithOverrides()
	writeJSON(w, http.StatusOK, map[string]any{
		"overrides": dto.OverridesFromDomain(dates, h.overrides.All()),
		"count":     len(dates),
	})
}

// Set writes or deletes one override cell.
// Rejected edits are not errors; the response reports applied=false.
func (h *OverrideHandler) Set(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ValidateDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	currency, err := domain.ValidateCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid currency", err.Error())
		return
	}

	var req dto.SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	applied, err := h.overrides.SetOverride(r.Context(), date, currency, req.Rate)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to save override", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OverrideResultResponse{Applied: applied})
}

// Clear removes every override on a date.
func (h *OverrideHandler) Clear(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ValidateDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	applied, err := h.overrides.ClearDate(r.Context(), date)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to clear overrides", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OverrideResultResponse{Applied: applied})
}
