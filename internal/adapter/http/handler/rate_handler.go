package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/adapter/http/dto"
	"github.com/iho/fxledger/internal/domain"
)

// RateService defines the behavior needed by RateHandler.
type RateService interface {
	RateOf(currency domain.Currency, date domain.Day) (decimal.Decimal, error)
	Rates(date domain.Day) []domain.ResolvedRate
	Refresh(ctx context.Context) error
	Stale() bool
	Snapshot() *domain.RateSnapshot
}

// EditabilityChecker answers override policy questions for the rate grid.
type EditabilityChecker interface {
	HasManualRate(date domain.Day) bool
	CanEdit(date domain.Day, currency domain.Currency) bool
}

// RateHandler handles exchange rate requests.
type RateHandler struct {
	rates     RateService
	overrides EditabilityChecker
	today     func() domain.Day
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rates RateService, overrides EditabilityChecker) *RateHandler {
	return &RateHandler{rates: rates, overrides: overrides, today: domain.Today}
}

// List returns the resolved rate table for a date with the layer of each value.
func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	date, err := parseDayQuery(r, "date", h.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	resolved := h.rates.Rates(date)
	items := make([]*dto.RateResponse, 0, len(resolved))
	for _, rr := range resolved {
		items = append(items, &dto.RateResponse{
			Date:     date.String(),
			Currency: rr.Currency.String(),
			Rate:     rr.Rate,
			Layer:    string(rr.Layer),
			Editable: h.overrides.CanEdit(date, rr.Currency),
		})
	}

	writeJSON(w, http.StatusOK, dto.RatesResponse{
		Date:       date.String(),
		HasManual:  h.overrides.HasManualRate(date),
		RatesStale: h.rates.Stale(),
		Rates:      items,
	})
}

// Get resolves a single rate.
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	currency, err := domain.ValidateCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid currency", err.Error())
		return
	}
	date, err := parseDayQuery(r, "date", h.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	rate, err := h.rates.RateOf(currency, date)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve rate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RateResponse{
		Date:     date.String(),
		Currency: currency.String(),
		Rate:     rate,
		Editable: h.overrides.CanEdit(date, currency),
	})
}

// Refresh fetches the live rate table now.
func (h *RateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.rates.Refresh(r.Context()); err != nil {
		writeError(w, mapDomainError(err), "failed to refresh rates", err.Error())
		return
	}

	resp := map[string]any{"status": "refreshed", "rates_stale": h.rates.Stale()}
	if snap := h.rates.Snapshot(); snap != nil {
		resp["snapshot_id"] = snap.ID
		resp["fetched_at"] = snap.FetchedAt
	}
	writeJSON(w, http.StatusOK, resp)
}
