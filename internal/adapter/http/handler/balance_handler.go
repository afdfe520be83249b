package handler

import (
	"context"
	"net/http"

	"github.com/iho/fxledger/internal/adapter/http/dto"
	"github.com/iho/fxledger/internal/domain"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	Report(ctx context.Context, start, end domain.Day, display domain.Currency) (*domain.BalanceReport, error)
	Entries(ctx context.Context, start, end domain.Day) ([]domain.Entry, error)
}

// StalenessReporter reports whether live rates are missing.
type StalenessReporter interface {
	Stale() bool
}

// BalanceHandler handles balance report requests.
type BalanceHandler struct {
	balanceUC BalanceService
	rates     StalenessReporter
	today     func() domain.Day
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService, rates StalenessReporter) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC, rates: rates, today: domain.Today}
}

// Report computes opening, net and final balances for a window.
// The window defaults to the current month up to today.
func (h *BalanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	display, err := parseCurrencyQuery(r, "currency", domain.BaseCurrency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid currency", err.Error())
		return
	}

	report, err := h.balanceUC.Report(r.Context(), start, end, display)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(report, h.stale()))
}

// Entries lists normalized ledger entries dated inside the window.
func (h *BalanceHandler) Entries(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	entries, err := h.balanceUC.Entries(r.Context(), start, end)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": dto.EntriesFromDomain(entries),
		"count":   len(entries),
	})
}

func (h *BalanceHandler) parseRange(w http.ResponseWriter, r *http.Request) (domain.Day, domain.Day, bool) {
	today := h.today()
	end, err := parseDayQuery(r, "end", today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date", err.Error())
		return "", "", false
	}
	start, err := parseDayQuery(r, "start", end.StartOfMonth())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date", err.Error())
		return "", "", false
	}
	return start, end, true
}

func (h *BalanceHandler) stale() bool {
	return h.rates != nil && h.rates.Stale()
}
