package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/iho/fxledger/internal/adapter/http/dto"
	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/usecase"
)

// ContinuityChecker defines the behavior needed by LedgerHandler.
type ContinuityChecker interface {
	CheckContinuity(ctx context.Context, a, b, c domain.Day, display domain.Currency) (*usecase.ContinuityResult, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	balanceUC ContinuityChecker
	rates     StalenessReporter
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(balanceUC ContinuityChecker, rates StalenessReporter) *LedgerHandler {
	return &LedgerHandler{balanceUC: balanceUC, rates: rates}
}

// CheckContinuity checks that the final balance of [a, b] equals the
// opening balance of [b+1, c].
func (h *LedgerHandler) CheckContinuity(w http.ResponseWriter, r *http.Request) {
	var days [3]domain.Day
	for i, key := range []string{"a", "b", "c"} {
		d, err := parseDayQuery(r, key, "")
		if err != nil || d == "" {
			writeError(w, http.StatusBadRequest, "invalid "+key+" date", "a, b and c are required dates")
			return
		}
		days[i] = d
	}
	display, err := parseCurrencyQuery(r, "currency", domain.BaseCurrency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid currency", err.Error())
		return
	}

	stale := h.rates != nil && h.rates.Stale()
	result, err := h.balanceUC.CheckContinuity(r.Context(), days[0], days[1], days[2], display)
	if err != nil {
		if errors.Is(err, domain.ErrDiscontinuity) && result != nil {
			writeJSON(w, http.StatusConflict, dto.ContinuityFromUseCase(result, stale))
			return
		}
		writeError(w, mapDomainError(err), "failed to check continuity", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ContinuityFromUseCase(result, stale))
}
