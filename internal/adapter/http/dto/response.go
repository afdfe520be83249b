package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/usecase"
)

// BalanceResponse represents a balance report in API responses.
type BalanceResponse struct {
	RangeStart      string          `json:"range_start"`
	RangeEnd        string          `json:"range_end"`
	DisplayCurrency string          `json:"display_currency"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	RangeNet        decimal.Decimal `json:"range_net"`
	FinalBalance    decimal.Decimal `json:"final_balance"`
	RatesStale      bool            `json:"rates_stale"`
}

// BalanceFromDomain converts a domain report to a response.
func BalanceFromDomain(r *domain.BalanceReport, stale bool) *BalanceResponse {
	return &BalanceResponse{
		RangeStart:      r.RangeStart.String(),
		RangeEnd:        r.RangeEnd.String(),
		DisplayCurrency: r.DisplayCurrency.String(),
		OpeningBalance:  r.OpeningBalance,
		RangeNet:        r.RangeNet,
		FinalBalance:    r.FinalBalance,
		RatesStale:      stale,
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID        string          `json:"id"`
	FlowSign  string          `json:"flow_sign"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Date      string          `json:"date"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	Origin    string          `json:"origin"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:       e.ID,
		FlowSign: string(e.FlowSign),
		Amount:   e.Amount,
		Currency: e.Currency.String(),
		Date:     e.Date.String(),
		Origin:   string(e.Origin),
	}
	if !e.CreatedAt.IsZero() {
		createdAt := e.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// RateResponse represents one resolved rate.
type RateResponse struct {
	Date     string          `json:"date"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Layer    string          `json:"layer,omitempty"`
	Editable bool            `json:"editable"`
}

// RatesResponse is the resolved rate table for one date.
type RatesResponse struct {
	Date       string          `json:"date"`
	HasManual  bool            `json:"has_manual"`
	RatesStale bool            `json:"rates_stale"`
	Rates      []*RateResponse `json:"rates"`
}

// OverrideDayResponse lists the overrides of one date.
type OverrideDayResponse struct {
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// OverridesFromDomain lists overrides in the given date order.
func OverridesFromDomain(dates []domain.Day, all domain.Overrides) []*OverrideDayResponse {
	result := make([]*OverrideDayResponse, 0, len(dates))
	for _, d := range dates {
		rates := make(map[string]decimal.Decimal, len(all[d]))
		for c, r := range all[d] {
			rates[c.String()] = r
		}
		result = append(result, &OverrideDayResponse{Date: d.String(), Rates: rates})
	}
	return result
}

// OverrideResultResponse reports whether an override edit was applied.
type OverrideResultResponse struct {
	Applied bool `json:"applied"`
}

// ContinuityResponse reports a continuity check over two adjoining windows.
type ContinuityResponse struct {
	Status     string           `json:"status"`
	Consistent bool             `json:"consistent"`
	Left       *BalanceResponse `json:"left"`
	Right      *BalanceResponse `json:"right"`
}

// ContinuityFromUseCase converts a continuity result to a response.
func ContinuityFromUseCase(r *usecase.ContinuityResult, stale bool) *ContinuityResponse {
	status := "consistent"
	if !r.Consistent {
		status = "inconsistent"
	}
	return &ContinuityResponse{
		Status:     status,
		Consistent: r.Consistent,
		Left:       BalanceFromDomain(r.Left, stale),
		Right:      BalanceFromDomain(r.Right, stale),
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
