package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
)

// RateFunc resolves a conversion factor for (currency, date).
type RateFunc func(currency domain.Currency, date domain.Day) (decimal.Decimal, error)

// ComputeBalance returns the opening balance (entries dated before start),
// the net of entries dated within [start, end], and their sum, all in the
// display currency. Each entry is converted at the rates of its own date.
// The range must already be ordered. Out-of-contract entries count as zero;
// a rate that cannot be resolved aborts the computation.
func ComputeBalance(entries []domain.Entry, start, end domain.Day, display domain.Currency, rateOf RateFunc) (*domain.BalanceReport, error) {
	opening := decimal.Zero
	net := decimal.Zero

	for _, e := range entries {
		if !e.Date.Valid() || e.Date.After(end) {
			continue
		}

		amount, err := convertedAmount(e, display, rateOf)
		if err != nil {
			return nil, err
		}
		if amount.IsZero() {
			continue
		}

		if e.Date.Before(start) {
			opening = opening.Add(amount)
		} else {
			net = net.Add(amount)
		}
	}

	return &domain.BalanceReport{
		RangeStart:      start,
		RangeEnd:        end,
		DisplayCurrency: display,
		OpeningBalance:  opening,
		RangeNet:        net,
		FinalBalance:    opening.Add(net),
	}, nil
}

// convertedAmount returns the signed amount of e in the display currency.
func convertedAmount(e domain.Entry, display domain.Currency, rateOf RateFunc) (decimal.Decimal, error) {
	signed := e.Signed()
	if signed.IsZero() || e.Currency == display {
		return signed, nil
	}

	from, err := rateOf(e.Currency, e.Date)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := rateOf(display, e.Date)
	if err != nil {
		return decimal.Zero, err
	}

	return signed.Mul(from).DivRound(to, ConversionPrecision), nil
}
