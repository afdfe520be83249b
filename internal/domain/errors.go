package domain

import (
	"errors"
	"fmt"
)

var (
	// Input errors
	ErrInvalidDay      = errors.New("invalid date")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidRate     = errors.New("rate must be a positive finite number")

	// Rate errors
	ErrUnresolvedRate = errors.New("no rate resolvable for currency")
	ErrRatesFetch     = errors.New("live rates fetch failed")

	// Balance errors
	ErrDiscontinuity = errors.New("balance discontinuity between adjoining windows")
)

// UnresolvedRateError is returned when no layer holds a rate for the currency.
type UnresolvedRateError struct {
	Currency Currency
	Date     Day
}

func (e *UnresolvedRateError) Error() string {
	return fmt.Sprintf("no rate for %s on %s", e.Currency, e.Date)
}

// Is lets errors.Is match ErrUnresolvedRate.
func (e *UnresolvedRateError) Is(target error) bool {
	return target == ErrUnresolvedRate
}
