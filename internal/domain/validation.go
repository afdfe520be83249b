package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidateDay validates a canonical date string and returns it as a Day.
func ValidateDay(s string) (Day, error) {
	d, err := ParseDay(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return d, nil
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(s string) (Currency, error) {
	c, ok := ParseCurrency(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	return c, nil
}

// ValidateRate checks that a float rate is finite and positive.
func ValidateRate(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero, ErrInvalidRate
	}
	return decimal.NewFromFloat(f), nil
}

// ValidateRateDecimal checks that a decimal rate is positive.
func ValidateRateDecimal(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidRate
	}
	return nil
}
