package domain

import "strings"

// Currency is an upper-case currency code. The set is open.
type Currency string

// Known currencies.
const (
	UZS Currency = "UZS"
	USD Currency = "USD"
	EUR Currency = "EUR"
	RUB Currency = "RUB"
)

// BaseCurrency anchors every rate table: its rate is always 1.
const BaseCurrency = UZS

// KnownCurrencies lists the currencies the dashboard tracks, base first.
var KnownCurrencies = []Currency{UZS, USD, EUR, RUB}

// ParseCurrency upper-cases and trims s. It returns false when s is not a
// three-letter code.
func ParseCurrency(s string) (Currency, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return "", false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return Currency(s), true
}

// IsBase reports whether c is the base currency.
func (c Currency) IsBase() bool { return c == BaseCurrency }

func (c Currency) String() string { return string(c) }
