package domain

import "github.com/shopspring/decimal"

// BalanceReport is the result of one balance computation. It is never persisted.
type BalanceReport struct {
	RangeStart      Day             `json:"rangeStart"`
	RangeEnd        Day             `json:"rangeEnd"`
	DisplayCurrency Currency        `json:"displayCurrency"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	RangeNet        decimal.Decimal `json:"rangeNet"`
	FinalBalance    decimal.Decimal `json:"finalBalance"`
}
