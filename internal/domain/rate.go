package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateLayer names the resolution layer a rate came from.
type RateLayer string

const (
	LayerManual  RateLayer = "manual"
	LayerLive    RateLayer = "live"
	LayerDefault RateLayer = "default"
)

// RateTable maps currencies to "base units per one unit of currency".
type RateTable map[Currency]decimal.Decimal

// DefaultRates is the static fallback table anchored at UZS = 1.
func DefaultRates() RateTable {
	return RateTable{
		UZS: decimal.NewFromInt(1),
		USD: decimal.NewFromInt(12500),
		EUR: decimal.NewFromInt(13500),
		RUB: decimal.NewFromInt(140),
	}
}

// RateSnapshot is one live-fetched table, already re-anchored at the base currency.
type RateSnapshot struct {
	ID        string
	Rates     RateTable
	FetchedAt time.Time
}

// ResolvedRate is a rate together with the layer that produced it.
type ResolvedRate struct {
	Currency Currency        `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Layer    RateLayer       `json:"layer"`
}

// RateOverride is a manual correction for one (date, currency) cell.
type RateOverride struct {
	Date     Day             `json:"date"`
	Currency Currency        `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Overrides is the persisted shape: date -> currency -> rate.
type Overrides map[Day]map[Currency]decimal.Decimal

// Clone returns a deep copy of o.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for date, cells := range o {
		row := make(map[Currency]decimal.Decimal, len(cells))
		for c, r := range cells {
			row[c] = r
		}
		out[date] = row
	}
	return out
}
