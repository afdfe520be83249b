package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
)

// KVStore is the storage collaborator: named buckets of raw JSON.
type KVStore interface {
	// Read returns the raw bucket contents, or nil when the bucket is absent.
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, raw []byte) error
}

// ChangeNotifier delivers the names of buckets changed outside this process.
type ChangeNotifier interface {
	// Watch blocks, calling fn for every changed key, until ctx is done.
	Watch(ctx context.Context, fn func(key string)) error
}

// RateProvider fetches a live rate table from an external source.
type RateProvider interface {
	FetchLiveRates(ctx context.Context) (*LiveRates, error)
}

// LiveRates is a provider payload: units of each currency per one Anchor.
type LiveRates struct {
	Anchor domain.Currency
	Rates  map[domain.Currency]decimal.Decimal
}

// ReportCache stores computed balance reports.
type ReportCache interface {
	GetReport(ctx context.Context, key string) (*domain.BalanceReport, bool, error)
	SetReport(ctx context.Context, key string, report *domain.BalanceReport, ttl time.Duration) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// RateSource resolves conversion factors for the balance calculator.
type RateSource interface {
	RateOf(currency domain.Currency, date domain.Day) (decimal.Decimal, error)
	// Fingerprint changes whenever any resolution layer changes.
	Fingerprint() string
}
