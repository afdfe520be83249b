package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/infrastructure/metrics"
)

// OverrideReader is the part of the override store the resolver consults.
type OverrideReader interface {
	Get(date domain.Day, currency domain.Currency) (decimal.Decimal, bool)
	// Digest identifies the override contents across processes.
	Digest() string
}

// RateResolver resolves a conversion factor for (currency, date), consulting
// manual overrides, then the live snapshot, then the static defaults. Every
// factor means base-currency units per one unit of the currency.
type RateResolver struct {
	mu           sync.RWMutex
	overrides    OverrideReader
	defaults     domain.RateTable
	live         *domain.RateSnapshot
	lastErr      error
	provider     RateProvider
	idGen        IDGenerator
	fetchTimeout time.Duration
	onRefresh    []func()
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// RateResolverConfig configures a RateResolver.
type RateResolverConfig struct {
	Overrides    OverrideReader
	Defaults     domain.RateTable
	Provider     RateProvider
	IDGenerator  IDGenerator
	FetchTimeout time.Duration
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
}

// NewRateResolver creates a RateResolver without a live snapshot.
func NewRateResolver(cfg RateResolverConfig) *RateResolver {
	if cfg.Defaults == nil {
		cfg.Defaults = domain.DefaultRates()
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultRatesFetchTimeout
	}

	return &RateResolver{
		overrides:    cfg.Overrides,
		defaults:     cfg.Defaults,
		provider:     cfg.Provider,
		idGen:        cfg.IDGenerator,
		fetchTimeout: cfg.FetchTimeout,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// RateOf returns the conversion factor for currency on date. The base
// currency is always 1. It returns *domain.UnresolvedRateError when no layer
// knows the currency.
func (r *RateResolver) RateOf(currency domain.Currency, date domain.Day) (decimal.Decimal, error) {
	rate, _, err := r.resolve(currency, date)
	return rate, err
}

// Rates resolves every currency known to any layer on date.
func (r *RateResolver) Rates(date domain.Day) []domain.ResolvedRate {
	seen := map[domain.Currency]bool{}
	var currencies []domain.Currency
	add := func(c domain.Currency) {
		if !seen[c] {
			seen[c] = true
			currencies = append(currencies, c)
		}
	}

	for _, c := range domain.KnownCurrencies {
		add(c)
	}
	r.mu.RLock()
	for c := range r.defaults {
		add(c)
	}
	if r.live != nil {
		for c := range r.live.Rates {
			add(c)
		}
	}
	r.mu.RUnlock()

	out := make([]domain.ResolvedRate, 0, len(currencies))
	for _, c := range currencies {
		rate, layer, err := r.resolve(c, date)
		if err != nil {
			continue
		}
		out = append(out, domain.ResolvedRate{Currency: c, Rate: rate, Layer: layer})
	}
	return out
}

func (r *RateResolver) resolve(currency domain.Currency, date domain.Day) (decimal.Decimal, domain.RateLayer, error) {
	if currency.IsBase() {
		return decimal.NewFromInt(1), domain.LayerDefault, nil
	}

	if r.overrides != nil {
		if rate, ok := r.overrides.Get(date, currency); ok && rate.IsPositive() {
			return rate, domain.LayerManual, nil
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.live != nil {
		if rate, ok := r.live.Rates[currency]; ok && rate.IsPositive() {
			return rate, domain.LayerLive, nil
		}
	}

	if rate, ok := r.defaults[currency]; ok && rate.IsPositive() {
		return rate, domain.LayerDefault, nil
	}

	return decimal.Zero, "", &domain.UnresolvedRateError{Currency: currency, Date: date}
}

// Refresh fetches the live table once and swaps it in. On failure the
// previous layers stay in place, the resolver reports Stale and the error is
// returned for callers that want it.
func (r *RateResolver) Refresh(ctx context.Context) error {
	if r.provider == nil {
		return fmt.Errorf("%w: no provider configured", domain.ErrRatesFetch)
	}

	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	start := time.Now()
	live, err := r.provider.FetchLiveRates(ctx)
	if err == nil {
		var table domain.RateTable
		table, err = reanchor(live)
		if err == nil {
			r.install(table)
			r.recordFetch("ok", time.Since(start))
			r.logger.Info().Int("currencies", len(table)).Dur("duration", time.Since(start)).Msg("live rates installed")
			return nil
		}
	}

	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()

	r.recordFetch("error", time.Since(start))
	r.logger.Warn().Err(err).Msg("live rates unavailable, using defaults")
	return fmt.Errorf("%w: %v", domain.ErrRatesFetch, err)
}

// StartRefresh runs Refresh in the background. Reports computed before it
// completes use the remaining layers.
func (r *RateResolver) StartRefresh(ctx context.Context) {
	go func() {
		_ = r.Refresh(ctx)
	}()
}

// SetSnapshot installs an already anchored live table. Used by tests and by
// callers that obtain rates out of band.
func (r *RateResolver) SetSnapshot(table domain.RateTable) {
	r.install(table)
}

// OnRefresh registers fn to run after every successful snapshot swap.
func (r *RateResolver) OnRefresh(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onRefresh = append(r.onRefresh, fn)
}

// Stale reports whether no live snapshot is installed.
func (r *RateResolver) Stale() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.live == nil
}

// LastError returns the error of the most recent failed fetch, if any.
func (r *RateResolver) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastErr
}

// Snapshot returns the installed live snapshot, or nil.
func (r *RateResolver) Snapshot() *domain.RateSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.live
}

// Fingerprint identifies the current state of every layer. It is derived
// from layer contents, so it can key caches shared between processes.
func (r *RateResolver) Fingerprint() string {
	snapshotID := "defaults"
	r.mu.RLock()
	if r.live != nil {
		snapshotID = r.live.ID
	}
	r.mu.RUnlock()

	digest := "none"
	if r.overrides != nil {
		digest = r.overrides.Digest()
	}
	return snapshotID + ":" + digest
}

func (r *RateResolver) install(table domain.RateTable) {
	snapshot := &domain.RateSnapshot{
		Rates:     table,
		FetchedAt: time.Now(),
	}
	if r.idGen != nil {
		snapshot.ID = r.idGen.Generate()
	} else {
		snapshot.ID = strconv.FormatInt(snapshot.FetchedAt.UnixNano(), 10)
	}

	r.mu.Lock()
	r.live = snapshot
	r.lastErr = nil
	hooks := append([]func(){}, r.onRefresh...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (r *RateResolver) recordFetch(outcome string, d time.Duration) {
	if r.metrics != nil {
		r.metrics.RecordRatesFetch(outcome, d)
	}
}

// reanchor converts "units per one anchor" quotes into base-currency units
// per one unit: base(X) = quote(base) / quote(X).
func reanchor(live *LiveRates) (domain.RateTable, error) {
	if live == nil || len(live.Rates) == 0 {
		return nil, fmt.Errorf("empty rates payload")
	}

	quotes := make(map[domain.Currency]decimal.Decimal, len(live.Rates)+1)
	for c, q := range live.Rates {
		quotes[c] = q
	}
	if live.Anchor != "" {
		if _, ok := quotes[live.Anchor]; !ok {
			quotes[live.Anchor] = decimal.NewFromInt(1)
		}
	}

	baseQuote, ok := quotes[domain.BaseCurrency]
	if !ok || !baseQuote.IsPositive() {
		return nil, fmt.Errorf("payload has no %s quote", domain.BaseCurrency)
	}

	table := make(domain.RateTable, len(quotes))
	for c, q := range quotes {
		if !q.IsPositive() {
			continue
		}
		table[c] = baseQuote.DivRound(q, ConversionPrecision)
	}
	table[domain.BaseCurrency] = decimal.NewFromInt(1)
	return table, nil
}
