package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/infrastructure/metrics"
)

// ErrInvalidRange is returned when continuity windows do not adjoin properly.
var ErrInvalidRange = errors.New("invalid reporting range")

// entrySources maps storage buckets to the origin of their records.
var entrySources = []struct {
	bucket string
	origin domain.Origin
}{
	{BucketManualIncome, domain.OriginManualIncome},
	{BucketManualExpense, domain.OriginManualExpense},
	{BucketClientTransactions, domain.OriginClientTransaction},
	{BucketOrderPromises, domain.OriginOrderPromise},
}

// BalanceUseCase reads raw records from storage and produces balance reports.
type BalanceUseCase struct {
	store    KVStore
	rates    RateSource
	cache    ReportCache
	cacheTTL time.Duration
	today    func() domain.Day
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	memo  *expirable.LRU[string, *domain.BalanceReport]
	group singleflight.Group
}

// BalanceUseCaseConfig configures a BalanceUseCase.
type BalanceUseCaseConfig struct {
	Store    KVStore
	Rates    RateSource
	Cache    ReportCache
	CacheTTL time.Duration
	// MemoSize bounds the in-process report memo. Entries also expire after CacheTTL.
	MemoSize int
	Today    func() domain.Day
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(cfg BalanceUseCaseConfig) *BalanceUseCase {
	if cfg.Today == nil {
		cfg.Today = domain.Today
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultReportCacheTTL
	}
	if cfg.MemoSize <= 0 {
		cfg.MemoSize = DefaultReportMemoSize
	}

	return &BalanceUseCase{
		store:    cfg.Store,
		rates:    cfg.Rates,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		today:    cfg.Today,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		memo:     expirable.NewLRU[string, *domain.BalanceReport](cfg.MemoSize, nil, cfg.CacheTTL),
	}
}

// Report computes the balance report for [start, end] in the display currency.
// A reversed range is swapped first.
func (uc *BalanceUseCase) Report(ctx context.Context, start, end domain.Day, display domain.Currency) (*domain.BalanceReport, error) {
	if start.After(end) {
		start, end = end, start
	}

	entries, err := uc.LoadEntries(ctx)
	if err != nil {
		return nil, err
	}

	return uc.compute(ctx, entries, start, end, display)
}

// Entries returns the normalized entries dated within [start, end].
func (uc *BalanceUseCase) Entries(ctx context.Context, start, end domain.Day) ([]domain.Entry, error) {
	if start.After(end) {
		start, end = end, start
	}

	entries, err := uc.LoadEntries(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Between(start, end) {
			out = append(out, e)
		}
	}
	return out, nil
}

// LoadEntries reads and normalizes every entry source.
func (uc *BalanceUseCase) LoadEntries(ctx context.Context) ([]domain.Entry, error) {
	today := uc.today()

	var entries []domain.Entry
	for _, src := range entrySources {
		raw, err := uc.store.Read(ctx, src.bucket)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.bucket, err)
		}
		if raw == nil {
			continue
		}
		entries = append(entries, Normalize(raw, src.origin, today)...)
	}
	return entries, nil
}

// ContinuityResult holds the two adjoining reports checked by CheckContinuity.
type ContinuityResult struct {
	Left       *domain.BalanceReport `json:"left"`
	Right      *domain.BalanceReport `json:"right"`
	Consistent bool                  `json:"consistent"`
}

// CheckContinuity verifies that the final balance of [a, b] equals the
// opening balance of [b+1, c].
func (uc *BalanceUseCase) CheckContinuity(ctx context.Context, a, b, c domain.Day, display domain.Currency) (*ContinuityResult, error) {
	next := b.AddDays(1)
	if a.After(b) || next.After(c) {
		return nil, fmt.Errorf("%w: need %s <= %s < %s", ErrInvalidRange, a, b, c)
	}

	entries, err := uc.LoadEntries(ctx)
	if err != nil {
		return nil, err
	}

	left, err := uc.compute(ctx, entries, a, b, display)
	if err != nil {
		return nil, err
	}
	right, err := uc.compute(ctx, entries, next, c, display)
	if err != nil {
		return nil, err
	}

	result := &ContinuityResult{
		Left:       left,
		Right:      right,
		Consistent: left.FinalBalance.Equal(right.OpeningBalance),
	}
	if !result.Consistent {
		uc.logger.Error().
			Str("final", left.FinalBalance.String()).
			Str("opening", right.OpeningBalance.String()).
			Msg("balance discontinuity detected")
		return result, domain.ErrDiscontinuity
	}
	return result, nil
}

// Invalidate drops every memoized report.
func (uc *BalanceUseCase) Invalidate() {
	uc.memo.Purge()
}

// HandleChange invalidates memoized reports when an entry bucket changed.
func (uc *BalanceUseCase) HandleChange(_ context.Context, key string) {
	for _, src := range entrySources {
		if src.bucket == key {
			uc.Invalidate()
			return
		}
	}
}

func (uc *BalanceUseCase) compute(ctx context.Context, entries []domain.Entry, start, end domain.Day, display domain.Currency) (*domain.BalanceReport, error) {
	key := reportKey(entries, start, end, display, uc.rates.Fingerprint())

	if cached, ok := uc.memo.Get(key); ok {
		uc.recordCache(true)
		return cached, nil
	}

	v, err, _ := uc.group.Do(key, func() (any, error) {
		if uc.cache != nil {
			report, found, err := uc.cache.GetReport(ctx, key)
			if err != nil {
				uc.logger.Warn().Err(err).Msg("report cache read failed")
			} else if found {
				uc.memo.Add(key, report)
				uc.recordCache(true)
				return report, nil
			}
		}
		uc.recordCache(false)

		started := time.Now()
		report, err := ComputeBalance(entries, start, end, display, uc.rates.RateOf)
		if err != nil {
			return nil, err
		}
		uc.recordReport(display, time.Since(started))

		uc.memo.Add(key, report)
		if uc.cache != nil {
			if err := uc.cache.SetReport(ctx, key, report, uc.cacheTTL); err != nil {
				uc.logger.Warn().Err(err).Msg("report cache write failed")
			}
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.BalanceReport), nil
}

func (uc *BalanceUseCase) recordCache(hit bool) {
	if uc.metrics != nil {
		uc.metrics.RecordReportCache(hit)
	}
}

func (uc *BalanceUseCase) recordReport(display domain.Currency, d time.Duration) {
	if uc.metrics != nil {
		uc.metrics.RecordReport(string(display), d)
	}
}

// reportKey identifies a report by its inputs.
func reportKey(entries []domain.Entry, start, end domain.Day, display domain.Currency, fingerprint string) string {
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s\n", e.ID, e.FlowSign, e.Amount.String(), e.Currency, e.Date)
	}
	fmt.Fprintf(h, "%s|%s|%s|%s", start, end, display, fingerprint)
	return hex.EncodeToString(h.Sum(nil))
}
