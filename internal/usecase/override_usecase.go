package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/infrastructure/metrics"
)

// OverrideStore keeps manual per-date, per-currency rate corrections and
// persists them to the rate_overrides bucket.
type OverrideStore struct {
	mu        sync.RWMutex
	store     KVStore
	policy    domain.EditPolicy
	today     func() domain.Day
	overrides domain.Overrides
	version   uint64
	digest    string
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// OverrideStoreConfig configures an OverrideStore.
type OverrideStoreConfig struct {
	Store   KVStore
	Policy  domain.EditPolicy
	Today   func() domain.Day
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// NewOverrideStore creates an empty OverrideStore. Call Load to read persisted data.
func NewOverrideStore(cfg OverrideStoreConfig) *OverrideStore {
	if cfg.Policy == nil {
		cfg.Policy = domain.DefaultEditPolicy()
	}
	if cfg.Today == nil {
		cfg.Today = domain.Today
	}

	return &OverrideStore{
		store:     cfg.Store,
		policy:    cfg.Policy,
		today:     cfg.Today,
		overrides: domain.Overrides{},
		digest:    overridesDigest(domain.Overrides{}),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Load replaces the in-memory overrides with the persisted bucket.
// Garbage in the bucket is dropped cell by cell.
func (s *OverrideStore) Load(ctx context.Context) error {
	raw, err := s.store.Read(ctx, BucketRateOverrides)
	if err != nil {
		return fmt.Errorf("read overrides: %w", err)
	}

	loaded := decodeOverrides(raw)

	s.mu.Lock()
	s.overrides = loaded
	s.digest = overridesDigest(loaded)
	s.version++
	s.mu.Unlock()

	s.logger.Debug().Int("dates", len(loaded)).Msg("rate overrides loaded")
	return nil
}

// SetOverride upserts the (date, currency) cell, or deletes it when rate is
// not valid (JSON null). It reports whether the edit was applied. Edits on the
// base currency, policy-locked cells and non-positive rates are rejected
// silently with (false, nil).
func (s *OverrideStore) SetOverride(ctx context.Context, date domain.Day, currency domain.Currency, rate decimal.NullDecimal) (bool, error) {
	if !date.Valid() || currency.IsBase() {
		s.recordWrite("set", false)
		return false, nil
	}
	if rate.Valid && !rate.Decimal.IsPositive() {
		s.recordWrite("set", false)
		return false, nil
	}
	if !s.policy.CanEdit(currency, date, s.today()) {
		s.recordWrite("set", false)
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.overrides.Clone()
	if rate.Valid {
		if next[date] == nil {
			next[date] = map[domain.Currency]decimal.Decimal{}
		}
		next[date][currency] = rate.Decimal
	} else {
		if _, ok := next[date][currency]; !ok {
			s.recordWrite("delete", false)
			return false, nil
		}
		delete(next[date], currency)
		if len(next[date]) == 0 {
			delete(next, date)
		}
	}

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.overrides = next
	s.digest = overridesDigest(next)
	s.version++

	op := "set"
	if !rate.Valid {
		op = "delete"
	}
	s.recordWrite(op, true)
	s.logger.Info().
		Str("date", date.String()).
		Str("currency", currency.String()).
		Str("op", op).
		Msg("rate override changed")

	return true, nil
}

// SetOverrideFloat is SetOverride for float input. NaN and infinities are
// rejected like any other invalid rate.
func (s *OverrideStore) SetOverrideFloat(ctx context.Context, date domain.Day, currency domain.Currency, rate *float64) (bool, error) {
	if rate == nil {
		return s.SetOverride(ctx, date, currency, decimal.NullDecimal{})
	}
	if math.IsNaN(*rate) || math.IsInf(*rate, 0) {
		s.recordWrite("set", false)
		return false, nil
	}
	return s.SetOverride(ctx, date, currency, decimal.NewNullDecimal(decimal.NewFromFloat(*rate)))
}

// ClearDate removes every override recorded for date.
func (s *OverrideStore) ClearDate(ctx context.Context, date domain.Day) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overrides[date]; !ok {
		return false, nil
	}

	next := s.overrides.Clone()
	delete(next, date)

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.overrides = next
	s.digest = overridesDigest(next)
	s.version++

	s.recordWrite("clear", true)
	s.logger.Info().Str("date", date.String()).Msg("rate overrides cleared")
	return true, nil
}

// Get returns the override for the cell, if any.
func (s *OverrideStore) Get(date domain.Day, currency domain.Currency) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate, ok := s.overrides[date][currency]
	return rate, ok
}

// HasManualRate reports whether any currency has an override on date.
func (s *OverrideStore) HasManualRate(date domain.Day) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.overrides[date]) > 0
}

// DatesWithOverrides returns the dates holding overrides, most recent first.
func (s *OverrideStore) DatesWithOverrides() []domain.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]domain.Day, 0, len(s.overrides))
	for d, cells := range s.overrides {
		if len(cells) > 0 {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] > dates[j] })
	return dates
}

// All returns a copy of every override.
func (s *OverrideStore) All() domain.Overrides {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.overrides.Clone()
}

// CanEdit reports whether the cell is editable under the store's policy today.
func (s *OverrideStore) CanEdit(date domain.Day, currency domain.Currency) bool {
	return s.policy.CanEdit(currency, date, s.today())
}

// Version increases on every change to the overrides made or loaded by
// this store. It is local to the process.
func (s *OverrideStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// Digest identifies the override contents. Stores holding the same
// overrides return the same digest, in any process.
func (s *OverrideStore) Digest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.digest
}

// HandleChange reloads the overrides when their bucket changed elsewhere.
func (s *OverrideStore) HandleChange(ctx context.Context, key string) {
	if key != BucketRateOverrides {
		return
	}
	if err := s.Load(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reload rate overrides")
	}
}

func (s *OverrideStore) persist(ctx context.Context, overrides domain.Overrides) error {
	raw, err := encodeOverrides(overrides)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := s.store.Write(ctx, BucketRateOverrides, raw); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}
	return nil
}

func (s *OverrideStore) recordWrite(op string, applied bool) {
	if s.metrics != nil {
		s.metrics.RecordOverrideWrite(op, applied)
	}
}

func overridesDigest(o domain.Overrides) string {
	raw, err := encodeOverrides(o)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}

func encodeOverrides(o domain.Overrides) ([]byte, error) {
	out := make(map[string]map[string]json.Number, len(o))
	for date, cells := range o {
		row := make(map[string]json.Number, len(cells))
		for currency, rate := range cells {
			row[string(currency)] = json.Number(rate.String())
		}
		out[string(date)] = row
	}
	return json.Marshal(out)
}

func decodeOverrides(raw []byte) domain.Overrides {
	out := domain.Overrides{}
	if len(raw) == 0 {
		return out
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return out
	}

	for rawDate, rawCells := range parsed {
		date, err := domain.ParseDay(rawDate)
		if err != nil {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(rawCells))
		dec.UseNumber()

		var cells map[string]any
		if err := dec.Decode(&cells); err != nil {
			continue
		}
		for rawCurrency, v := range cells {
			currency, ok := domain.ParseCurrency(rawCurrency)
			if !ok || currency.IsBase() {
				continue
			}
			rate, ok := toDecimal(v)
			if !ok || !rate.IsPositive() {
				continue
			}
			if out[date] == nil {
				out[date] = map[domain.Currency]decimal.Decimal{}
			}
			out[date][currency] = rate
		}
	}
	return out
}
