package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
)

var (
	idFields        = []string{"id", "_id"}
	amountFields    = []string{"amount", "sum", "value"}
	currencyFields  = []string{"currency", "curr"}
	dateFields      = []string{"date", "paymentDate", "dueDate"}
	createdAtFields = []string{"createdAt", "created_at"}
	flowFields      = []string{"flowSign", "flow", "type"}
)

var flowAliases = map[string]domain.FlowSign{
	"inflow":  domain.Inflow,
	"income":  domain.Inflow,
	"payment": domain.Inflow,
	"outflow": domain.Outflow,
	"expense": domain.Outflow,
	"promise": domain.Outflow,
	"debt":    domain.Outflow,
}

// Normalize decodes a JSON array of raw records into canonical entries.
// It never fails: anything that is not a JSON array yields no entries and
// malformed fields fall back to safe defaults. Normalizing the JSON encoding
// of its own output is a no-op.
func Normalize(raw []byte, origin domain.Origin, today domain.Day) []domain.Entry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []domain.Entry{}
	}

	records := make([]map[string]any, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()

		var rec map[string]any
		if err := dec.Decode(&rec); err == nil {
			records[i] = rec
		}
	}

	return NormalizeRecords(records, origin, today)
}

// NormalizeRecords converts decoded records into canonical entries ordered by
// date, capture time and ID. A nil record becomes a zero-amount entry.
func NormalizeRecords(records []map[string]any, origin domain.Origin, today domain.Day) []domain.Entry {
	entries := make([]domain.Entry, 0, len(records))
	for i, rec := range records {
		entries = append(entries, normalizeRecord(rec, origin, i, today))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return entries
}

func normalizeRecord(rec map[string]any, origin domain.Origin, index int, today domain.Day) domain.Entry {
	entry := domain.Entry{
		ID:       fmt.Sprintf("%s-%d", origin, index),
		FlowSign: origin.DefaultFlow(),
		Amount:   decimal.Zero,
		Currency: domain.BaseCurrency,
		Date:     today,
		Origin:   origin,
	}
	if rec == nil {
		return entry
	}

	if id, ok := stringField(rec, idFields); ok {
		entry.ID = id
	}

	if s, ok := stringField(rec, []string{"origin"}); ok {
		entry.Origin = domain.Origin(s)
	}

	flow, explicitFlow := flowField(rec)
	if explicitFlow {
		entry.FlowSign = flow
	}

	if amount, ok := amountField(rec); ok {
		if amount.IsNegative() && !explicitFlow {
			entry.FlowSign = domain.Outflow
		}
		entry.Amount = amount.Abs()
	}

	if s, ok := stringField(rec, currencyFields); ok {
		if c, ok := domain.ParseCurrency(s); ok {
			entry.Currency = c
		}
	}

	if s, ok := stringField(rec, dateFields); ok {
		if d, err := domain.ParseDay(s); err == nil {
			entry.Date = d
		}
	}

	if s, ok := stringField(rec, createdAtFields); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			entry.CreatedAt = t.UTC()
		}
	}

	return entry
}

func stringField(rec map[string]any, names []string) (string, bool) {
	for _, name := range names {
		switch v := rec[name].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s, true
			}
		case json.Number:
			return v.String(), true
		}
	}
	return "", false
}

func flowField(rec map[string]any) (domain.FlowSign, bool) {
	for _, name := range flowFields {
		s, ok := rec[name].(string)
		if !ok {
			continue
		}
		if flow, ok := flowAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
			return flow, true
		}
	}
	return "", false
}

func amountField(rec map[string]any) (decimal.Decimal, bool) {
	for _, name := range amountFields {
		v, present := rec[name]
		if !present || v == nil {
			continue
		}
		d, ok := toDecimal(v)
		if !ok {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}
