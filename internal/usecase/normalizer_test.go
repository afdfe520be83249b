package usecase_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/usecase"
)

const normalizeToday = domain.Day("2026-03-15")

func TestNormalize_FieldVariants(t *testing.T) {
	tests := []struct {
		name     string
		origin   domain.Origin
		raw      string
		expected domain.Entry
	}{
		{
			name:   "canonical income",
			origin: domain.OriginManualIncome,
			raw:    `[{"id":"a","amount":100,"currency":"USD","date":"2026-01-05"}]`,
			expected: domain.Entry{
				ID: "a", FlowSign: domain.Inflow, Amount: decimal.NewFromInt(100),
				Currency: domain.USD, Date: "2026-01-05", Origin: domain.OriginManualIncome,
			},
		},
		{
			name:   "expense defaults to outflow",
			origin: domain.OriginManualExpense,
			raw:    `[{"_id":"b","sum":"42.50","curr":"eur","paymentDate":"2026-1-7"}]`,
			expected: domain.Entry{
				ID: "b", FlowSign: domain.Outflow, Amount: decimal.RequireFromString("42.5"),
				Currency: domain.EUR, Date: "2026-01-07", Origin: domain.OriginManualExpense,
			},
		},
		{
			name:   "explicit flow wins over origin",
			origin: domain.OriginOrderPromise,
			raw:    `[{"id":"c","value":10,"type":"payment","dueDate":"2026-02-01T10:00:00Z"}]`,
			expected: domain.Entry{
				ID: "c", FlowSign: domain.Inflow, Amount: decimal.NewFromInt(10),
				Currency: domain.UZS, Date: "2026-02-01", Origin: domain.OriginOrderPromise,
			},
		},
		{
			name:   "negative amount without flow flips to outflow",
			origin: domain.OriginClientTransaction,
			raw:    `[{"id":"d","amount":-5,"currency":"RUB","date":"2026-01-01"}]`,
			expected: domain.Entry{
				ID: "d", FlowSign: domain.Outflow, Amount: decimal.NewFromInt(5),
				Currency: domain.RUB, Date: "2026-01-01", Origin: domain.OriginClientTransaction,
			},
		},
		{
			name:   "negative amount with explicit flow keeps flow",
			origin: domain.OriginClientTransaction,
			raw:    `[{"id":"e","amount":-5,"flow":"income","date":"2026-01-01"}]`,
			expected: domain.Entry{
				ID: "e", FlowSign: domain.Inflow, Amount: decimal.NewFromInt(5),
				Currency: domain.UZS, Date: "2026-01-01", Origin: domain.OriginClientTransaction,
			},
		},
		{
			name:   "garbage falls back to defaults",
			origin: domain.OriginManualIncome,
			raw:    `[{"amount":"lots","currency":"dollars","date":"someday"}]`,
			expected: domain.Entry{
				ID: "manual_income-0", FlowSign: domain.Inflow, Amount: decimal.Zero,
				Currency: domain.UZS, Date: normalizeToday, Origin: domain.OriginManualIncome,
			},
		},
		{
			name:   "non-object record",
			origin: domain.OriginManualExpense,
			raw:    `[17]`,
			expected: domain.Entry{
				ID: "manual_expense-0", FlowSign: domain.Outflow, Amount: decimal.Zero,
				Currency: domain.UZS, Date: normalizeToday, Origin: domain.OriginManualExpense,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.Normalize([]byte(tt.raw), tt.origin, normalizeToday)
			if len(got) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(got))
			}
			assertEntry(t, tt.expected, got[0])
		})
	}
}

func TestNormalize_NotAnArray(t *testing.T) {
	for _, raw := range []string{``, `null`, `{"id":"x"}`, `not json`} {
		got := usecase.Normalize([]byte(raw), domain.OriginManualIncome, normalizeToday)
		if got == nil || len(got) != 0 {
			t.Errorf("Normalize(%q) = %v, expected empty slice", raw, got)
		}
	}
}

func TestNormalize_Ordering(t *testing.T) {
	raw := `[
		{"id":"late","amount":1,"date":"2026-01-03"},
		{"id":"b","amount":1,"date":"2026-01-01","createdAt":"2026-01-01T10:00:00Z"},
		{"id":"a","amount":1,"date":"2026-01-01","createdAt":"2026-01-01T10:00:00Z"},
		{"id":"first","amount":1,"date":"2026-01-01","createdAt":"2026-01-01T09:00:00Z"}
	]`

	got := usecase.Normalize([]byte(raw), domain.OriginManualIncome, normalizeToday)

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	expected := []string{"first", "a", "b", "late"}
	if !reflect.DeepEqual(ids, expected) {
		t.Fatalf("expected order %v, got %v", expected, ids)
	}
}

func TestNormalize_KeepsDuplicateIDs(t *testing.T) {
	raw := `[{"id":"x","amount":1},{"id":"x","amount":2}]`
	got := usecase.Normalize([]byte(raw), domain.OriginManualIncome, normalizeToday)
	if len(got) != 2 {
		t.Fatalf("expected duplicates to be kept, got %d entries", len(got))
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := `[
		{"id":"p1","amount":"1500000","currency":"UZS","date":"2026-01-02","createdAt":"2026-01-02T08:30:00Z"},
		{"id":"p2","sum":-20,"curr":"USD","paymentDate":"2026-1-3"},
		{"amount":7,"type":"debt"}
	]`

	first := usecase.Normalize([]byte(raw), domain.OriginClientTransaction, normalizeToday)

	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second := usecase.Normalize(encoded, domain.OriginManualIncome, "2030-01-01")

	if len(first) != len(second) {
		t.Fatalf("expected %d entries, got %d", len(first), len(second))
	}
	for i := range first {
		assertEntry(t, first[i], second[i])
	}
}

func TestNormalizeRecords_NilRecord(t *testing.T) {
	got := usecase.NormalizeRecords([]map[string]any{nil, {"id": "r", "amount": 3.5, "currency": "EUR"}}, domain.OriginManualIncome, normalizeToday)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "manual_income-0" || !got[0].Amount.IsZero() {
		t.Errorf("expected placeholder zero entry first, got %+v", got[0])
	}
	if !got[1].Amount.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("expected float amount 3.5, got %s", got[1].Amount)
	}
}

func TestNormalize_CreatedAt(t *testing.T) {
	raw := `[{"id":"c","amount":1,"created_at":"2026-01-02T03:04:05+05:00"}]`
	got := usecase.Normalize([]byte(raw), domain.OriginManualIncome, normalizeToday)

	want := time.Date(2026, 1, 1, 22, 4, 5, 0, time.UTC)
	if !got[0].CreatedAt.Equal(want) {
		t.Fatalf("expected createdAt %v, got %v", want, got[0].CreatedAt)
	}
}

func assertEntry(t *testing.T, expected, got domain.Entry) {
	t.Helper()

	if got.ID != expected.ID {
		t.Errorf("ID: expected %q, got %q", expected.ID, got.ID)
	}
	if got.FlowSign != expected.FlowSign {
		t.Errorf("FlowSign: expected %q, got %q", expected.FlowSign, got.FlowSign)
	}
	if !got.Amount.Equal(expected.Amount) {
		t.Errorf("Amount: expected %s, got %s", expected.Amount, got.Amount)
	}
	if got.Currency != expected.Currency {
		t.Errorf("Currency: expected %q, got %q", expected.Currency, got.Currency)
	}
	if got.Date != expected.Date {
		t.Errorf("Date: expected %q, got %q", expected.Date, got.Date)
	}
	if got.Origin != expected.Origin {
		t.Errorf("Origin: expected %q, got %q", expected.Origin, got.Origin)
	}
	if !got.CreatedAt.Equal(expected.CreatedAt) {
		t.Errorf("CreatedAt: expected %v, got %v", expected.CreatedAt, got.CreatedAt)
	}
}
