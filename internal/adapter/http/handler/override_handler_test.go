package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fxledger/internal/adapter/http/dto"
	"github.com/iho/fxledger/internal/domain"
)

type overrideServiceStub struct {
	setFn   func(ctx context.Context, d domain.Day, c domain.Currency, rate decimal.NullDecimal) (bool, error)
	clearFn func(ctx context.Context, d domain.Day) (bool, error)
	all     domain.Overrides
	dates   []domain.Day
}

func (s *overrideServiceStub) SetOverride(ctx context.Context, d domain.Day, c domain.Currency, rate decimal.NullDecimal) (bool, error) {
	return s.setFn(ctx, d, c, rate)
}

func (s *overrideServiceStub) ClearDate(ctx context.Context, d domain.Day) (bool, error) {
	return s.clearFn(ctx, d)
}

func (s *overrideServiceStub) DatesWithOverrides() []domain.Day { return s.dates }
func (s *overrideServiceStub) All() domain.Overrides             { return s.all }

func TestOverrideHandler_Set(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantRate  string
	}{
		{"string rate", `{"rate":"13000"}`, true, "13000"},
		{"number rate", `{"rate":13000.5}`, true, "13000.5"},
		{"delete", `{"rate":null}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got decimal.NullDecimal
			var gotDate domain.Day
			var gotCurrency domain.Currency
			h := NewOverrideHandler(&overrideServiceStub{
				setFn: func(ctx context.Context, d domain.Day, c domain.Currency, rate decimal.NullDecimal) (bool, error) {
					got, gotDate, gotCurrency = rate, d, c
					return true, nil
				},
			})

			req := httptest.NewRequest(http.MethodPut, "/api/v1/overrides/2026-1-1/usd", strings.NewReader(tt.body))
			req = withURLParams(req, map[string]string{"date": "2026-1-1", "currency": "usd"})
			rec := httptest.NewRecorder()

			h.Set(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, domain.Day("2026-01-01"), gotDate)
			assert.Equal(t, domain.USD, gotCurrency)
			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantValid {
				assert.Equal(t, tt.wantRate, got.Decimal.String())
			}

			var resp dto.OverrideResultResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Applied)
		})
	}
}

func TestOverrideHandler_Set_Rejected(t *testing.T) {
	h := NewOverrideHandler(&overrideServiceStub{
		setFn: func(ctx context.Context, d domain.Day, c domain.Currency, rate decimal.NullDecimal) (bool, error) {
			return false, nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/overrides/2026-01-01/UZS", strings.NewReader(`{"rate":"2"}`))
	req = withURLParams(req, map[string]string{"date": "2026-01-01", "currency": "UZS"})
	rec := httptest.NewRecorder()

	h.Set(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applied":false}`, rec.Body.String())
}

func TestOverrideHandler_Set_BadInput(t *testing.T) {
	h := NewOverrideHandler(&overrideServiceStub{
		setFn: func(ctx context.Context, d domain.Day, c domain.Currency, rate decimal.NullDecimal) (bool, error) {
			t.Fatalf("service should not be called")
			return false, nil
		},
	})

	tests := []struct {
		name     string
		date     string
		currency string
		body     string
	}{
		{"bad date", "2026-02-30x", "USD", `{"rate":"1"}`},
		{"bad currency", "2026-01-01", "US", `{"rate":"1"}`},
		{"bad body", "2026-01-01", "USD", `{"rate":`},
		{"bad rate", "2026-01-01", "USD", `{"rate":"abc"}`},
		{"missing rate", "2026-01-01", "USD", `{}`},
		{"misspelled rate", "2026-01-01", "USD", `{"value":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/overrides", strings.NewReader(tt.body))
			req = withURLParams(req, map[string]string{"date": tt.date, "currency": tt.currency})
			rec := httptest.NewRecorder()

			h.Set(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestOverrideHandler_Clear(t *testing.T) {
	var cleared domain.Day
	h := NewOverrideHandler(&overrideServiceStub{
		clearFn: func(ctx context.Context, d domain.Day) (bool, error) {
			cleared = d
			return true, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/overrides/2026-01-01", nil), map[string]string{"date": "2026-01-01"})
	rec := httptest.NewRecorder()

	h.Clear(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Day("2026-01-01"), cleared)
}

func TestOverrideHandler_Clear_StorageError(t *testing.T) {
	h := NewOverrideHandler(&overrideServiceStub{
		clearFn: func(ctx context.Context, d domain.Day) (bool, error) {
			return false, errors.New("redis down")
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/overrides/2026-01-01", nil), map[string]string{"date": "2026-01-01"})
	rec := httptest.NewRecorder()

	h.Clear(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOverrideHandler_List(t *testing.T) {
	h := NewOverrideHandler(&overrideServiceStub{
		dates: []domain.Day{"2026-02-01", "2026-01-01"},
		all: domain.Overrides{
			"2026-01-01": {domain.USD: decimal.NewFromInt(13000)},
			"2026-02-01": {domain.EUR: decimal.NewFromInt(14000)},
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/overrides", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Overrides []dto.OverrideDayResponse `json:"overrides"`
		Count     int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "2026-02-01", resp.Overrides[0].Date)
	assert.True(t, resp.Overrides[1].Rates["USD"].Equal(decimal.NewFromInt(13000)))
}
