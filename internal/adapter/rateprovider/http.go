package rateprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxledger/internal/domain"
	"github.com/iho/fxledger/internal/usecase"
)

// ErrBadPayload is returned when the provider answers with unusable data.
var ErrBadPayload = errors.New("unusable rates payload")

// maxBody bounds how much of a provider response is read.
const maxBody = 1 << 20

// HTTPProvider implements usecase.RateProvider against a JSON endpoint
// shaped like {"base_code": "USD", "rates": {"UZS": 12650, "EUR": 0.92}}.
// The legacy "base" key is accepted as well.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider for url. A nil client gets a 30s timeout;
// the resolver applies its own, shorter deadline through the context.
func NewHTTPProvider(url string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPProvider{url: url, client: client}
}

type ratesPayload struct {
	Result   string                     `json:"result"`
	BaseCode string                     `json:"base_code"`
	Base     string                     `json:"base"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// FetchLiveRates performs one GET and decodes the payload.
func (p *HTTPProvider) FetchLiveRates(ctx context.Context) (*usecase.LiveRates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read rates: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	return decodeRates(body)
}

func decodeRates(body []byte) (*usecase.LiveRates, error) {
	var payload ratesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if payload.Result != "" && payload.Result != "success" {
		return nil, fmt.Errorf("%w: result %q", ErrBadPayload, payload.Result)
	}

	anchorCode := payload.BaseCode
	if anchorCode == "" {
		anchorCode = payload.Base
	}
	anchor, ok := domain.ParseCurrency(anchorCode)
	if !ok {
		return nil, fmt.Errorf("%w: missing base currency", ErrBadPayload)
	}

	live := &usecase.LiveRates{
		Anchor: anchor,
		Rates:  make(map[domain.Currency]decimal.Decimal, len(payload.Rates)),
	}
	for code, rate := range payload.Rates {
		c, ok := domain.ParseCurrency(code)
		if !ok || !rate.IsPositive() {
			continue
		}
		live.Rates[c] = rate
	}
	if len(live.Rates) == 0 {
		return nil, fmt.Errorf("%w: no rates", ErrBadPayload)
	}

	return live, nil
}
