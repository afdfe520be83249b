package dto

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrRateRequired is returned when a request body has no "rate" key.
var ErrRateRequired = errors.New(`"rate" is required; send null to delete`)

// SetOverrideRequest sets or, with "rate": null, deletes a manual rate.
// The rate may be sent as a JSON number or a numeric string.
type SetOverrideRequest struct {
	Rate decimal.NullDecimal `json:"rate"`
}

// UnmarshalJSON requires the "rate" key so an empty body never deletes a cell.
func (r *SetOverrideRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	raw, ok := fields["rate"]
	if !ok {
		return ErrRateRequired
	}
	return r.Rate.UnmarshalJSON(raw)
}
