package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FlowSign tells whether an entry adds to or subtracts from the balance.
type FlowSign string

const (
	Inflow  FlowSign = "inflow"
	Outflow FlowSign = "outflow"
)

// Sign returns +1 for inflows and -1 for outflows. Unknown values count as 0.
func (f FlowSign) Sign() int64 {
	switch f {
	case Inflow:
		return 1
	case Outflow:
		return -1
	default:
		return 0
	}
}

// Origin names the collaborator an entry came from. Audit only.
type Origin string

const (
	OriginManualIncome      Origin = "manual_income"
	OriginManualExpense     Origin = "manual_expense"
	OriginClientTransaction Origin = "client_transaction"
	OriginOrderPromise      Origin = "order_promise"
)

// DefaultFlow returns the flow implied by the origin when a record carries none.
func (o Origin) DefaultFlow() FlowSign {
	switch o {
	case OriginManualExpense, OriginOrderPromise:
		return Outflow
	default:
		return Inflow
	}
}

// Entry is a single dated monetary movement. Amount is never negative;
// direction lives in FlowSign.
type Entry struct {
	ID        string          `json:"id"`
	FlowSign  FlowSign        `json:"flowSign"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  Currency        `json:"currency"`
	Date      Day             `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
	Origin    Origin          `json:"origin"`
}

// Signed returns the amount with the flow sign applied. Entries that are out
// of contract (negative amount, unknown flow) contribute zero.
func (e Entry) Signed() decimal.Decimal {
	if e.Amount.IsNegative() {
		return decimal.Zero
	}
	return e.Amount.Mul(decimal.NewFromInt(e.FlowSign.Sign()))
}
