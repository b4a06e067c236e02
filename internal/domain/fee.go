package domain

import "github.com/shopspring/decimal"

// FeeSchedule is the platform's take: a fixed per-transaction charge
// (denominated in the base currency) plus a percentage of the gross amount.
type FeeSchedule struct {
	FixedFee   decimal.Decimal `json:"fixed_fee"`
	PercentBps int64           `json:"percent_bps"`
}

// DefaultFeeSchedule is $2.00 fixed + 3% of gross.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		FixedFee:   decimal.RequireFromString("2.00"),
		PercentBps: 300,
	}
}

// FeeCalculation is the computed platform take for one gross amount,
// with an audit trail of the formula inputs.
type FeeCalculation struct {
	Fee      decimal.Decimal `json:"fee"`
	Net      decimal.Decimal `json:"net"`
	Currency Currency        `json:"currency"`

	FixedComponent   decimal.Decimal `json:"fixed_component"`
	PercentComponent decimal.Decimal `json:"percent_component"`
	Clamped          bool            `json:"clamped"`
	CalculatedFrom   string          `json:"calculated_from"`
}
