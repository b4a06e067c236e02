package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"settlement-service/internal/domain"
	"settlement-service/internal/fx"
	"settlement-service/pkg/xerrors"
)

// FeeCalculator computes the platform's take from a gross contribution
// amount: fixed fee + percentage of gross. The fixed component is denominated
// in the base currency and converted into the contribution's currency first.
type FeeCalculator struct {
	schedule  domain.FeeSchedule
	converter *fx.Converter
}

func NewFeeCalculator(schedule domain.FeeSchedule, converter *fx.Converter) *FeeCalculator {
	return &FeeCalculator{
		schedule:  schedule,
		converter: converter,
	}
}

// Calculate returns the fee and net for a gross amount.
//
// The fee is never negative and never exceeds gross: a gross amount smaller
// than the fixed component clamps the fee to gross, flooring net at zero.
// The gateway has already captured the amount by the time the ledger sees
// it, so a fee the gross cannot cover clamps instead of rejecting.
func (c *FeeCalculator) Calculate(gross decimal.Decimal, currency domain.Currency) (*domain.FeeCalculation, error) {
	if !currency.IsSupported() {
		return nil, fmt.Errorf("fee for %s: %w", currency, xerrors.ErrUnsupportedCurrency)
	}
	if !gross.IsPositive() {
		return nil, xerrors.ErrAmountNotPositive
	}

	fixed, err := c.converter.Convert(c.schedule.FixedFee, domain.BaseCurrency, currency)
	if err != nil {
		return nil, fmt.Errorf("convert fixed fee: %w", err)
	}

	percentRate := decimal.NewFromInt(c.schedule.PercentBps).Div(decimal.NewFromInt(10000))
	percent := gross.Mul(percentRate).Round(2)

	fee := fixed.Add(percent)

	calc := &domain.FeeCalculation{
		Currency:         currency,
		FixedComponent:   fixed,
		PercentComponent: percent,
		CalculatedFrom: fmt.Sprintf("fixed: %s %s + percentage: %s (%d bps of %s)",
			fixed.StringFixed(2), currency, percent.StringFixed(2), c.schedule.PercentBps, gross.StringFixed(2)),
	}

	if fee.GreaterThan(gross) {
		calc.Clamped = true
		calc.CalculatedFrom += fmt.Sprintf("; clamped to gross %s (was %s)", gross.StringFixed(2), fee.StringFixed(2))
		fee = gross
	}

	calc.Fee = fee
	calc.Net = gross.Sub(fee)

	return calc, nil
}

// Net returns gross minus the computed fee.
func (c *FeeCalculator) Net(gross decimal.Decimal, currency domain.Currency) (decimal.Decimal, error) {
	calc, err := c.Calculate(gross, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return calc.Net, nil
}
