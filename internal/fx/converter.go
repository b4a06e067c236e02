package fx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"settlement-service/internal/domain"
	"settlement-service/pkg/xerrors"
)

// Converter performs all money-unit conversion. It is pure given its
// RateProvider.
type Converter struct {
	rates RateProvider
}

func NewConverter(rates RateProvider) *Converter {
	return &Converter{rates: rates}
}

// Convert converts amount from one supported currency to another.
//
// The identity case returns the amount unchanged with no rounding. All other
// conversions route through the base currency (from -> base -> to) and round
// the final result to 2 decimal places, half-up. Routing through the base
// means A->B accumulates rounding error relative to a hypothetical direct
// rate; that is accepted.
func (c *Converter) Convert(amount decimal.Decimal, from, to domain.Currency) (decimal.Decimal, error) {
	if !from.IsSupported() {
		return decimal.Zero, fmt.Errorf("convert from %s: %w", from, xerrors.ErrUnsupportedCurrency)
	}
	if !to.IsSupported() {
		return decimal.Zero, fmt.Errorf("convert to %s: %w", to, xerrors.ErrUnsupportedCurrency)
	}
	if from == to {
		return amount, nil
	}

	fromRate, err := c.rates.Rate(from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate for %s: %w", from, err)
	}
	toRate, err := c.rates.Rate(to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate for %s: %w", to, err)
	}

	inBase := amount.Div(fromRate)
	return inBase.Mul(toRate).Round(2), nil
}

// ConvertAmount is Convert over a CurrencyAmount value.
func (c *Converter) ConvertAmount(amount domain.CurrencyAmount, to domain.Currency) (domain.CurrencyAmount, error) {
	converted, err := c.Convert(amount.Amount, amount.Currency, to)
	if err != nil {
		return domain.CurrencyAmount{}, err
	}
	return domain.NewCurrencyAmount(converted, to), nil
}

// ToGatewayAmount converts a local amount into the base currency, which is
// what the payment gateway actually charges.
func (c *Converter) ToGatewayAmount(amount decimal.Decimal, from domain.Currency) (decimal.Decimal, error) {
	return c.Convert(amount, from, domain.BaseCurrency)
}

// ConversionMessage is the pre-checkout notice shown when the charged
// currency differs from the displayed one. Empty for base-currency amounts.
func (c *Converter) ConversionMessage(amount decimal.Decimal, currency domain.Currency) (string, error) {
	if currency == domain.BaseCurrency {
		return "", nil
	}

	gatewayAmount, err := c.ToGatewayAmount(amount, currency)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("You will be charged %s (approximately %s USD)",
		Format(amount, currency), Format(gatewayAmount, domain.BaseCurrency)), nil
}
