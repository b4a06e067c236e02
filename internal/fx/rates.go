package fx

import (
	"time"

	"github.com/shopspring/decimal"

	"settlement-service/internal/domain"
	"settlement-service/pkg/xerrors"
)

// RateProvider supplies exchange rates quoted against the base currency
// (units of quote currency per one unit of base). Conversion logic never
// reads rates from anywhere else, so a live-rate source can be swapped in
// without touching it.
type RateProvider interface {
	Rate(code domain.Currency) (decimal.Decimal, error)
	AsOf() time.Time
}

// StaticRateProvider serves a fixed in-memory table.
type StaticRateProvider struct {
	rates map[domain.Currency]decimal.Decimal
	asOf  time.Time
}

// DefaultRates is the static table versus USD.
func DefaultRates() map[domain.Currency]decimal.Decimal {
	return map[domain.Currency]decimal.Decimal{
		domain.CurrencyUSD: decimal.NewFromInt(1),
		domain.CurrencyZAR: decimal.RequireFromString("18.50"),
		domain.CurrencyEUR: decimal.RequireFromString("0.92"),
		domain.CurrencyGBP: decimal.RequireFromString("0.79"),
		domain.CurrencyAUD: decimal.RequireFromString("1.52"),
		domain.CurrencyCAD: decimal.RequireFromString("1.36"),
		domain.CurrencyNGN: decimal.NewFromInt(1620),
		domain.CurrencyKES: decimal.NewFromInt(129),
		domain.CurrencyGHS: decimal.RequireFromString("15.50"),
		domain.CurrencyUGX: decimal.NewFromInt(3700),
	}
}

func NewStaticRateProvider(rates map[domain.Currency]decimal.Decimal, asOf time.Time) *StaticRateProvider {
	return &StaticRateProvider{rates: rates, asOf: asOf}
}

// NewDefaultRateProvider returns a provider over the built-in table.
func NewDefaultRateProvider() *StaticRateProvider {
	return NewStaticRateProvider(DefaultRates(), time.Now())
}

func (p *StaticRateProvider) Rate(code domain.Currency) (decimal.Decimal, error) {
	rate, ok := p.rates[code]
	if !ok {
		return decimal.Zero, xerrors.ErrNoRate
	}
	return rate, nil
}

func (p *StaticRateProvider) AsOf() time.Time {
	return p.asOf
}
