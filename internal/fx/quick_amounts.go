package fx

import (
	"github.com/shopspring/decimal"

	"settlement-service/internal/domain"
)

// RoundingTier snaps converted amounts below Limit to multiples of Unit.
// A zero Limit marks the open-ended final tier.
type RoundingTier struct {
	Limit decimal.Decimal
	Unit  decimal.Decimal
}

// QuickAmountConfig drives the quick-donation suggestion heuristic. The
// tier tables are data, not code, so tests can supply their own bucketing.
type QuickAmountConfig struct {
	// BaseAmounts are the suggestion seeds, denominated in the base currency.
	BaseAmounts []decimal.Decimal
	// Tiers overrides the snapping granularity per currency.
	Tiers map[domain.Currency][]RoundingTier
	// DefaultTiers applies to currencies without an override.
	DefaultTiers []RoundingTier
}

func tiers(limits ...[2]int64) []RoundingTier {
	out := make([]RoundingTier, 0, len(limits))
	for _, l := range limits {
		out = append(out, RoundingTier{
			Limit: decimal.NewFromInt(l[0]),
			Unit:  decimal.NewFromInt(l[1]),
		})
	}
	return out
}

// DefaultQuickAmountConfig mirrors the donation form's suggestion buckets:
// small-value currencies snap to coarser units.
func DefaultQuickAmountConfig() QuickAmountConfig {
	zarStyle := tiers([2]int64{100, 10}, [2]int64{1000, 50}, [2]int64{0, 100})
	ngnStyle := tiers([2]int64{1000, 100}, [2]int64{10000, 500}, [2]int64{0, 1000})
	kesStyle := tiers([2]int64{500, 50}, [2]int64{5000, 100}, [2]int64{0, 500})

	return QuickAmountConfig{
		BaseAmounts: []decimal.Decimal{
			decimal.NewFromInt(10),
			decimal.NewFromInt(25),
			decimal.NewFromInt(50),
			decimal.NewFromInt(100),
			decimal.NewFromInt(250),
		},
		Tiers: map[domain.Currency][]RoundingTier{
			domain.CurrencyZAR: zarStyle,
			domain.CurrencyGHS: zarStyle,
			domain.CurrencyNGN: ngnStyle,
			domain.CurrencyUGX: ngnStyle,
			domain.CurrencyKES: kesStyle,
		},
		DefaultTiers: tiers([2]int64{10, 1}, [2]int64{100, 5}, [2]int64{0, 10}),
	}
}

// QuickAmounts converts the configured base-currency seeds into the target
// currency and snaps each to a nice denomination. This is a UX heuristic, not
// a financial computation.
func (c *Converter) QuickAmounts(currency domain.Currency, cfg QuickAmountConfig) ([]decimal.Decimal, error) {
	if currency == domain.BaseCurrency {
		out := make([]decimal.Decimal, len(cfg.BaseAmounts))
		copy(out, cfg.BaseAmounts)
		return out, nil
	}

	currencyTiers, ok := cfg.Tiers[currency]
	if !ok {
		currencyTiers = cfg.DefaultTiers
	}

	out := make([]decimal.Decimal, 0, len(cfg.BaseAmounts))
	for _, base := range cfg.BaseAmounts {
		converted, err := c.Convert(base, domain.BaseCurrency, currency)
		if err != nil {
			return nil, err
		}
		out = append(out, snap(converted, currencyTiers))
	}

	return out, nil
}

func snap(amount decimal.Decimal, currencyTiers []RoundingTier) decimal.Decimal {
	for _, tier := range currencyTiers {
		if tier.Limit.IsZero() || amount.LessThan(tier.Limit) {
			return amount.Div(tier.Unit).Round(0).Mul(tier.Unit)
		}
	}
	return amount.Round(0)
}
