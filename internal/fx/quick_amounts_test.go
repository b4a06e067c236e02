package fx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlement-service/internal/domain"
)

func TestQuickAmountsBaseCurrency(t *testing.T) {
	c := testConverter(t)

	got, err := c.QuickAmounts(domain.CurrencyUSD, DefaultQuickAmountConfig())
	require.NoError(t, err)

	want := []int64{10, 25, 50, 100, 250}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.True(t, decimal.NewFromInt(w).Equal(got[i]), "index %d: got %s", i, got[i])
	}
}

func TestQuickAmountsZAR(t *testing.T) {
	c := testConverter(t)

	got, err := c.QuickAmounts(domain.CurrencyZAR, DefaultQuickAmountConfig())
	require.NoError(t, err)

	// 185, 462.50, 925, 1850, 4625 snapped to the rand tier units.
	want := []int64{200, 450, 950, 1900, 4600}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.True(t, decimal.NewFromInt(w).Equal(got[i]), "index %d: got %s", i, got[i])
	}
}

func TestQuickAmountsDefaultTiers(t *testing.T) {
	c := testConverter(t)

	// EUR has no tier override, so the default table applies.
	got, err := c.QuickAmounts(domain.CurrencyEUR, DefaultQuickAmountConfig())
	require.NoError(t, err)

	want := []int64{9, 25, 45, 90, 230}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.True(t, decimal.NewFromInt(w).Equal(got[i]), "index %d: got %s", i, got[i])
	}
}

func TestQuickAmountsUnsupportedCurrency(t *testing.T) {
	c := testConverter(t)

	_, err := c.QuickAmounts("XXX", DefaultQuickAmountConfig())
	assert.Error(t, err)
}

func TestSnapTiers(t *testing.T) {
	zarTiers := DefaultQuickAmountConfig().Tiers[domain.CurrencyZAR]

	cases := []struct{ in, want string }{
		{"95", "100"}, // below 100 snaps to tens
		{"462.50", "450"},
		{"925", "950"},
		{"1850", "1900"}, // above 1000 snaps to hundreds
	}
	for _, tc := range cases {
		got := snap(decimal.RequireFromString(tc.in), zarTiers)
		assert.True(t, decimal.RequireFromString(tc.want).Equal(got),
			"snap(%s): want %s, got %s", tc.in, tc.want, got)
	}
}
