package fx

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"settlement-service/internal/domain"
)

func TestFormat(t *testing.T) {
	got := Format(decimal.RequireFromString("1850"), domain.CurrencyUSD)
	assert.Equal(t, "$1,850.00", got)

	got = Format(decimal.RequireFromString("95"), domain.CurrencyUSD)
	assert.Equal(t, "$95.00", got)

	// Locale-specific grouping varies; the symbol and cents must not.
	got = Format(decimal.RequireFromString("1850"), domain.CurrencyZAR)
	assert.True(t, strings.HasPrefix(got, "R"), "got %q", got)

	got = Format(decimal.RequireFromString("500"), domain.CurrencyKES)
	assert.True(t, strings.HasPrefix(got, "KSh"), "got %q", got)
}

func TestFormatUnsupportedFallback(t *testing.T) {
	got := Format(decimal.RequireFromString("12"), "XXX")
	assert.Equal(t, "XXX 12.00", got)
}
