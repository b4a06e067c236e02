package fx

import (
	"os"
	"strings"

	"settlement-service/internal/domain"
)

// LocaleProvider supplies the caller's locale/region signal. It is the one
// impure seam in this package; everything else stays deterministic.
type LocaleProvider interface {
	Locale() string
}

// EnvLocaleProvider reads the locale from the process environment.
type EnvLocaleProvider struct{}

func (EnvLocaleProvider) Locale() string {
	for _, key := range []string{"LC_ALL", "LC_MONETARY", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "en-ZA"
}

// StaticLocaleProvider returns a fixed locale. Useful in tests and for
// per-request locales handed in by the HTTP layer.
type StaticLocaleProvider string

func (s StaticLocaleProvider) Locale() string { return string(s) }

// localeRegions maps region markers to default currencies, checked in order.
var localeRegions = []struct {
	markers  []string
	currency domain.Currency
}{
	{[]string{"ZA"}, domain.CurrencyZAR},
	{[]string{"NG"}, domain.CurrencyNGN},
	{[]string{"KE"}, domain.CurrencyKES},
	{[]string{"GH"}, domain.CurrencyGHS},
	{[]string{"UG"}, domain.CurrencyUGX},
	{[]string{"US"}, domain.CurrencyUSD},
	{[]string{"GB"}, domain.CurrencyGBP},
	{[]string{"AU"}, domain.CurrencyAUD},
	{[]string{"CA"}, domain.CurrencyCAD},
	{[]string{"EU", "DE", "FR"}, domain.CurrencyEUR},
}

// DetectCurrency maps the provider's locale to a default currency by region
// prefix match, falling back to ZAR.
func DetectCurrency(lp LocaleProvider) domain.Currency {
	locale := strings.ToUpper(lp.Locale())

	for _, region := range localeRegions {
		for _, marker := range region.markers {
			if strings.Contains(locale, marker) {
				return region.currency
			}
		}
	}

	return domain.CurrencyZAR
}
