package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code from the supported set.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyZAR Currency = "ZAR"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyAUD Currency = "AUD"
	CurrencyCAD Currency = "CAD"
	CurrencyNGN Currency = "NGN"
	CurrencyKES Currency = "KES"
	CurrencyGHS Currency = "GHS"
	CurrencyUGX Currency = "UGX"
)

// BaseCurrency is the single currency all cross-currency conversions route
// through. The payment gateway also settles in it.
const BaseCurrency = CurrencyUSD

// CurrencyConfig holds display metadata for a supported currency.
type CurrencyConfig struct {
	Code   Currency `json:"code"`
	Symbol string   `json:"symbol"`
	Locale string   `json:"locale"`
	Name   string   `json:"name"`
}

// Currencies is the fixed supported set.
var Currencies = map[Currency]CurrencyConfig{
	CurrencyUSD: {Code: CurrencyUSD, Symbol: "$", Locale: "en-US", Name: "US Dollar"},
	CurrencyZAR: {Code: CurrencyZAR, Symbol: "R", Locale: "en-ZA", Name: "South African Rand"},
	CurrencyEUR: {Code: CurrencyEUR, Symbol: "€", Locale: "en-EU", Name: "Euro"},
	CurrencyGBP: {Code: CurrencyGBP, Symbol: "£", Locale: "en-GB", Name: "British Pound"},
	CurrencyAUD: {Code: CurrencyAUD, Symbol: "A$", Locale: "en-AU", Name: "Australian Dollar"},
	CurrencyCAD: {Code: CurrencyCAD, Symbol: "C$", Locale: "en-CA", Name: "Canadian Dollar"},
	CurrencyNGN: {Code: CurrencyNGN, Symbol: "₦", Locale: "en-NG", Name: "Nigerian Naira"},
	CurrencyKES: {Code: CurrencyKES, Symbol: "KSh", Locale: "en-KE", Name: "Kenyan Shilling"},
	CurrencyGHS: {Code: CurrencyGHS, Symbol: "GH₵", Locale: "en-GH", Name: "Ghanaian Cedi"},
	CurrencyUGX: {Code: CurrencyUGX, Symbol: "USh", Locale: "en-UG", Name: "Ugandan Shilling"},
}

// SupportedCurrencies returns the supported set in a stable order.
func SupportedCurrencies() []Currency {
	return []Currency{
		CurrencyUSD, CurrencyZAR, CurrencyEUR, CurrencyGBP, CurrencyAUD,
		CurrencyCAD, CurrencyNGN, CurrencyKES, CurrencyGHS, CurrencyUGX,
	}
}

// IsSupported reports whether code is in the supported set.
func (c Currency) IsSupported() bool {
	_, ok := Currencies[c]
	return ok
}

// ParseCurrencySymbol maps a display symbol back to its currency.
// Unknown symbols fall back to ZAR, matching the donation form default.
func ParseCurrencySymbol(symbol string) Currency {
	for _, code := range SupportedCurrencies() {
		if Currencies[code].Symbol == symbol {
			return code
		}
	}
	return CurrencyZAR
}

// CurrencyAmount is an immutable (amount, currency) pair. Conversions produce
// new values, never mutate in place.
type CurrencyAmount struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

func NewCurrencyAmount(amount decimal.Decimal, currency Currency) CurrencyAmount {
	return CurrencyAmount{Amount: amount, Currency: currency}
}

// FXRate is a quote against the base currency at a point in time.
type FXRate struct {
	BaseCurrency  Currency        `json:"base_currency"`
	QuoteCurrency Currency        `json:"quote_currency"`
	Rate          decimal.Decimal `json:"rate"`
	AsOf          time.Time       `json:"as_of"`
}
