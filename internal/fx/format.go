package fx

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"settlement-service/internal/domain"
)

// Format renders an amount with the currency's symbol and locale-aware digit
// grouping, always at 2 decimal places. Unsupported codes fall back to a plain
// "CODE amount" rendering rather than failing display code.
func Format(amount decimal.Decimal, currency domain.Currency) string {
	cfg, ok := domain.Currencies[currency]
	if !ok {
		return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
	}

	p := message.NewPrinter(language.Make(cfg.Locale))
	formatted := p.Sprint(number.Decimal(amount.InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))

	return cfg.Symbol + formatted
}
