package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"settlement-service/pkg/xerrors"
)

type ContributionStatus string

const (
	ContributionStatusPledged   ContributionStatus = "PLEDGED"
	ContributionStatusCompleted ContributionStatus = "COMPLETED"
	ContributionStatusRefunded  ContributionStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodPayPal PaymentMethod = "PAYPAL"
)

// ContributionRecord is one completed donation pledge. Created at gateway
// capture time, never deleted; status only moves PLEDGED -> COMPLETED | REFUNDED.
type ContributionRecord struct {
	ID            string             `json:"id" db:"id"`
	RequestID     *string            `json:"request_id,omitempty" db:"request_id"`
	DonorID       *string            `json:"donor_id,omitempty" db:"donor_id"` // nil for anonymous contributors
	Amount        decimal.Decimal    `json:"amount" db:"amount"`               // gross, in the contributor's currency
	Currency      Currency           `json:"currency" db:"currency"`
	Message       *string            `json:"message,omitempty" db:"message"`
	Anonymous     bool               `json:"anonymous" db:"anonymous"`
	PaymentMethod PaymentMethod      `json:"payment_method" db:"payment_method"`
	Status        ContributionStatus `json:"status" db:"status"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
}

func (c *ContributionRecord) Validate() error {
	if !c.Amount.IsPositive() {
		return xerrors.ErrAmountNotPositive
	}
	if !c.Currency.IsSupported() {
		return xerrors.ErrUnsupportedCurrency
	}
	return nil
}
