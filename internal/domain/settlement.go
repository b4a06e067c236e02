package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"settlement-service/pkg/xerrors"
)

type EntryType string

const (
	EntryTypeDonation     EntryType = "DONATION"
	EntryTypeDisbursement EntryType = "DISBURSEMENT"
	EntryTypeRefund       EntryType = "REFUND"
	EntryTypeFee          EntryType = "FEE"
)

func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDonation, EntryTypeDisbursement, EntryTypeRefund, EntryTypeFee:
		return true
	}
	return false
}

type EntryStatus string

const (
	EntryStatusPending    EntryStatus = "PENDING"
	EntryStatusProcessing EntryStatus = "PROCESSING"
	EntryStatusCompleted  EntryStatus = "COMPLETED"
	EntryStatusFailed     EntryStatus = "FAILED"
	EntryStatusRefunded   EntryStatus = "REFUNDED"
	EntryStatusCancelled  EntryStatus = "CANCELLED"
)

func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusProcessing, EntryStatusCompleted,
		EntryStatusFailed, EntryStatusRefunded, EntryStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status is terminal. Terminal entries are only
// mutable through the admin lifecycle flow.
func (s EntryStatus) IsTerminal() bool {
	switch s {
	case EntryStatusCompleted, EntryStatusFailed, EntryStatusRefunded, EntryStatusCancelled:
		return true
	}
	return false
}

// SettlementEntry is one row in the financial ledger, representing a single
// money movement. Rows are created in bulk at settlement time, mutated only via
// the lifecycle flow, and never deleted.
type SettlementEntry struct {
	ID                string      `json:"id" db:"id"`
	SettlementGroupID string      `json:"settlement_group_id" db:"settlement_group_id"`
	Type              EntryType   `json:"type" db:"type"`
	Status            EntryStatus `json:"status" db:"status"`

	Amount    decimal.Decimal `json:"amount" db:"amount"`         // gross
	FeeAmount decimal.Decimal `json:"fee_amount" db:"fee_amount"` // platform take
	NetAmount decimal.Decimal `json:"net_amount" db:"net_amount"` // gross - fee
	Currency  Currency        `json:"currency" db:"currency"`

	PaymentGateway  string          `json:"payment_gateway" db:"payment_gateway"`
	GatewayTxID     string          `json:"gateway_tx_id" db:"gateway_tx_id"`
	GatewayPayerID  *string         `json:"gateway_payer_id,omitempty" db:"gateway_payer_id"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty" db:"gateway_response"` // opaque, schema owned by the gateway

	// Identity snapshots, denormalized at creation time so the ledger stays
	// stable even if the user records later change.
	DonorID        *string `json:"donor_id,omitempty" db:"donor_id"`
	DonorName      *string `json:"donor_name,omitempty" db:"donor_name"`
	DonorEmail     *string `json:"donor_email,omitempty" db:"donor_email"`
	RecipientID    *string `json:"recipient_id,omitempty" db:"recipient_id"`
	RecipientName  *string `json:"recipient_name,omitempty" db:"recipient_name"`
	RecipientEmail *string `json:"recipient_email,omitempty" db:"recipient_email"`
	RequestID      *string `json:"request_id,omitempty" db:"request_id"`
	RequestTitle   *string `json:"request_title,omitempty" db:"request_title"`

	ApprovedBy    *string `json:"approved_by,omitempty" db:"approved_by"`
	AdminNotes    *string `json:"admin_notes,omitempty" db:"admin_notes"`
	FailureReason *string `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Validate checks the creation-time invariants of a ledger row.
func (e *SettlementEntry) Validate() error {
	if !e.Type.IsValid() {
		return xerrors.ErrInvalidEntryType
	}
	if !e.Status.IsValid() {
		return xerrors.ErrInvalidEntryStatus
	}
	if e.Amount.IsNegative() {
		return xerrors.ErrInvalidInput
	}
	if !e.Currency.IsSupported() {
		return xerrors.ErrUnsupportedCurrency
	}

	switch e.Type {
	case EntryTypeDonation:
		// net = gross - fee, exactly
		if !e.Amount.Sub(e.FeeAmount).Equal(e.NetAmount) {
			return xerrors.ErrInvalidInput
		}
	case EntryTypeFee:
		// the fee entry is the platform's receivable, not itself fee-bearing
		if !e.FeeAmount.IsZero() || !e.NetAmount.Equal(e.Amount) {
			return xerrors.ErrInvalidInput
		}
	}

	return nil
}

// SettlementAggregate is everything written atomically for one capture:
// the contribution plus its paired DONATION and FEE ledger rows.
type SettlementAggregate struct {
	Contribution *ContributionRecord `json:"contribution"`
	Entries      []*SettlementEntry  `json:"entries"`
}

// DonationEntry returns the DONATION row of the aggregate, or nil.
func (a *SettlementAggregate) DonationEntry() *SettlementEntry {
	for _, e := range a.Entries {
		if e.Type == EntryTypeDonation {
			return e
		}
	}
	return nil
}

// FeeEntry returns the FEE row of the aggregate, or nil.
func (a *SettlementAggregate) FeeEntry() *SettlementEntry {
	for _, e := range a.Entries {
		if e.Type == EntryTypeFee {
			return e
		}
	}
	return nil
}

// StatusUpdate is an admin-initiated lifecycle change for a single entry.
type StatusUpdate struct {
	Status     EntryStatus `json:"status"`
	AdminNotes *string     `json:"admin_notes,omitempty"`
	ApprovedBy *string     `json:"approved_by,omitempty"`
}

func (u *StatusUpdate) Validate() error {
	if !u.Status.IsValid() {
		return xerrors.ErrInvalidEntryStatus
	}
	return nil
}

// StatusChange is the persisted form of a StatusUpdate: the transition plus
// whatever timestamps it stamps. Nil stamp fields leave the stored values
// untouched.
type StatusChange struct {
	Status      EntryStatus
	AdminNotes  *string
	ApprovedBy  *string
	ApprovedAt  *time.Time
	CompletedAt *time.Time
}

// Change computes the stamps for an admin update applied at now. Moving an
// entry into COMPLETED records who approved it and when it completed; every
// other transition, FAILED included, changes only the status and notes.
func (u *StatusUpdate) Change(now time.Time) *StatusChange {
	c := &StatusChange{
		Status:     u.Status,
		AdminNotes: u.AdminNotes,
	}
	if u.Status == EntryStatusCompleted {
		c.ApprovedBy = u.ApprovedBy
		c.ApprovedAt = &now
		c.CompletedAt = &now
	}
	return c
}
