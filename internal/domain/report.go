package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryFilter narrows a ledger listing. Zero values mean "no constraint".
type EntryFilter struct {
	Status *EntryStatus `json:"status,omitempty"`
	Type   *EntryType   `json:"type,omitempty"`
	From   *time.Time   `json:"from,omitempty"`
	To     *time.Time   `json:"to,omitempty"`
	// Search matches donor name, recipient name, or gateway transaction id.
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// TransactionStats are the dashboard aggregates.
//
// TotalRevenue sums the gross amount of COMPLETED FEE entries.
// TotalDisbursed sums the net amount of COMPLETED DISBURSEMENT entries.
// PendingWithdrawals sums the net amount of PENDING DISBURSEMENT entries.
type TransactionStats struct {
	TotalTransactions     int64           `json:"total_transactions"`
	CompletedTransactions int64           `json:"completed_transactions"`
	PendingTransactions   int64           `json:"pending_transactions"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	TotalDisbursed        decimal.Decimal `json:"total_disbursed"`
	PendingWithdrawals    decimal.Decimal `json:"pending_withdrawals"`
}
