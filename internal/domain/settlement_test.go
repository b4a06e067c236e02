package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlement-service/pkg/xerrors"
)

func validDonationEntry() *SettlementEntry {
	return &SettlementEntry{
		ID:                "TXN-01ARZ3NDEKTSV4RRFFQ69G5FAV",
		SettlementGroupID: "SG-01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Type:              EntryTypeDonation,
		Status:            EntryStatusCompleted,
		Amount:            decimal.NewFromInt(100),
		FeeAmount:         decimal.NewFromInt(5),
		NetAmount:         decimal.NewFromInt(95),
		Currency:          CurrencyUSD,
		PaymentGateway:    "PAYPAL",
		GatewayTxID:       "ORDER-1",
	}
}

func TestSettlementEntryValidate(t *testing.T) {
	t.Run("valid donation", func(t *testing.T) {
		require.NoError(t, validDonationEntry().Validate())
	})

	t.Run("donation must conserve value", func(t *testing.T) {
		e := validDonationEntry()
		e.NetAmount = decimal.NewFromInt(96)
		assert.ErrorIs(t, e.Validate(), xerrors.ErrInvalidInput)
	})

	t.Run("fee entry cannot carry its own fee", func(t *testing.T) {
		e := validDonationEntry()
		e.Type = EntryTypeFee
		e.Amount = decimal.NewFromInt(5)
		e.NetAmount = decimal.NewFromInt(5)
		e.FeeAmount = decimal.NewFromInt(1)
		assert.ErrorIs(t, e.Validate(), xerrors.ErrInvalidInput)
	})

	t.Run("valid fee entry", func(t *testing.T) {
		e := validDonationEntry()
		e.Type = EntryTypeFee
		e.Amount = decimal.NewFromInt(5)
		e.NetAmount = decimal.NewFromInt(5)
		e.FeeAmount = decimal.Zero
		require.NoError(t, e.Validate())
	})

	t.Run("unknown type", func(t *testing.T) {
		e := validDonationEntry()
		e.Type = "TRANSFER"
		assert.ErrorIs(t, e.Validate(), xerrors.ErrInvalidEntryType)
	})

	t.Run("unknown status", func(t *testing.T) {
		e := validDonationEntry()
		e.Status = "DONE"
		assert.ErrorIs(t, e.Validate(), xerrors.ErrInvalidEntryStatus)
	})

	t.Run("negative amount", func(t *testing.T) {
		e := validDonationEntry()
		e.Amount = decimal.NewFromInt(-1)
		assert.Error(t, e.Validate())
	})

	t.Run("unsupported currency", func(t *testing.T) {
		e := validDonationEntry()
		e.Currency = "XXX"
		assert.ErrorIs(t, e.Validate(), xerrors.ErrUnsupportedCurrency)
	})
}

func TestEntryStatusTerminal(t *testing.T) {
	assert.True(t, EntryStatusCompleted.IsTerminal())
	assert.True(t, EntryStatusFailed.IsTerminal())
	assert.True(t, EntryStatusRefunded.IsTerminal())
	assert.True(t, EntryStatusCancelled.IsTerminal())
	assert.False(t, EntryStatusPending.IsTerminal())
	assert.False(t, EntryStatusProcessing.IsTerminal())
}

func TestSettlementAggregateAccessors(t *testing.T) {
	donation := validDonationEntry()
	fee := validDonationEntry()
	fee.Type = EntryTypeFee
	fee.Amount = decimal.NewFromInt(5)
	fee.NetAmount = decimal.NewFromInt(5)
	fee.FeeAmount = decimal.Zero

	agg := &SettlementAggregate{Entries: []*SettlementEntry{donation, fee}}
	assert.Same(t, donation, agg.DonationEntry())
	assert.Same(t, fee, agg.FeeEntry())

	empty := &SettlementAggregate{}
	assert.Nil(t, empty.DonationEntry())
	assert.Nil(t, empty.FeeEntry())
}

func TestStatusUpdateValidate(t *testing.T) {
	update := &StatusUpdate{Status: EntryStatusProcessing}
	require.NoError(t, update.Validate())

	update = &StatusUpdate{Status: "SHIPPED"}
	assert.ErrorIs(t, update.Validate(), xerrors.ErrInvalidEntryStatus)
}

func TestStatusUpdateChange(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	notes := "verified against the gateway report"
	admin := "admin-7"

	completed := (&StatusUpdate{
		Status:     EntryStatusCompleted,
		AdminNotes: &notes,
		ApprovedBy: &admin,
	}).Change(now)
	assert.Equal(t, EntryStatusCompleted, completed.Status)
	require.NotNil(t, completed.ApprovedBy)
	assert.Equal(t, admin, *completed.ApprovedBy)
	require.NotNil(t, completed.ApprovedAt)
	assert.Equal(t, now, *completed.ApprovedAt)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, now, *completed.CompletedAt)

	failed := (&StatusUpdate{
		Status:     EntryStatusFailed,
		AdminNotes: &notes,
		ApprovedBy: &admin,
	}).Change(now)
	assert.Equal(t, EntryStatusFailed, failed.Status)
	require.NotNil(t, failed.AdminNotes)
	assert.Nil(t, failed.ApprovedBy)
	assert.Nil(t, failed.ApprovedAt)
	assert.Nil(t, failed.CompletedAt)
}

func TestContributionRecordValidate(t *testing.T) {
	c := &ContributionRecord{
		ID:            "CON-01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Amount:        decimal.NewFromInt(50),
		Currency:      CurrencyZAR,
		PaymentMethod: PaymentMethodPayPal,
		Status:        ContributionStatusCompleted,
	}
	require.NoError(t, c.Validate())

	c.Amount = decimal.Zero
	assert.ErrorIs(t, c.Validate(), xerrors.ErrAmountNotPositive)

	c.Amount = decimal.NewFromInt(50)
	c.Currency = "XXX"
	assert.ErrorIs(t, c.Validate(), xerrors.ErrUnsupportedCurrency)
}
