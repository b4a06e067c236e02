package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"settlement-service/internal/domain"
	"settlement-service/internal/fx"
	"settlement-service/internal/provider"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/service"
	"settlement-service/pkg/utils"
	"settlement-service/pkg/xerrors"
)

// ---- stubs ----

type stubGateway struct {
	captureResult *provider.CaptureResult
	captureErr    error
	details       *provider.OrderDetails
	detailsErr    error
	captureCalls  int
}

func (g *stubGateway) Name() string { return "PAYPAL" }

func (g *stubGateway) CaptureOrder(ctx context.Context, orderID string) (*provider.CaptureResult, error) {
	g.captureCalls++
	return g.captureResult, g.captureErr
}

func (g *stubGateway) GetOrderDetails(ctx context.Context, orderID string) (*provider.OrderDetails, error) {
	return g.details, g.detailsErr
}

type stubSettlementRepo struct {
	byGatewayTx map[string]*domain.SettlementEntry
	groups      map[string][]*domain.SettlementEntry
	recorded    []*domain.SettlementAggregate
	recordErr   error

	// missFirstLookup makes the first GetByGatewayTxID miss, simulating a
	// concurrent insert landing between the pre-check and the write.
	missFirstLookup bool

	// contributions mirrors the real repo, which persists the contribution
	// in the same transaction as the ledger rows.
	contributions *stubContributionRepo

	updated      []*domain.StatusChange
	updateResult *domain.SettlementEntry
	updateErr    error

	listResult  []*domain.SettlementEntry
	statsResult *domain.TransactionStats
}

func newStubSettlementRepo() *stubSettlementRepo {
	return &stubSettlementRepo{
		byGatewayTx: map[string]*domain.SettlementEntry{},
		groups:      map[string][]*domain.SettlementEntry{},
	}
}

func (r *stubSettlementRepo) RecordSettlement(ctx context.Context, agg *domain.SettlementAggregate) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.recorded = append(r.recorded, agg)
	if r.contributions != nil && agg.Contribution != nil {
		r.contributions.byID[agg.Contribution.ID] = agg.Contribution
	}
	for _, e := range agg.Entries {
		r.byGatewayTx[e.GatewayTxID] = e
		r.groups[e.SettlementGroupID] = append(r.groups[e.SettlementGroupID], e)
	}
	return nil
}

func (r *stubSettlementRepo) GetByID(ctx context.Context, id string) (*domain.SettlementEntry, error) {
	for _, e := range r.byGatewayTx {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, xerrors.ErrEntryNotFound
}

func (r *stubSettlementRepo) GetByGatewayTxID(ctx context.Context, gateway, gatewayTxID string) (*domain.SettlementEntry, error) {
	if r.missFirstLookup {
		r.missFirstLookup = false
		return nil, xerrors.ErrEntryNotFound
	}
	if e, ok := r.byGatewayTx[gatewayTxID]; ok {
		return e, nil
	}
	return nil, xerrors.ErrEntryNotFound
}

func (r *stubSettlementRepo) ListByGroupID(ctx context.Context, groupID string) ([]*domain.SettlementEntry, error) {
	return r.groups[groupID], nil
}

func (r *stubSettlementRepo) UpdateStatus(ctx context.Context, id string, change *domain.StatusChange) (*domain.SettlementEntry, error) {
	r.updated = append(r.updated, change)
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	return r.updateResult, nil
}

func (r *stubSettlementRepo) List(ctx context.Context, filter *domain.EntryFilter) ([]*domain.SettlementEntry, error) {
	return r.listResult, nil
}

func (r *stubSettlementRepo) Stats(ctx context.Context) (*domain.TransactionStats, error) {
	return r.statsResult, nil
}

func (r *stubSettlementRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return nil, nil
}

type stubContributionRepo struct {
	byID map[string]*domain.ContributionRecord
}

func newStubContributionRepo() *stubContributionRepo {
	return &stubContributionRepo{byID: map[string]*domain.ContributionRecord{}}
}

func (r *stubContributionRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *domain.ContributionRecord) error {
	r.byID[c.ID] = c
	return nil
}

func (r *stubContributionRepo) GetByID(ctx context.Context, id string) (*domain.ContributionRecord, error) {
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, xerrors.ErrContributionNotFound
}

func (r *stubContributionRepo) ListByRequest(ctx context.Context, requestID string) ([]*domain.ContributionRecord, error) {
	var out []*domain.ContributionRecord
	for _, c := range r.byID {
		if c.RequestID != nil && *c.RequestID == requestID {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubRequestRepo struct {
	byID map[string]*domain.RequestSummary
}

func (r *stubRequestRepo) FindByID(ctx context.Context, id string) (*domain.RequestSummary, error) {
	if s, ok := r.byID[id]; ok {
		return s, nil
	}
	return nil, xerrors.ErrNotFound
}

type stubNotificationRepo struct {
	created []*domain.Notification
}

func (r *stubNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.created = append(r.created, n)
	return nil
}

// ---- fixture ----

type settlementFixture struct {
	uc               *SettlementUsecase
	gateway          *stubGateway
	settlementRepo   *stubSettlementRepo
	contributionRepo *stubContributionRepo
	requestRepo      *stubRequestRepo
	notificationRepo *stubNotificationRepo
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	payerName := "Jane Donor"
	payerEmail := "jane@example.com"
	gateway := &stubGateway{
		captureResult: &provider.CaptureResult{
			OrderID:     "ORDER-1",
			Status:      provider.OrderStatusCompleted,
			PayerName:   &payerName,
			PayerEmail:  &payerEmail,
			RawResponse: json.RawMessage(`{"id":"ORDER-1"}`),
		},
		details: &provider.OrderDetails{
			Amount:   decimal.NewFromInt(100),
			Currency: domain.CurrencyUSD,
		},
	}

	ownerEmail := "owner@example.com"
	requestRepo := &stubRequestRepo{byID: map[string]*domain.RequestSummary{
		"req-1": {
			ID:         "req-1",
			Title:      "School fees",
			OwnerID:    "user-9",
			OwnerName:  "Sam Owner",
			OwnerEmail: &ownerEmail,
		},
	}}

	f := &settlementFixture{
		gateway:          gateway,
		settlementRepo:   newStubSettlementRepo(),
		contributionRepo: newStubContributionRepo(),
		requestRepo:      requestRepo,
		notificationRepo: &stubNotificationRepo{},
	}
	f.settlementRepo.contributions = f.contributionRepo

	converter := fx.NewConverter(fx.NewDefaultRateProvider())
	f.uc = NewSettlementUsecase(
		f.settlementRepo, f.contributionRepo, f.requestRepo, f.notificationRepo,
		gateway,
		service.NewFeeCalculator(domain.DefaultFeeSchedule(), converter),
		publisher.NewSettlementEventPublisher(nil),
		utils.NewReferenceGenerator(),
		zap.NewNop(),
	)
	return f
}

func captureRequest() *CaptureRequest {
	requestID := "req-1"
	donorID := "user-1"
	donorName := "Jane Donor"
	return &CaptureRequest{
		OrderID:   "ORDER-1",
		RequestID: &requestID,
		DonorID:   &donorID,
		DonorName: &donorName,
	}
}

// ---- tests ----

func TestCaptureAndSettleRecordsPair(t *testing.T) {
	f := newSettlementFixture(t)

	result, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.AlreadyRecorded)

	require.Len(t, f.settlementRepo.recorded, 1)
	agg := result.Aggregate
	require.Len(t, agg.Entries, 2)

	donation := agg.DonationEntry()
	fee := agg.FeeEntry()
	require.NotNil(t, donation)
	require.NotNil(t, fee)

	// $100 at $2 fixed + 3%.
	assert.Equal(t, "100.00", donation.Amount.StringFixed(2))
	assert.Equal(t, "5.00", donation.FeeAmount.StringFixed(2))
	assert.Equal(t, "95.00", donation.NetAmount.StringFixed(2))
	assert.Equal(t, domain.EntryStatusCompleted, donation.Status)

	assert.Equal(t, "5.00", fee.Amount.StringFixed(2))
	assert.Equal(t, "5.00", fee.NetAmount.StringFixed(2))
	assert.True(t, fee.FeeAmount.IsZero())
	assert.Equal(t, "ORDER-1-fee", fee.GatewayTxID)
	require.NotNil(t, fee.AdminNotes)
	assert.Contains(t, *fee.AdminNotes, "Platform fee")

	assert.Equal(t, donation.SettlementGroupID, fee.SettlementGroupID)
	assert.True(t, strings.HasPrefix(donation.SettlementGroupID, utils.SettlementGroupPrefix))

	contribution := agg.Contribution
	require.NotNil(t, contribution)
	assert.Equal(t, domain.ContributionStatusCompleted, contribution.Status)
	assert.Equal(t, "100.00", contribution.Amount.StringFixed(2))
	// The contribution and the group share one ULID.
	assert.Equal(t,
		strings.TrimPrefix(contribution.ID, utils.ContributionPrefix),
		strings.TrimPrefix(donation.SettlementGroupID, utils.SettlementGroupPrefix))

	require.NotNil(t, donation.RequestTitle)
	assert.Equal(t, "School fees", *donation.RequestTitle)
	require.NotNil(t, donation.RecipientID)
	assert.Equal(t, "user-9", *donation.RecipientID)

	require.NotNil(t, result.Fee)
	assert.Equal(t, "5.00", result.Fee.Fee.StringFixed(2))
}

func TestCaptureAndSettleNotifiesNetAmount(t *testing.T) {
	f := newSettlementFixture(t)

	_, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
	require.NoError(t, err)

	require.Len(t, f.notificationRepo.created, 1)
	n := f.notificationRepo.created[0]
	assert.Equal(t, "user-9", n.UserID)
	assert.Equal(t, domain.NotificationDonationReceived, n.Type)
	assert.Contains(t, n.Message, "Jane Donor")
	assert.Contains(t, n.Message, "School fees")
	// The recipient is told what they will receive, not what was charged.
	assert.Contains(t, n.Message, "$95.00")
	assert.NotContains(t, n.Message, "$100.00")
}

func TestCaptureAndSettleRejectedOrder(t *testing.T) {
	f := newSettlementFixture(t)
	f.gateway.captureResult.Status = "DECLINED"

	_, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
	assert.ErrorIs(t, err, xerrors.ErrGatewayRejected)

	// A rejected capture must leave no trace in the ledger.
	assert.Empty(t, f.settlementRepo.recorded)
	assert.Empty(t, f.notificationRepo.created)
}

func TestCaptureAndSettleIdempotentReplay(t *testing.T) {
	f := newSettlementFixture(t)

	first, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
	require.NoError(t, err)
	require.Equal(t, 1, f.gateway.captureCalls)

	second, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
	require.NoError(t, err)

	assert.True(t, second.AlreadyRecorded)
	// The replay never re-hits the gateway and writes nothing new.
	assert.Equal(t, 1, f.gateway.captureCalls)
	assert.Len(t, f.settlementRepo.recorded, 1)

	require.Len(t, second.Aggregate.Entries, 2)
	assert.Equal(t,
		first.Aggregate.DonationEntry().SettlementGroupID,
		second.Aggregate.DonationEntry().SettlementGroupID)
	require.NotNil(t, second.Aggregate.Contribution)
	assert.Equal(t, first.Aggregate.Contribution.ID, second.Aggregate.Contribution.ID)
}

func TestCaptureAndSettleDuplicateRace(t *testing.T) {
	f := newSettlementFixture(t)

	// The unique index wins a race the pre-check missed.
	groupID := utils.SettlementGroupPrefix + "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	existing := &domain.SettlementEntry{
		ID:                "TXN-EXISTING",
		SettlementGroupID: groupID,
		Type:              domain.EntryTypeDonation,
		GatewayTxID:       "ORDER-1",
	}
	f.settlementRepo.recordErr = xerrors.ErrDuplicateTransaction
	f.settlementRepo.byGatewayTx["ORDER-1"] = existing
	f.settlementRepo.groups[groupID] = []*domain.SettlementEntry{existing}
	f.settlementRepo.missFirstLookup = true

	result, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
	require.NoError(t, err)

	assert.True(t, result.AlreadyRecorded)
	assert.Empty(t, f.settlementRepo.recorded)
}

func TestCaptureAndSettleAnonymous(t *testing.T) {
	f := newSettlementFixture(t)
	req := captureRequest()
	req.Anonymous = true

	result, err := f.uc.CaptureAndSettle(context.Background(), req)
	require.NoError(t, err)

	for _, e := range result.Aggregate.Entries {
		require.NotNil(t, e.DonorName)
		assert.Equal(t, "Anonymous", *e.DonorName)
	}
	assert.True(t, result.Aggregate.Contribution.Anonymous)

	// Anonymous donations settle fully but stay silent.
	assert.Len(t, f.settlementRepo.recorded, 1)
	assert.Empty(t, f.notificationRepo.created)
}

func TestCaptureAndSettleUnknownRequest(t *testing.T) {
	f := newSettlementFixture(t)
	req := captureRequest()
	missing := "req-gone"
	req.RequestID = &missing

	result, err := f.uc.CaptureAndSettle(context.Background(), req)
	require.NoError(t, err)

	// The money is kept; only the recipient snapshot stays empty.
	donation := result.Aggregate.DonationEntry()
	assert.Nil(t, donation.RecipientID)
	assert.Nil(t, donation.RequestTitle)
	require.NotNil(t, donation.RequestID)
	assert.Equal(t, "req-gone", *donation.RequestID)
	assert.Empty(t, f.notificationRepo.created)
}

func TestCaptureAndSettleValidation(t *testing.T) {
	t.Run("missing order id", func(t *testing.T) {
		f := newSettlementFixture(t)
		_, err := f.uc.CaptureAndSettle(context.Background(), &CaptureRequest{})
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		assert.Zero(t, f.gateway.captureCalls)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		f := newSettlementFixture(t)
		f.gateway.details.Amount = decimal.Zero
		_, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
		assert.ErrorIs(t, err, xerrors.ErrAmountNotPositive)
		assert.Empty(t, f.settlementRepo.recorded)
	})

	t.Run("unsupported currency", func(t *testing.T) {
		f := newSettlementFixture(t)
		f.gateway.details.Currency = "XXX"
		_, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
		assert.ErrorIs(t, err, xerrors.ErrUnsupportedCurrency)
		assert.Empty(t, f.settlementRepo.recorded)
	})
}

func TestCaptureAndSettleConservation(t *testing.T) {
	amounts := []string{"0.01", "1.00", "2.50", "33.33", "100", "99999.99"}
	for _, a := range amounts {
		f := newSettlementFixture(t)
		f.gateway.details.Amount = decimal.RequireFromString(a)

		result, err := f.uc.CaptureAndSettle(context.Background(), captureRequest())
		require.NoError(t, err, "gross %s", a)

		donation := result.Aggregate.DonationEntry()
		assert.True(t, donation.FeeAmount.Add(donation.NetAmount).Equal(donation.Amount),
			"gross %s: fee %s + net %s != %s", a, donation.FeeAmount, donation.NetAmount, donation.Amount)
		assert.False(t, donation.NetAmount.IsNegative(), "gross %s", a)
	}
}
