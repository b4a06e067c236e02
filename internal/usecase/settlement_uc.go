package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"settlement-service/internal/domain"
	"settlement-service/internal/fx"
	"settlement-service/internal/provider"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/repository"
	"settlement-service/internal/service"
	"settlement-service/pkg/utils"
	"settlement-service/pkg/xerrors"
)

const anonymousDonorName = "Anonymous"

// CaptureRequest carries everything the settlement flow needs beyond what the
// gateway reports: the order to capture and the contributor's identity as the
// platform knows it.
type CaptureRequest struct {
	OrderID   string  `json:"order_id"`
	RequestID *string `json:"request_id,omitempty"`
	Message   *string `json:"message,omitempty"`
	Anonymous bool    `json:"anonymous"`

	DonorID    *string `json:"donor_id,omitempty"`
	DonorName  *string `json:"donor_name,omitempty"`
	DonorEmail *string `json:"donor_email,omitempty"`
}

func (r *CaptureRequest) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return fmt.Errorf("%w: order_id is required", xerrors.ErrInvalidInput)
	}
	return nil
}

// SettlementResult is what a capture returns to the caller. AlreadyRecorded
// is true when the gateway transaction had been settled before and the
// existing rows were returned instead of new ones.
type SettlementResult struct {
	Aggregate       *domain.SettlementAggregate `json:"aggregate"`
	Fee             *domain.FeeCalculation      `json:"fee"`
	AlreadyRecorded bool                        `json:"already_recorded"`
}

type SettlementUsecase struct {
	settlementRepo   repository.SettlementRepository
	contributionRepo repository.ContributionRepository
	requestRepo      repository.RequestRepository
	notificationRepo repository.NotificationRepository
	gateway          provider.Gateway
	feeCalc          *service.FeeCalculator
	pub              *publisher.SettlementEventPublisher
	refGen           *utils.ReferenceGenerator
	logger           *zap.Logger
}

func NewSettlementUsecase(
	settlementRepo repository.SettlementRepository,
	contributionRepo repository.ContributionRepository,
	requestRepo repository.RequestRepository,
	notificationRepo repository.NotificationRepository,
	gateway provider.Gateway,
	feeCalc *service.FeeCalculator,
	pub *publisher.SettlementEventPublisher,
	refGen *utils.ReferenceGenerator,
	logger *zap.Logger,
) *SettlementUsecase {
	return &SettlementUsecase{
		settlementRepo:   settlementRepo,
		contributionRepo: contributionRepo,
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
		gateway:          gateway,
		feeCalc:          feeCalc,
		pub:              pub,
		refGen:           refGen,
		logger:           logger,
	}
}

// CaptureAndSettle captures an authorized order at the gateway and records
// the settlement: one contribution record plus paired DONATION and FEE ledger
// rows, written atomically. Re-capturing an already settled order returns the
// existing rows instead of duplicating them.
func (uc *SettlementUsecase) CaptureAndSettle(ctx context.Context, req *CaptureRequest) (*SettlementResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	uc.logger.Info("capturing order",
		zap.String("gateway", uc.gateway.Name()),
		zap.String("order_id", req.OrderID))

	// A second capture of a settled order is the common replay path (client
	// retry, double click), so check before touching the gateway again.
	if existing, err := uc.settlementRepo.GetByGatewayTxID(ctx, uc.gateway.Name(), req.OrderID); err == nil {
		return uc.existingResult(ctx, existing)
	} else if !errors.Is(err, xerrors.ErrEntryNotFound) {
		return nil, err
	}

	capture, err := uc.gateway.CaptureOrder(ctx, req.OrderID)
	if err != nil {
		uc.logger.Error("gateway capture failed",
			zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}
	if !capture.Completed() {
		uc.logger.Warn("capture not completed, nothing recorded",
			zap.String("order_id", req.OrderID),
			zap.String("gateway_status", capture.Status))
		return nil, fmt.Errorf("%w: gateway status %s", xerrors.ErrGatewayRejected, capture.Status)
	}

	details, err := uc.gateway.GetOrderDetails(ctx, req.OrderID)
	if err != nil {
		uc.logger.Error("failed to read order details",
			zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}
	if !details.Amount.IsPositive() {
		return nil, xerrors.ErrAmountNotPositive
	}
	if !details.Currency.IsSupported() {
		return nil, xerrors.ErrUnsupportedCurrency
	}

	// The request lookup is best-effort: a deleted or unknown request must
	// not lose money that the gateway already moved. The raw request id is
	// still snapshotted; only the recipient fields stay empty.
	var request *domain.RequestSummary
	if req.RequestID != nil {
		request, err = uc.requestRepo.FindByID(ctx, *req.RequestID)
		if err != nil {
			if !errors.Is(err, xerrors.ErrNotFound) {
				return nil, err
			}
			uc.logger.Warn("donation request not found, settling without recipient",
				zap.String("request_id", *req.RequestID))
			request = nil
		}
	}

	feeCalc, err := uc.feeCalc.Calculate(details.Amount, details.Currency)
	if err != nil {
		return nil, err
	}

	agg := uc.buildAggregate(req, capture, details, feeCalc, request)
	for _, e := range agg.Entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	if err := uc.settlementRepo.RecordSettlement(ctx, agg); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateTransaction) {
			// Lost the race with a concurrent capture of the same order.
			existing, lookupErr := uc.settlementRepo.GetByGatewayTxID(ctx, uc.gateway.Name(), req.OrderID)
			if lookupErr != nil {
				return nil, err
			}
			return uc.existingResult(ctx, existing)
		}
		uc.logger.Error("failed to record settlement",
			zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("settlement recorded",
		zap.String("order_id", req.OrderID),
		zap.String("settlement_group_id", agg.DonationEntry().SettlementGroupID),
		zap.String("amount", details.Amount.StringFixed(2)),
		zap.String("currency", string(details.Currency)),
		zap.String("fee", feeCalc.Fee.StringFixed(2)))

	// Post-commit side effects never fail the settlement.
	uc.notifyRecipient(ctx, agg, request)
	if err := uc.pub.PublishSettlementRecorded(ctx, agg); err != nil {
		uc.logger.Warn("failed to publish settlement event", zap.Error(err))
	}

	return &SettlementResult{Aggregate: agg, Fee: feeCalc}, nil
}

// buildAggregate assembles the contribution and its ledger rows. The
// contribution and the settlement group share one ULID (under different
// prefixes) so a replay can recover the whole aggregate from either side.
func (uc *SettlementUsecase) buildAggregate(
	req *CaptureRequest,
	capture *provider.CaptureResult,
	details *provider.OrderDetails,
	feeCalc *domain.FeeCalculation,
	request *domain.RequestSummary,
) *domain.SettlementAggregate {
	now := time.Now().UTC()
	groupID, contributionID := uc.refGen.NewSettlementRefs()

	donorName := anonymousDonorName
	if !req.Anonymous {
		switch {
		case req.DonorName != nil && *req.DonorName != "":
			donorName = *req.DonorName
		case capture.PayerName != nil && *capture.PayerName != "":
			donorName = *capture.PayerName
		}
	}
	donorEmail := req.DonorEmail
	if donorEmail == nil {
		donorEmail = capture.PayerEmail
	}

	contribution := &domain.ContributionRecord{
		ID:            contributionID,
		RequestID:     req.RequestID,
		DonorID:       req.DonorID,
		Amount:        details.Amount,
		Currency:      details.Currency,
		Message:       req.Message,
		Anonymous:     req.Anonymous,
		PaymentMethod: domain.PaymentMethodPayPal,
		Status:        domain.ContributionStatusCompleted,
		CreatedAt:     now,
	}

	var recipientID, recipientName, recipientEmail, requestTitle *string
	if request != nil {
		recipientID = &request.OwnerID
		recipientName = &request.OwnerName
		recipientEmail = request.OwnerEmail
		requestTitle = &request.Title
	}

	donation := &domain.SettlementEntry{
		ID:                uc.refGen.NewEntryID(),
		SettlementGroupID: groupID,
		Type:              domain.EntryTypeDonation,
		Status:            domain.EntryStatusCompleted,
		Amount:            details.Amount,
		FeeAmount:         feeCalc.Fee,
		NetAmount:         feeCalc.Net,
		Currency:          details.Currency,
		PaymentGateway:    uc.gateway.Name(),
		GatewayTxID:       capture.OrderID,
		GatewayPayerID:    capture.PayerID,
		GatewayResponse:   capture.RawResponse,
		DonorID:           req.DonorID,
		DonorName:         &donorName,
		DonorEmail:        donorEmail,
		RecipientID:       recipientID,
		RecipientName:     recipientName,
		RecipientEmail:    recipientEmail,
		RequestID:         req.RequestID,
		RequestTitle:      requestTitle,
		CreatedAt:         now,
		UpdatedAt:         now,
		CompletedAt:       &now,
	}

	feeNote := "Platform fee for donation. " + feeCalc.CalculatedFrom
	fee := &domain.SettlementEntry{
		ID:                uc.refGen.NewEntryID(),
		SettlementGroupID: groupID,
		Type:              domain.EntryTypeFee,
		Status:            domain.EntryStatusCompleted,
		Amount:            feeCalc.Fee,
		FeeAmount:         decimal.Zero,
		NetAmount:         feeCalc.Fee,
		Currency:          details.Currency,
		PaymentGateway:    uc.gateway.Name(),
		GatewayTxID:       capture.OrderID + "-fee",
		GatewayResponse:   capture.RawResponse,
		DonorID:           req.DonorID,
		DonorName:         &donorName,
		DonorEmail:        donorEmail,
		RecipientID:       recipientID,
		RecipientName:     recipientName,
		RecipientEmail:    recipientEmail,
		RequestID:         req.RequestID,
		RequestTitle:      requestTitle,
		AdminNotes:        &feeNote,
		CreatedAt:         now,
		UpdatedAt:         now,
		CompletedAt:       &now,
	}

	return &domain.SettlementAggregate{
		Contribution: contribution,
		Entries:      []*domain.SettlementEntry{donation, fee},
	}
}

// existingResult rebuilds the already-settled aggregate from any one of its
// ledger rows.
func (uc *SettlementUsecase) existingResult(ctx context.Context, entry *domain.SettlementEntry) (*SettlementResult, error) {
	uc.logger.Info("order already settled, returning existing rows",
		zap.String("gateway_tx_id", entry.GatewayTxID),
		zap.String("settlement_group_id", entry.SettlementGroupID))

	entries, err := uc.settlementRepo.ListByGroupID(ctx, entry.SettlementGroupID)
	if err != nil {
		return nil, err
	}

	agg := &domain.SettlementAggregate{Entries: entries}
	contributionID := utils.ContributionPrefix + strings.TrimPrefix(entry.SettlementGroupID, utils.SettlementGroupPrefix)
	if contribution, err := uc.contributionRepo.GetByID(ctx, contributionID); err == nil {
		agg.Contribution = contribution
	} else if !errors.Is(err, xerrors.ErrContributionNotFound) {
		return nil, err
	}

	return &SettlementResult{Aggregate: agg, AlreadyRecorded: true}, nil
}

// notifyRecipient queues a DONATION_RECEIVED notification for the request
// owner. Anonymous donations are still recorded in full but stay silent, and
// a failed insert only logs: money movement is already committed.
func (uc *SettlementUsecase) notifyRecipient(ctx context.Context, agg *domain.SettlementAggregate, request *domain.RequestSummary) {
	if request == nil || agg.Contribution == nil || agg.Contribution.Anonymous {
		return
	}
	donation := agg.DonationEntry()
	if donation == nil {
		return
	}

	donorName := anonymousDonorName
	if donation.DonorName != nil {
		donorName = *donation.DonorName
	}

	n := &domain.Notification{
		UserID: request.OwnerID,
		Type:   domain.NotificationDonationReceived,
		Title:  "Donation received",
		// The quoted amount is what the recipient will actually receive.
		Message: fmt.Sprintf("%s donated %s to your request %q (after platform fees)",
			donorName, fx.Format(donation.NetAmount, donation.Currency), request.Title),
	}
	if err := uc.notificationRepo.Create(ctx, n); err != nil {
		uc.logger.Warn("failed to queue recipient notification",
			zap.String("user_id", request.OwnerID), zap.Error(err))
	}
}
