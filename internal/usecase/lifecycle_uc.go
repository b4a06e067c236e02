package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"settlement-service/internal/domain"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/repository"
)

// LifecycleUsecase drives admin-initiated status changes on ledger entries.
type LifecycleUsecase struct {
	settlementRepo repository.SettlementRepository
	pub            *publisher.SettlementEventPublisher
	logger         *zap.Logger
}

func NewLifecycleUsecase(
	settlementRepo repository.SettlementRepository,
	pub *publisher.SettlementEventPublisher,
	logger *zap.Logger,
) *LifecycleUsecase {
	return &LifecycleUsecase{
		settlementRepo: settlementRepo,
		pub:            pub,
		logger:         logger,
	}
}

func (uc *LifecycleUsecase) GetEntry(ctx context.Context, id string) (*domain.SettlementEntry, error) {
	return uc.settlementRepo.GetByID(ctx, id)
}

func (uc *LifecycleUsecase) GetGroup(ctx context.Context, groupID string) ([]*domain.SettlementEntry, error) {
	return uc.settlementRepo.ListByGroupID(ctx, groupID)
}

// UpdateStatus applies an admin lifecycle change to a single entry. Moving an
// entry into COMPLETED stamps the approver and completion time; every change
// re-stamps updated_at. The updated row is returned.
func (uc *LifecycleUsecase) UpdateStatus(ctx context.Context, id string, update *domain.StatusUpdate) (*domain.SettlementEntry, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	entry, err := uc.settlementRepo.UpdateStatus(ctx, id, update.Change(time.Now().UTC()))
	if err != nil {
		uc.logger.Error("failed to update entry status",
			zap.String("entry_id", id),
			zap.String("status", string(update.Status)),
			zap.Error(err))
		return nil, err
	}

	uc.logger.Info("entry status updated",
		zap.String("entry_id", entry.ID),
		zap.String("type", string(entry.Type)),
		zap.String("status", string(entry.Status)))

	if err := uc.pub.PublishStatusChanged(ctx, entry); err != nil {
		uc.logger.Warn("failed to publish status event",
			zap.String("entry_id", entry.ID), zap.Error(err))
	}

	return entry, nil
}
