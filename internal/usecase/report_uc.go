package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"settlement-service/internal/domain"
	"settlement-service/internal/repository"
)

const (
	statsCacheKey = "settlement:stats"
	statsCacheTTL = 60 * time.Second
)

// ReportUsecase serves the admin listing, dashboard stats and CSV export.
type ReportUsecase struct {
	settlementRepo repository.SettlementRepository
	redis          *redis.Client
	logger         *zap.Logger
}

func NewReportUsecase(
	settlementRepo repository.SettlementRepository,
	rdb *redis.Client,
	logger *zap.Logger,
) *ReportUsecase {
	return &ReportUsecase{
		settlementRepo: settlementRepo,
		redis:          rdb,
		logger:         logger,
	}
}

func (uc *ReportUsecase) ListEntries(ctx context.Context, filter *domain.EntryFilter) ([]*domain.SettlementEntry, error) {
	return uc.settlementRepo.List(ctx, filter)
}

// Stats returns the dashboard aggregates, cached briefly in redis so a busy
// dashboard does not hammer the aggregate query. Cache failures fall through
// to the database.
func (uc *ReportUsecase) Stats(ctx context.Context) (*domain.TransactionStats, error) {
	if uc.redis != nil {
		if cached, err := uc.redis.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats domain.TransactionStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := uc.settlementRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if uc.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := uc.redis.Set(ctx, statsCacheKey, data, statsCacheTTL).Err(); err != nil {
				uc.logger.Warn("failed to cache transaction stats", zap.Error(err))
			}
		}
	}

	return stats, nil
}

var exportHeader = []string{
	"id", "settlement_group_id", "type", "status",
	"amount", "fee_amount", "net_amount", "currency",
	"payment_gateway", "gateway_tx_id",
	"donor_name", "recipient_name", "request_id", "request_title",
	"created_at", "completed_at",
}

// ExportCSV streams the filtered ledger as CSV. Amounts are written at two
// decimal places so the file reconciles against gateway statements.
func (uc *ReportUsecase) ExportCSV(ctx context.Context, filter *domain.EntryFilter, w io.Writer) error {
	entries, err := uc.settlementRepo.List(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, e := range entries {
		completedAt := ""
		if e.CompletedAt != nil {
			completedAt = e.CompletedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			e.ID, e.SettlementGroupID, string(e.Type), string(e.Status),
			e.Amount.StringFixed(2), e.FeeAmount.StringFixed(2), e.NetAmount.StringFixed(2), string(e.Currency),
			e.PaymentGateway, e.GatewayTxID,
			strDeref(e.DonorName), strDeref(e.RecipientName), strDeref(e.RequestID), strDeref(e.RequestTitle),
			e.CreatedAt.UTC().Format(time.RFC3339), completedAt,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
