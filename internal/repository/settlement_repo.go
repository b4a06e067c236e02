package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"settlement-service/internal/domain"
	"settlement-service/pkg/xerrors"
)

type SettlementRepository interface {
	// RecordSettlement writes the complete aggregate atomically: the
	// contribution record plus all of its ledger rows. All rows or none.
	RecordSettlement(ctx context.Context, agg *domain.SettlementAggregate) error

	GetByID(ctx context.Context, id string) (*domain.SettlementEntry, error)
	GetByGatewayTxID(ctx context.Context, gateway, gatewayTxID string) (*domain.SettlementEntry, error)
	ListByGroupID(ctx context.Context, groupID string) ([]*domain.SettlementEntry, error)

	UpdateStatus(ctx context.Context, id string, change *domain.StatusChange) (*domain.SettlementEntry, error)

	List(ctx context.Context, filter *domain.EntryFilter) ([]*domain.SettlementEntry, error)
	Stats(ctx context.Context) (*domain.TransactionStats, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type settlementRepo struct {
	db               *pgxpool.Pool
	contributionRepo ContributionRepository
}

func NewSettlementRepo(db *pgxpool.Pool, contributionRepo ContributionRepository) SettlementRepository {
	return &settlementRepo{
		db:               db,
		contributionRepo: contributionRepo,
	}
}

func (r *settlementRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const entryColumns = `
	id, settlement_group_id, type, status,
	amount, fee_amount, net_amount, currency,
	payment_gateway, gateway_tx_id, gateway_payer_id, gateway_response,
	donor_id, donor_name, donor_email,
	recipient_id, recipient_name, recipient_email,
	request_id, request_title,
	approved_by, admin_notes, failure_reason,
	created_at, updated_at, approved_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.SettlementEntry, error) {
	var e domain.SettlementEntry
	err := row.Scan(
		&e.ID, &e.SettlementGroupID, &e.Type, &e.Status,
		&e.Amount, &e.FeeAmount, &e.NetAmount, &e.Currency,
		&e.PaymentGateway, &e.GatewayTxID, &e.GatewayPayerID, &e.GatewayResponse,
		&e.DonorID, &e.DonorName, &e.DonorEmail,
		&e.RecipientID, &e.RecipientName, &e.RecipientEmail,
		&e.RequestID, &e.RequestTitle,
		&e.ApprovedBy, &e.AdminNotes, &e.FailureReason,
		&e.CreatedAt, &e.UpdatedAt, &e.ApprovedAt, &e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// RecordSettlement writes the contribution and every ledger row inside one
// database transaction. A unique index on (payment_gateway, gateway_tx_id)
// turns a retried capture into ErrDuplicateTransaction instead of a second
// set of rows.
func (r *settlementRepo) RecordSettlement(ctx context.Context, agg *domain.SettlementAggregate) error {
	if agg.Contribution == nil || len(agg.Entries) == 0 {
		return xerrors.ErrInvalidInput
	}

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.contributionRepo.CreateTx(ctx, tx, agg.Contribution); err != nil {
		return fmt.Errorf("failed to create contribution: %w", err)
	}

	for _, entry := range agg.Entries {
		if err := r.createEntryTx(ctx, tx, entry); err != nil {
			if xerrors.IsUniqueViolation(err) {
				return xerrors.ErrDuplicateTransaction
			}
			return fmt.Errorf("failed to create settlement entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}

	return nil
}

func (r *settlementRepo) createEntryTx(ctx context.Context, tx pgx.Tx, entry *domain.SettlementEntry) error {
	query := `
		INSERT INTO settlement_entries (
			id, settlement_group_id, type, status,
			amount, fee_amount, net_amount, currency,
			payment_gateway, gateway_tx_id, gateway_payer_id, gateway_response,
			donor_id, donor_name, donor_email,
			recipient_id, recipient_name, recipient_email,
			request_id, request_title,
			approved_by, admin_notes, failure_reason,
			approved_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING created_at, updated_at
	`

	return tx.QueryRow(ctx, query,
		entry.ID, entry.SettlementGroupID, entry.Type, entry.Status,
		entry.Amount, entry.FeeAmount, entry.NetAmount, entry.Currency,
		entry.PaymentGateway, entry.GatewayTxID, entry.GatewayPayerID, entry.GatewayResponse,
		entry.DonorID, entry.DonorName, entry.DonorEmail,
		entry.RecipientID, entry.RecipientName, entry.RecipientEmail,
		entry.RequestID, entry.RequestTitle,
		entry.ApprovedBy, entry.AdminNotes, entry.FailureReason,
		entry.ApprovedAt, entry.CompletedAt,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
}

func (r *settlementRepo) GetByID(ctx context.Context, id string) (*domain.SettlementEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM settlement_entries WHERE id = $1`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get settlement entry: %w", err)
	}
	return entry, nil
}

func (r *settlementRepo) GetByGatewayTxID(ctx context.Context, gateway, gatewayTxID string) (*domain.SettlementEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM settlement_entries
		WHERE payment_gateway = $1 AND gateway_tx_id = $2`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, gateway, gatewayTxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get settlement entry by gateway tx: %w", err)
	}
	return entry, nil
}

func (r *settlementRepo) ListByGroupID(ctx context.Context, groupID string) ([]*domain.SettlementEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM settlement_entries
		WHERE settlement_group_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement group: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// UpdateStatus persists an admin lifecycle change. Which timestamps a
// transition stamps is decided by the caller (domain.StatusUpdate.Change);
// nil stamp fields keep the stored values. Every update re-stamps updated_at.
func (r *settlementRepo) UpdateStatus(ctx context.Context, id string, change *domain.StatusChange) (*domain.SettlementEntry, error) {
	query := `
		UPDATE settlement_entries
		SET status = $2,
		    admin_notes = COALESCE($3, admin_notes),
		    approved_by = COALESCE($4, approved_by),
		    approved_at = COALESCE($5, approved_at),
		    completed_at = COALESCE($6, completed_at),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + entryColumns

	entry, err := scanEntry(r.db.QueryRow(ctx, query, id,
		change.Status, change.AdminNotes, change.ApprovedBy, change.ApprovedAt, change.CompletedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to update settlement entry: %w", err)
	}
	return entry, nil
}

func (r *settlementRepo) List(ctx context.Context, filter *domain.EntryFilter) ([]*domain.SettlementEntry, error) {
	var (
		conditions []string
		args       []any
	)

	addArg := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Status != nil {
		addArg("status = $%d", *filter.Status)
	}
	if filter.Type != nil {
		addArg("type = $%d", *filter.Type)
	}
	if filter.From != nil {
		addArg("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addArg("created_at <= $%d", *filter.To)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(donor_name ILIKE $%d OR recipient_name ILIKE $%d OR gateway_tx_id ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + entryColumns + ` FROM settlement_entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *settlementRepo) Stats(ctx context.Context) (*domain.TransactionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COALESCE(SUM(amount)     FILTER (WHERE type = 'FEE'          AND status = 'COMPLETED'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE type = 'DISBURSEMENT' AND status = 'COMPLETED'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE type = 'DISBURSEMENT' AND status = 'PENDING'), 0)
		FROM settlement_entries
	`

	var stats domain.TransactionStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalTransactions,
		&stats.CompletedTransactions,
		&stats.PendingTransactions,
		&stats.TotalRevenue,
		&stats.TotalDisbursed,
		&stats.PendingWithdrawals,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate settlement stats: %w", err)
	}

	return &stats, nil
}

func collectEntries(rows pgx.Rows) ([]*domain.SettlementEntry, error) {
	var entries []*domain.SettlementEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
