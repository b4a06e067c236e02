package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"settlement-service/internal/domain"
	"settlement-service/pkg/xerrors"
)

type ContributionRepository interface {
	// CreateTx inserts within the caller's transaction so the contribution
	// commits or rolls back together with its ledger rows.
	CreateTx(ctx context.Context, tx pgx.Tx, c *domain.ContributionRecord) error

	GetByID(ctx context.Context, id string) (*domain.ContributionRecord, error)
	ListByRequest(ctx context.Context, requestID string) ([]*domain.ContributionRecord, error)
}

type contributionRepo struct {
	db *pgxpool.Pool
}

func NewContributionRepo(db *pgxpool.Pool) ContributionRepository {
	return &contributionRepo{db: db}
}

const contributionColumns = `
	id, request_id, donor_id, amount, currency, message,
	anonymous, payment_method, status, created_at`

func (r *contributionRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *domain.ContributionRecord) error {
	query := `
		INSERT INTO contributions (
			id, request_id, donor_id, amount, currency, message,
			anonymous, payment_method, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	return tx.QueryRow(ctx, query,
		c.ID, c.RequestID, c.DonorID, c.Amount, c.Currency, c.Message,
		c.Anonymous, c.PaymentMethod, c.Status,
	).Scan(&c.CreatedAt)
}

func (r *contributionRepo) GetByID(ctx context.Context, id string) (*domain.ContributionRecord, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions WHERE id = $1`

	var c domain.ContributionRecord
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.RequestID, &c.DonorID, &c.Amount, &c.Currency, &c.Message,
		&c.Anonymous, &c.PaymentMethod, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrContributionNotFound
		}
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}

	return &c, nil
}

func (r *contributionRepo) ListByRequest(ctx context.Context, requestID string) ([]*domain.ContributionRecord, error) {
	query := `SELECT ` + contributionColumns + `
		FROM contributions
		WHERE request_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var out []*domain.ContributionRecord
	for rows.Next() {
		var c domain.ContributionRecord
		if err := rows.Scan(
			&c.ID, &c.RequestID, &c.DonorID, &c.Amount, &c.Currency, &c.Message,
			&c.Anonymous, &c.PaymentMethod, &c.Status, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		out = append(out, &c)
	}

	return out, rows.Err()
}
