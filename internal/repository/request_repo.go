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

// RequestRepository resolves donation requests to their owner, so the ledger
// can snapshot recipient identity at settlement time.
type RequestRepository interface {
	FindByID(ctx context.Context, id string) (*domain.RequestSummary, error)
}

type requestRepo struct {
	db *pgxpool.Pool
}

func NewRequestRepo(db *pgxpool.Pool) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) FindByID(ctx context.Context, id string) (*domain.RequestSummary, error) {
	query := `
		SELECT r.id, r.title, r.user_id, u.full_name, u.email
		FROM requests r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`

	var s domain.RequestSummary
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Title, &s.OwnerID, &s.OwnerName, &s.OwnerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find request: %w", err)
	}

	return &s, nil
}
