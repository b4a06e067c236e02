package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaSeeder handles initial setup of the ledger tables. The requests and
// users tables are owned by the platform schema and are only read here.
type SchemaSeeder struct {
	db *pgxpool.Pool
}

func NewSchemaSeeder(db *pgxpool.Pool) *SchemaSeeder {
	return &SchemaSeeder{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS contributions (
		id             TEXT PRIMARY KEY,
		request_id     TEXT,
		donor_id       TEXT,
		amount         NUMERIC(18,2) NOT NULL CHECK (amount > 0),
		currency       TEXT NOT NULL,
		message        TEXT,
		anonymous      BOOLEAN NOT NULL DEFAULT FALSE,
		payment_method TEXT NOT NULL,
		status         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS settlement_entries (
		id                  TEXT PRIMARY KEY,
		settlement_group_id TEXT NOT NULL,
		type                TEXT NOT NULL,
		status              TEXT NOT NULL,
		amount              NUMERIC(18,2) NOT NULL CHECK (amount >= 0),
		fee_amount          NUMERIC(18,2) NOT NULL DEFAULT 0,
		net_amount          NUMERIC(18,2) NOT NULL DEFAULT 0,
		currency            TEXT NOT NULL,
		payment_gateway     TEXT NOT NULL,
		gateway_tx_id       TEXT NOT NULL,
		gateway_payer_id    TEXT,
		gateway_response    JSONB,
		donor_id            TEXT,
		donor_name          TEXT,
		donor_email         TEXT,
		recipient_id        TEXT,
		recipient_name      TEXT,
		recipient_email     TEXT,
		request_id          TEXT,
		request_title       TEXT,
		approved_by         TEXT,
		admin_notes         TEXT,
		failure_reason      TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		approved_at         TIMESTAMPTZ,
		completed_at        TIMESTAMPTZ
	)`,
	// idempotency key for retried captures
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_settlement_gateway_tx
		ON settlement_entries (payment_gateway, gateway_tx_id)`,
	`CREATE INDEX IF NOT EXISTS idx_settlement_group
		ON settlement_entries (settlement_group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_settlement_status_type
		ON settlement_entries (status, type)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGSERIAL PRIMARY KEY,
		user_id    TEXT NOT NULL,
		type       TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		read       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the ledger tables and indexes if they do not exist.
func (s *SchemaSeeder) EnsureSchema(ctx context.Context) error {
	log.Println("Ensuring ledger schema...")

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	log.Println("Ledger schema ready")
	return nil
}
