package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ParsePGErrorCode extracts the SQLSTATE from a postgres error.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsUniqueViolation reports whether err is a postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
)

// Currency / conversion
var (
	ErrUnsupportedCurrency = errors.New("unsupported currency code")
	ErrNoRate              = errors.New("no exchange rate for currency")
)

// Settlement
var (
	ErrGatewayRejected      = errors.New("payment was not completed")
	ErrDuplicateTransaction = errors.New("gateway transaction already recorded")
	ErrAmountNotPositive    = errors.New("amount must be greater than zero")
	ErrInvalidEntryStatus   = errors.New("invalid settlement entry status")
	ErrInvalidEntryType     = errors.New("invalid settlement entry type")
	ErrEntryNotFound        = errors.New("settlement entry not found")
	ErrContributionNotFound = errors.New("contribution not found")
)
