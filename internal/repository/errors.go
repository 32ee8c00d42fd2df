package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrTxConflict means a concurrent writer won; the whole call may be retried.
	ErrTxConflict = errors.New("transaction conflict")
	// ErrUnavailable covers every other store failure.
	ErrUnavailable = errors.New("store unavailable")
)

// PostgreSQL error codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Classify tags a raw store error with ErrTxConflict or ErrUnavailable,
// keeping the original in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTxConflict) || errors.Is(err, ErrUnavailable) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %w", ErrTxConflict, err)
		}
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
