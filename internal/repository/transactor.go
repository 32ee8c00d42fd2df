package repository

import (
	"context"
	"fmt"

	"github.com/S1riyS/graphfs/pkg/database/postgresql"
	"github.com/jackc/pgx/v5"
)

type pgTransactor struct {
	db postgresql.TxBeginner
}

func NewTransactor(db postgresql.TxBeginner) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, mode TxMode, fn func(ctx context.Context) error) error {
	const op = "repository.pgTransactor.WithinTx"

	opts := pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}
	if mode == TxReadOnly {
		opts = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	}

	var fnErr error
	err := postgresql.WithTransaction(ctx, t.db, opts, func(ctx context.Context) error {
		fnErr = fn(ctx)
		return fnErr
	})
	if err == nil {
		return nil
	}

	// errors from fn are already classified or are domain outcomes
	if fnErr != nil {
		return fnErr
	}

	return fmt.Errorf("%s: %w", op, Classify(err))
}
