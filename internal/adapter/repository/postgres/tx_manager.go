package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cashclarity/ledgersync/internal/infrastructure/postgres/generated"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

// beginner is the part of pgxpool.Pool the ledger needs to open a unit of work.
type beginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager opens the transactions that make a ledger save atomic: the
// entry or override writes and their outbox event commit together.
type TxManager struct {
	db     beginner
	logger zerolog.Logger
}

func NewTxManager(pool *pgxpool.Pool, logger zerolog.Logger) *TxManager {
	return newTxManager(pool, logger)
}

func newTxManager(db beginner, logger zerolog.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	return &Tx{tx: tx, logger: m.logger}, nil
}

// Tx is a single unit of work. Once committed or rolled back, further
// Rollback calls are no-ops so callers can always defer one.
type Tx struct {
	tx       pgx.Tx
	finished bool
	logger   zerolog.Logger
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.finished {
		return pgx.ErrTxClosed
	}
	t.finished = true

	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.finished {
		return nil
	}
	t.finished = true

	err := t.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	t.logger.Warn().Err(err).Msg("transaction rollback failed")
	return fmt.Errorf("rollback transaction: %w", err)
}

func (t *Tx) queries() *generated.Queries {
	return generated.New(t.tx)
}

// txQueries binds the generated queries to a transaction opened by TxManager.
func txQueries(tx usecase.Transaction) (*generated.Queries, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("unsupported transaction type %T", tx)
	}
	if t.finished {
		return nil, pgx.ErrTxClosed
	}

	return t.queries(), nil
}
