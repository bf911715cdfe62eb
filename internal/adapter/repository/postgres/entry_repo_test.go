package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cashclarity/ledgersync/internal/domain"
)

func testRecord(id string) domain.EntryRecord {
	return domain.EntryRecord{
		ID:          id,
		WorkspaceID: "ws-1",
		PeriodID:    "2024-05",
		Direction:   domain.DirectionExpense,
		CategoryID:  "cat-rent",
		Description: "Rent",
		Amount:      decimal.RequireFromString("1250.50"),
	}
}

func TestEntryRepositoryUpsertBatch(t *testing.T) {
	ctx := context.Background()
	mockPool := newMockPool(t)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO ledger_entries").
		WithArgs("e-1", "ws-1", "2024-05", "expense", "cat-rent", "Rent", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO ledger_entries").
		WithArgs("e-2", "ws-1", "2024-05", "expense", "cat-rent", "Rent", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	tx, err := newTxManager(mockPool, zerolog.Nop()).Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	repo := NewEntryRepository(mockPool)
	if err := repo.UpsertBatch(ctx, tx, []domain.EntryRecord{testRecord("e-1"), testRecord("e-2")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestEntryRepositoryUpsertBatchForeignPeriod(t *testing.T) {
	ctx := context.Background()
	mockPool := newMockPool(t)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO ledger_entries").
		WithArgs("e-1", "ws-1", "2024-05", "expense", "cat-rent", "Rent", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mockPool.ExpectRollback()

	tx, err := newTxManager(mockPool, zerolog.Nop()).Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	err = NewEntryRepository(mockPool).UpsertBatch(ctx, tx, []domain.EntryRecord{testRecord("e-1")})
	if !errors.Is(err, domain.ErrPeriodMismatch) {
		t.Fatalf("expected ErrPeriodMismatch, got %v", err)
	}

	_ = tx.Rollback(ctx)
	assertExpectations(t, mockPool)
}

func TestEntryRepositoryDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: domain.ErrEntryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mockPool := newMockPool(t)

			mockPool.ExpectBegin()
			mockPool.ExpectExec("DELETE FROM ledger_entries").
				WithArgs("e-1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))
			mockPool.ExpectRollback()

			tx, err := newTxManager(mockPool, zerolog.Nop()).Begin(ctx)
			if err != nil {
				t.Fatalf("begin failed: %v", err)
			}

			err = NewEntryRepository(mockPool).Delete(ctx, tx, "e-1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			_ = tx.Rollback(ctx)
			assertExpectations(t, mockPool)
		})
	}
}

func TestEntryRepositoryListByPeriod(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Now().UTC()

	rows := mockPool.NewRows([]string{"id", "workspace_id", "period_id", "direction", "category_id", "description", "amount", "created_at", "updated_at"}).
		AddRow("e-1", "ws-1", "2024-05", "income", "cat-sales", "Consulting", decimalToNumeric(decimal.NewFromInt(900)), timeToPgTimestamptz(now), timeToPgTimestamptz(now)).
		AddRow("e-2", "ws-1", "2024-05", "expense", "cat-rent", "Rent", decimalToNumeric(decimal.RequireFromString("1250.50")), timeToPgTimestamptz(now), timeToPgTimestamptz(now))
	mockPool.ExpectQuery("SELECT (.+) FROM ledger_entries").WithArgs("2024-05").WillReturnRows(rows)

	records, err := NewEntryRepository(mockPool).ListByPeriod(context.Background(), "2024-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Direction != domain.DirectionExpense {
		t.Errorf("expected expense, got %s", records[1].Direction)
	}
	if !records[1].Amount.Equal(decimal.RequireFromString("1250.50")) {
		t.Errorf("expected amount 1250.50, got %s", records[1].Amount)
	}

	assertExpectations(t, mockPool)
}

func TestTxQueriesRejectsForeignTransaction(t *testing.T) {
	if _, err := txQueries(fakeTransaction{}); err == nil {
		t.Fatal("expected error for a transaction not created by TxManager")
	}
}

type fakeTransaction struct{}

func (fakeTransaction) Commit(context.Context) error   { return nil }
func (fakeTransaction) Rollback(context.Context) error { return nil }
