package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashclarity/ledgersync/internal/domain"
)

type memoryBackend struct {
	mu        sync.Mutex
	entries   map[string]domain.EntryRecord
	overrides domain.PeriodOverrides
	upserts   int
	failSaves bool
}

func newMemoryBackend(records ...domain.EntryRecord) *memoryBackend {
	b := &memoryBackend{entries: map[string]domain.EntryRecord{}}
	for _, r := range records {
		b.entries[r.ID] = r
	}
	return b
}

func (b *memoryBackend) UpsertEntries(_ context.Context, _ string, records []domain.EntryRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSaves {
		return errors.New("connection refused")
	}
	b.upserts++
	for _, r := range records {
		b.entries[r.ID] = r
	}
	return nil
}

func (b *memoryBackend) DeleteEntry(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[id]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(b.entries, id)
	return nil
}

func (b *memoryBackend) UpsertPeriodOverrides(_ context.Context, _ string, o domain.PeriodOverrides) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSaves {
		return errors.New("connection refused")
	}
	b.overrides = o
	return nil
}

func (b *memoryBackend) ListEntries(_ context.Context, periodID string) ([]domain.EntryRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.EntryRecord
	for _, r := range b.entries {
		if r.PeriodID == periodID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *memoryBackend) GetPeriodOverrides(context.Context, string) (domain.PeriodOverrides, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overrides, nil
}

func (b *memoryBackend) record(id string) (domain.EntryRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.entries[id]
	return r, ok
}

func testOptions() sheetOptions {
	return sheetOptions{
		workspaceID: "ws-1",
		periodID:    "2024-05",
		categories:  []string{"income:sales", "expense:rent", "expense:payroll"},
		quietPeriod: time.Hour,
		saveTimeout: time.Second,
	}
}

func runScript(t *testing.T, b *memoryBackend, script string) string {
	t.Helper()

	out, err := tryScript(t, b, script)
	require.NoError(t, err)
	return out
}

func tryScript(t *testing.T, b *memoryBackend, script string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	sess, err := openSession(context.Background(), b, testOptions(), &out, zerolog.Nop())
	require.NoError(t, err)
	defer sess.close()

	err = sess.run(context.Background(), strings.NewReader(script))
	return out.String(), err
}

func TestSession_AddEditSave(t *testing.T) {
	b := newMemoryBackend()

	var out bytes.Buffer
	sess, err := openSession(context.Background(), b, testOptions(), &out, zerolog.Nop())
	require.NoError(t, err)
	defer sess.close()

	require.NoError(t, sess.execute(context.Background(), "add expense", nil))
	entries := sess.sheet.Entries()
	require.Len(t, entries, 1)
	id := entries[0].ID
	assert.Equal(t, "rent", entries[0].CategoryID, "first expense category is the default")

	require.NoError(t, sess.execute(context.Background(), "set "+id+" description Office rent May", nil))
	require.NoError(t, sess.execute(context.Background(), "set "+id+" amount 1200.50", nil))
	require.NoError(t, sess.execute(context.Background(), "save", nil))

	rec, ok := b.record(id)
	require.True(t, ok)
	assert.Equal(t, "Office rent May", rec.Description)
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.Contains(t, out.String(), "ok: All changes saved")
	assert.Contains(t, out.String(), "expenses 1200.50")
}

func TestSession_QuitFlushesPendingChanges(t *testing.T) {
	b := newMemoryBackend()

	out := runScript(t, b, "open 1000\ndividends on\nquit\nadd income\n")

	require.NotNil(t, b.overrides.OpeningBalanceOverride)
	assert.True(t, b.overrides.OpeningBalanceOverride.Equal(decimal.NewFromInt(1000)))
	assert.True(t, b.overrides.DividendsReleased)
	assert.Contains(t, out, "[saved]")
	assert.Empty(t, b.entries, "commands after quit must not run")
}

func TestSession_Paste(t *testing.T) {
	b := newMemoryBackend()

	out := runScript(t, b, "paste income\nConsulting\t$1,500.00\nWorkshop\t250\n\n.\nsave\n")

	assert.Contains(t, out, "pasted 2 rows")
	assert.Len(t, b.entries, 2)
}

func TestSession_RemovePersistedRow(t *testing.T) {
	b := newMemoryBackend(domain.EntryRecord{
		ID:          "e-1",
		WorkspaceID: "ws-1",
		PeriodID:    "2024-05",
		Direction:   domain.DirectionExpense,
		CategoryID:  "rent",
		Description: "Rent",
		Amount:      decimal.NewFromInt(900),
	})

	out := runScript(t, b, "list\nrm e-1\nstatus\n")

	assert.Contains(t, out, "opened 2024-05 with 1 entries")
	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "ok: Entry deleted")
	assert.Contains(t, out, "no pending changes")
	_, ok := b.record("e-1")
	assert.False(t, ok)
}

func TestSession_SaveFailureIsReported(t *testing.T) {
	b := newMemoryBackend()
	b.failSaves = true

	out, err := tryScript(t, b, "closing-enabled on\nclosing 500\nsave\nstatus\n")

	require.Error(t, err, "unsaved changes at exit must surface as an error")
	assert.Contains(t, out, "error: Failed to save changes")
	assert.Contains(t, out, "error, unsaved changes")
}

func TestSession_CommandErrors(t *testing.T) {
	b := newMemoryBackend()

	out := runScript(t, b, "frobnicate\nadd sideways\nset missing amount 5\ndividends maybe\nopen abc\n")

	assert.Contains(t, out, `unknown command "frobnicate"`)
	assert.Contains(t, out, "invalid entry direction")
	assert.Contains(t, out, "entry not found")
	assert.Contains(t, out, "expected on or off")
	assert.Contains(t, out, "invalid amount")
}

func TestParseCategories(t *testing.T) {
	cats, err := parseCategories([]string{"income:sales", "Expense: rent "})
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, domain.DirectionExpense, cats[1].Direction)
	assert.Equal(t, "rent", cats[1].ID)

	_, err = parseCategories([]string{"sales"})
	assert.Error(t, err)
}

func TestRestOf(t *testing.T) {
	assert.Equal(t, "Office  rent", restOf("set e-1 description Office  rent", 3))
	assert.Equal(t, "", restOf("open", 1))
	assert.Equal(t, "1000", restOf("  open   1000 ", 1))
}

func TestSheetCommandRequiresFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"sheet", "--period", "2024-05"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace")
}
