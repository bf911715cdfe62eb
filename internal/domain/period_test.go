package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPeriodConfigOverrides(t *testing.T) {
	t.Parallel()

	t.Run("blank fields become null", func(t *testing.T) {
		o := PeriodConfig{}.Overrides()
		if o.OpeningBalanceOverride != nil || o.ClosingBalanceOverride != nil || o.DividendsReleased {
			t.Fatalf("expected empty overrides, got %+v", o)
		}
	})

	t.Run("closing balance ignored while disabled", func(t *testing.T) {
		o := PeriodConfig{OpeningBalance: "100", ClosingBalance: "900"}.Overrides()
		if o.OpeningBalanceOverride == nil || !o.OpeningBalanceOverride.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("expected opening 100, got %v", o.OpeningBalanceOverride)
		}
		if o.ClosingBalanceOverride != nil {
			t.Fatalf("expected closing override to be null while disabled")
		}
	})

	t.Run("closing balance sent when enabled", func(t *testing.T) {
		o := PeriodConfig{ClosingOverrideEnabled: true, ClosingBalance: "900", DividendsReleased: true}.Overrides()
		if o.ClosingBalanceOverride == nil || !o.ClosingBalanceOverride.Equal(decimal.NewFromInt(900)) {
			t.Fatalf("expected closing 900, got %v", o.ClosingBalanceOverride)
		}
		if !o.DividendsReleased {
			t.Fatalf("expected dividends flag to carry over")
		}
	})
}

func TestPeriodConfigFromOverrides(t *testing.T) {
	t.Parallel()

	opening := decimal.NewFromInt(250)
	closing := decimal.RequireFromString("1000.5")

	cfg := PeriodConfigFromOverrides(PeriodOverrides{
		OpeningBalanceOverride: &opening,
		ClosingBalanceOverride: &closing,
	})

	want := PeriodConfig{OpeningBalance: "250", ClosingOverrideEnabled: true, ClosingBalance: "1000.5"}
	if cfg != want {
		t.Fatalf("PeriodConfigFromOverrides() = %+v, want %+v", cfg, want)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Direction: DirectionIncome, Amount: decimal.NewFromInt(5000)},
		{Direction: DirectionExpense, Amount: decimal.NewFromInt(1200)},
		{Direction: DirectionExpense, Amount: decimal.Zero},
	}

	s := Summarize(entries, PeriodConfig{OpeningBalance: "300"})
	if !s.NetCashFlow.Equal(decimal.NewFromInt(3800)) {
		t.Fatalf("expected net 3800, got %s", s.NetCashFlow)
	}
	if !s.ClosingIsAuto || !s.ClosingBalance.Equal(decimal.NewFromInt(4100)) {
		t.Fatalf("expected auto closing 4100, got %s (auto=%v)", s.ClosingBalance, s.ClosingIsAuto)
	}

	s = Summarize(entries, PeriodConfig{ClosingOverrideEnabled: true, ClosingBalance: "42"})
	if s.ClosingIsAuto || !s.ClosingBalance.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("expected overridden closing 42, got %s", s.ClosingBalance)
	}
}
