package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PeriodConfig is the period-level state owned by the editing surface.
// Balances are kept as typed text so a blank field stays distinguishable
// from an explicit zero.
type PeriodConfig struct {
	OpeningBalance         string
	DividendsReleased      bool
	ClosingOverrideEnabled bool
	ClosingBalance         string
}

// PeriodOverrides is the persisted override record of a period.
type PeriodOverrides struct {
	OpeningBalanceOverride *decimal.Decimal
	DividendsReleased      bool
	ClosingBalanceOverride *decimal.Decimal
}

// Overrides converts the editing state into the record sent to the server.
// The closing balance is only sent while the override is enabled.
func (c PeriodConfig) Overrides() PeriodOverrides {
	o := PeriodOverrides{
		OpeningBalanceOverride: parseOptionalAmount(c.OpeningBalance),
		DividendsReleased:      c.DividendsReleased,
	}

	if c.ClosingOverrideEnabled {
		o.ClosingBalanceOverride = parseOptionalAmount(c.ClosingBalance)
	}

	return o
}

// PeriodConfigFromOverrides builds the editing state for a freshly loaded period.
func PeriodConfigFromOverrides(o PeriodOverrides) PeriodConfig {
	c := PeriodConfig{DividendsReleased: o.DividendsReleased}

	if o.OpeningBalanceOverride != nil {
		c.OpeningBalance = o.OpeningBalanceOverride.String()
	}

	if o.ClosingBalanceOverride != nil {
		c.ClosingOverrideEnabled = true
		c.ClosingBalance = o.ClosingBalanceOverride.String()
	}

	return c
}

func parseOptionalAmount(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}

	return &d
}

// PeriodSummary holds the totals shown next to the entry table.
type PeriodSummary struct {
	Revenue        decimal.Decimal
	Expenses       decimal.Decimal
	NetCashFlow    decimal.Decimal
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	ClosingIsAuto  bool
}

// Summarize computes the local period totals. Amounts are summed as typed,
// the closing balance falls back to opening plus net cash flow unless an
// override is enabled and filled in.
func Summarize(entries []Entry, cfg PeriodConfig) PeriodSummary {
	s := PeriodSummary{
		Revenue:  decimal.Zero,
		Expenses: decimal.Zero,
	}

	for _, e := range entries {
		switch e.Direction {
		case DirectionIncome:
			s.Revenue = s.Revenue.Add(e.Amount)
		case DirectionExpense:
			s.Expenses = s.Expenses.Add(e.Amount)
		}
	}

	s.NetCashFlow = s.Revenue.Sub(s.Expenses)

	o := cfg.Overrides()
	if o.OpeningBalanceOverride != nil {
		s.OpeningBalance = *o.OpeningBalanceOverride
	}

	if o.ClosingBalanceOverride != nil {
		s.ClosingBalance = *o.ClosingBalanceOverride
	} else {
		s.ClosingBalance = s.OpeningBalance.Add(s.NetCashFlow)
		s.ClosingIsAuto = true
	}

	return s
}
