package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmountInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "", want: "0"},
		{raw: "   ", want: "0"},
		{raw: "1250", want: "1250"},
		{raw: " 12.5 ", want: "12.5"},
		{raw: "-3", want: "-3"},
		{raw: "12abc", wantErr: true},
		{raw: "$5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseAmountInput(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAmountInput) {
				t.Fatalf("ParseAmountInput(%q): expected ErrInvalidAmountInput, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmountInput(%q): unexpected error %v", tt.raw, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("ParseAmountInput(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestParsePastedAmount(t *testing.T) {
	t.Parallel()

	if got := ParsePastedAmount("$1,200.50"); !got.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("expected 1200.50, got %s", got)
	}

	if got := ParsePastedAmount("n/a"); !got.IsZero() {
		t.Fatalf("expected garbage to parse as zero, got %s", got)
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	if got := FormatAmount(decimal.Zero); got != "" {
		t.Fatalf("expected zero to render empty, got %q", got)
	}

	if got := FormatAmount(decimal.NewFromInt(1250)); got != "1250" {
		t.Fatalf("expected 1250, got %q", got)
	}
}

func TestValidateEntryID(t *testing.T) {
	t.Parallel()

	if err := ValidateEntryID("01J9ZQ3V6K8M2N4P5R7S9T0V1W"); err != nil {
		t.Fatalf("expected ULID to be valid, got %v", err)
	}

	if err := ValidateEntryID("5f0c2b9e-8a3d-4c1e-9f7a-2b6d8e0c4a1f"); err != nil {
		t.Fatalf("expected UUID to be valid, got %v", err)
	}

	for _, id := range []string{"", "new row", "-leading", strings.Repeat("a", MaxEntryIDLength+1)} {
		if err := ValidateEntryID(id); !errors.Is(err, ErrInvalidEntryID) {
			t.Fatalf("ValidateEntryID(%q): expected ErrInvalidEntryID, got %v", id, err)
		}
	}
}

func TestValidateEntryRecord(t *testing.T) {
	t.Parallel()

	valid := EntryRecord{
		ID:        "e1",
		PeriodID:  "p1",
		Direction: DirectionExpense,
		Amount:    decimal.NewFromInt(10),
	}

	if err := ValidateEntryRecord(valid, "p1"); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	t.Run("period mismatch", func(t *testing.T) {
		if err := ValidateEntryRecord(valid, "p2"); !errors.Is(err, ErrPeriodMismatch) {
			t.Fatalf("expected ErrPeriodMismatch, got %v", err)
		}
	})

	t.Run("bad direction", func(t *testing.T) {
		r := valid
		r.Direction = "transfer"
		if err := ValidateEntryRecord(r, "p1"); !errors.Is(err, ErrInvalidDirection) {
			t.Fatalf("expected ErrInvalidDirection, got %v", err)
		}
	})

	t.Run("description too long", func(t *testing.T) {
		r := valid
		r.Description = strings.Repeat("x", MaxDescriptionLength+1)
		if err := ValidateEntryRecord(r, "p1"); !errors.Is(err, ErrInvalidField) {
			t.Fatalf("expected ErrInvalidField, got %v", err)
		}
	})
}

func TestValidateDescriptionBoundary(t *testing.T) {
	t.Parallel()

	if err := ValidateDescription(strings.Repeat("x", MaxDescriptionLength)); err != nil {
		t.Fatalf("expected description at the limit to pass, got %v", err)
	}
	if err := ValidateDescription(strings.Repeat("x", MaxDescriptionLength+1)); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}
