package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxEntryIDLength     = 64
	MaxDescriptionLength = 500
	MaxBatchSize         = 1000
)

var (
	idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

	// Anything that cannot be part of a plain decimal number, e.g. "$" or ",".
	pastedAmountNoise = regexp.MustCompile(`[^0-9.\-]`)
)

// ParseAmountInput parses an amount typed into a cell. Blank input is zero.
func ParseAmountInput(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmountInput, raw)
	}

	return d, nil
}

// ParsePastedAmount is the lenient variant used for clipboard rows:
// currency symbols and separators are stripped, garbage becomes zero.
func ParsePastedAmount(raw string) decimal.Decimal {
	cleaned := pastedAmountNoise.ReplaceAllString(raw, "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount for an input cell; zero renders empty.
func FormatAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// ValidateEntryID validates a client-allocated entry identifier.
func ValidateEntryID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidEntryID)
	}

	if len(id) > MaxEntryIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidEntryID, MaxEntryIDLength)
	}

	if !idRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidEntryID, id)
	}

	return nil
}

// ValidatePeriodID validates a period identifier.
func ValidatePeriodID(id string) error {
	if id == "" || len(id) > MaxEntryIDLength || !idRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
	}
	return nil
}

// ValidateEntryRecord checks a record received for persistence.
func ValidateEntryRecord(r EntryRecord, periodID string) error {
	if err := ValidateEntryID(r.ID); err != nil {
		return err
	}

	if r.PeriodID != periodID {
		return fmt.Errorf("%w: entry %s has period %q, want %q", ErrPeriodMismatch, r.ID, r.PeriodID, periodID)
	}

	if _, err := ParseDirection(string(r.Direction)); err != nil {
		return err
	}

	return ValidateDescription(r.Description)
}

// ValidateDescription rejects descriptions the persistence API would refuse.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidField, MaxDescriptionLength)
	}
	return nil
}
