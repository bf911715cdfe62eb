package domain

import "errors"

var (
	// Entry errors
	ErrEntryNotFound      = errors.New("entry not found")
	ErrInvalidDirection   = errors.New("invalid entry direction")
	ErrInvalidField       = errors.New("invalid entry field")
	ErrInvalidAmountInput = errors.New("invalid amount")
	ErrInvalidEntryID     = errors.New("invalid entry ID")

	// Period errors
	ErrPeriodMismatch = errors.New("entry does not belong to period")
	ErrInvalidPeriod  = errors.New("invalid period ID")
	ErrBatchTooLarge  = errors.New("batch exceeds maximum size")

	// Sheet errors
	ErrSheetClosed = errors.New("sheet is closed")
)
