package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned when an import produced no valid rows.
	ErrEmptyBatch = errors.New("no valid rows to import")
	// ErrCurrencyLocked is returned when an account's currency would change
	// after transactions were recorded against it.
	ErrCurrencyLocked = errors.New("account currency cannot change once transactions exist")
	// ErrSubInvoiceSum is returned when sub-invoices do not add up to their operation.
	ErrSubInvoiceSum = errors.New("sub-invoice amounts do not sum to operation amount")
	// ErrNoSubInvoices is returned for a multi-invoice operation without children.
	ErrNoSubInvoices = errors.New("multiple documents require at least one sub-invoice")
)

// UnknownAccountError reports a reference to an account that does not exist.
type UnknownAccountError struct {
	AccountID string
	// Suggestion is the closest known account id, if any was close enough.
	Suggestion string
}

func (e *UnknownAccountError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown account %q (did you mean %q?)", e.AccountID, e.Suggestion)
	}
	return fmt.Sprintf("unknown account %q", e.AccountID)
}

// IsUnknownAccount reports whether err carries an UnknownAccountError.
func IsUnknownAccount(err error) bool {
	var target *UnknownAccountError
	return errors.As(err, &target)
}

// ValidationError describes a raw row that was dropped during normalization.
type ValidationError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e ValidationError) Unwrap() error { return e.Err }

// ErrInvalidRange is returned when a statement range ends on or before its start.
var ErrInvalidRange = errors.New("statement range end must be after start")
