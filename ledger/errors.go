package ledger

import (
	"errors"
	"fmt"

	"github.com/billbatista/acasinha-ledger/money"
)

var (
	ErrInvalidPayer    = errors.New("invalid payer")
	ErrLedgerInvariant = errors.New("ledger amounts do not sum to zero")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidCategory = errors.New("invalid category")
	ErrAmbiguousName   = errors.New("party name is the other party's code")
)

// InvalidPayerError reports a payer that matches neither party.
type InvalidPayerError struct {
	Payer string
}

func (e *InvalidPayerError) Error() string {
	return fmt.Sprintf("invalid payer %q: must be one of the two configured parties", e.Payer)
}

func (e *InvalidPayerError) Is(target error) bool {
	return target == ErrInvalidPayer
}

// LedgerInvariantError means computed or stored amounts failed to zero-sum.
type LedgerInvariantError struct {
	Op  string
	Sum money.Money
}

func (e *LedgerInvariantError) Error() string {
	return fmt.Sprintf("%s: amounts sum to %s, expected 0.00", e.Op, e.Sum)
}

func (e *LedgerInvariantError) Is(target error) bool {
	return target == ErrLedgerInvariant
}

// InvalidAmountError rejects a non-numeric or negative input.
type InvalidAmountError struct {
	Field string
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be a non-negative number", e.Field, e.Value)
}

func (e *InvalidAmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}

// InvalidCategoryError rejects a category outside the configured list.
type InvalidCategoryError struct {
	Category string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category %q", e.Category)
}

func (e *InvalidCategoryError) Is(target error) bool {
	return target == ErrInvalidCategory
}
