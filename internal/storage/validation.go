// Package storage provides the data persistence layer for the steuerflow application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidExpense   = errors.New("invalid expense")
	ErrInvalidHistory   = errors.New("invalid history entry")
	ErrInvalidKey       = errors.New("invalid expense key")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateKey validates an expense key.
func validateKey(key service.ExpenseKey) error {
	if key.EmailID == "" {
		return fmt.Errorf("%w: missing email id", ErrInvalidKey)
	}
	if key.Account == "" {
		return fmt.Errorf("%w: missing account", ErrInvalidKey)
	}
	return nil
}

// validateExpenses validates a slice of expenses.
func validateExpenses(expenses []model.Expense) error {
	if expenses == nil {
		return fmt.Errorf("%w: expenses", ErrNilParameter)
	}
	if len(expenses) == 0 {
		return fmt.Errorf("%w: expenses", ErrEmptySlice)
	}

	for i, exp := range expenses {
		if err := validateExpense(&exp); err != nil {
			return fmt.Errorf("expense at index %d: %w", i, err)
		}
	}
	return nil
}

// validateExpense validates a single expense.
func validateExpense(exp *model.Expense) error {
	if exp == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if exp.EmailID == "" {
		return fmt.Errorf("%w: missing email id", ErrInvalidExpense)
	}
	if exp.Account == "" {
		return fmt.Errorf("%w: missing account", ErrInvalidExpense)
	}
	if exp.InvoiceDate.IsZero() {
		return fmt.Errorf("%w: missing invoice date", ErrInvalidExpense)
	}
	return nil
}

// validateHistoryEntry validates a history entry before appending.
func validateHistoryEntry(entry *model.HistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if entry.EmailID == "" {
		return fmt.Errorf("%w: missing email id", ErrInvalidHistory)
	}
	if entry.Account == "" {
		return fmt.Errorf("%w: missing account", ErrInvalidHistory)
	}
	if entry.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidHistory)
	}
	switch entry.Trigger {
	case model.TriggerInitial,
		model.TriggerSituationChange,
		model.TriggerManual,
		model.TriggerFromStage,
		model.TriggerForce:
		// Valid trigger
	default:
		return fmt.Errorf("%w: unknown trigger %q", ErrInvalidHistory, entry.Trigger)
	}
	return nil
}
