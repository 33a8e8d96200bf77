// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	ErrNotFound = errors.New("not found")

	// Configuration errors. These indicate caller bugs and always fail fast.
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrOverlappingSituation = errors.New("overlapping situation intervals")
	ErrUnknownJurisdiction  = errors.New("unknown jurisdiction")
	ErrUnknownIncomeSource  = errors.New("unknown income source")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
