// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/steuerflow/steuerflow/internal/model"
)

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether date falls inside the range (inclusive).
func (r DateRange) Contains(date time.Time) bool {
	return !date.Before(r.Start) && !date.After(r.End)
}

// ExpenseKey identifies one expense row. Rows are keyed by the pair; the
// same email id may exist under multiple accounts.
type ExpenseKey struct {
	EmailID string
	Account string
}

// ClassificationUpdate is the explicit write contract for persisting a
// classification result onto an expense row. Enumerated fields instead of an
// open patch map keep the write checkable at compile time.
type ClassificationUpdate struct {
	LastClassifiedAt time.Time
	SituationHash    string
	Category         string
	IncomeTaxPercent int
	VATRecoverable   bool
}

// AllocationUpdate is the explicit write contract for persisting an
// allocation decision onto an expense row.
type AllocationUpdate struct {
	IncomeSourceID     string
	AssignmentStatus   model.AssignmentStatus
	Allocations        []model.Allocation
	AssignmentMetadata model.AllocationResult
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Expense operations
	SaveExpenses(ctx context.Context, expenses []model.Expense) error
	GetExpense(ctx context.Context, key ExpenseKey) (*model.Expense, error)
	GetExpensesByAccount(ctx context.Context, account string, dateRange *DateRange) ([]model.Expense, error)
	ApplyClassification(ctx context.Context, key ExpenseKey, update ClassificationUpdate) error
	ApplyAllocation(ctx context.Context, key ExpenseKey, update AllocationUpdate) error

	// ClearFingerprints marks expenses for reclassification by clearing
	// their stored situation hash. All keys are cleared in one transaction;
	// the operation is idempotent.
	ClearFingerprints(ctx context.Context, keys []ExpenseKey) error

	// History log (append-only)
	AppendHistory(ctx context.Context, entry *model.HistoryEntry) error
	GetHistory(ctx context.Context, key ExpenseKey) ([]model.HistoryEntry, error)

	// VendorStats supports the anomaly detector's historical checks.
	GetVendorStats(ctx context.Context, account, senderDomain string) (*VendorStats, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// VendorStats aggregates the classification history of one vendor under one
// account.
type VendorStats struct {
	LastCategory string
	Amounts      []int64
	SampleCount  int
}

// JurisdictionModule is the contract each jurisdiction implements. Modules
// are pure: the same inputs always produce the same corrections.
type JurisdictionModule interface {
	// Code returns the ISO jurisdiction code, e.g. "DE".
	Code() string
	// EnforceConstraints corrects a candidate classification against the
	// jurisdiction's rules. It must be idempotent: re-applying it to its own
	// output yields no further violations.
	EnforceConstraints(candidate Candidate, sit model.Situation) EnforcementResult
	// VATRecovery returns whether VAT is recoverable for a category under a
	// situation.
	VATRecovery(category string, sit model.Situation) bool
	// IncomeTaxPercent returns the deductible income-tax percent for a
	// category under a situation.
	IncomeTaxPercent(category string, sit model.Situation) int
	// PromptInstructions returns jurisdiction-specific guidance passed to
	// the external classifier.
	PromptInstructions(sit model.Situation) string
	// ValidateAllocations checks a proposed allocation set against
	// jurisdiction rules.
	ValidateAllocations(allocs []model.Allocation) error
}

// Candidate is a classification under legal review: the category plus its
// tax consequences.
type Candidate struct {
	Category         string
	IncomeTaxPercent int
	VATRecoverable   bool
}

// EnforcementResult is the outcome of applying legal constraints.
type EnforcementResult struct {
	Candidate   Candidate
	Violations  []model.Violation
	WasModified bool
}
