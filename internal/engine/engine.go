package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/steuerflow/steuerflow/internal/allocation"
	"github.com/steuerflow/steuerflow/internal/common"
	"github.com/steuerflow/steuerflow/internal/legal"
	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
	"github.com/steuerflow/steuerflow/internal/situation"
	"github.com/steuerflow/steuerflow/internal/vendor"
)

// Engine orchestrates classification and allocation of expenses: resolve the
// situation, validate the external suggestion, allocate to income sources,
// persist the result, and append to the history log.
type Engine struct {
	storage  service.Storage
	snapshot *situation.Snapshot
	registry *legal.Registry
	kb       *vendor.KnowledgeBase
	alloc    allocation.Config
	opts     Options
}

// Config holds configuration options for the engine.
type Config struct {
	AnomalyDetection bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{AnomalyDetection: true}
}

// New creates an engine with the default configuration.
func New(storage service.Storage, snap *situation.Snapshot, registry *legal.Registry, kb *vendor.KnowledgeBase, alloc allocation.Config) *Engine {
	return NewWithConfig(storage, snap, registry, kb, alloc, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(storage service.Storage, snap *situation.Snapshot, registry *legal.Registry, kb *vendor.KnowledgeBase, alloc allocation.Config, config Config) *Engine {
	return &Engine{
		storage:  storage,
		snapshot: snap,
		registry: registry,
		kb:       kb,
		alloc:    alloc,
		opts:     Options{AnomalyDetection: config.AnomalyDetection},
	}
}

// Outcome bundles the results of one classification run.
type Outcome struct {
	Classification model.ValidatedClassification
	Allocation     model.AllocationResult
	SituationHash  string
	Covered        bool
}

// ClassifyExpense runs the full pipeline for one expense and persists the
// outcome. An uncovered invoice date is a valid terminal state: nothing is
// persisted and Outcome.Covered is false.
func (e *Engine) ClassifyExpense(ctx context.Context, key service.ExpenseKey, sugg model.Suggestion, trigger model.ClassificationTrigger) (*Outcome, error) {
	expense, err := e.storage.GetExpense(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense: %w", err)
	}

	sitCtx, covered := e.snapshot.ContextForDate(expense.InvoiceDate)
	if !covered {
		slog.Info("No situation covers invoice date",
			"email_id", key.EmailID,
			"invoice_date", expense.InvoiceDate.Format("2006-01-02"))
		return &Outcome{Covered: false}, nil
	}

	jur, err := e.registry.Lookup(sitCtx.Situation.Jurisdiction)
	if err != nil {
		return nil, err
	}

	var stats *service.VendorStats
	if e.opts.AnomalyDetection {
		stats, err = e.storage.GetVendorStats(ctx, expense.Account, expense.SenderDomain)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("failed to load vendor stats: %w", err)
		}
	}

	vc := ValidateClassification(*expense, sugg, sitCtx, jur, e.kb, stats, e.opts)
	hash := situation.ComputeFingerprint(sitCtx)

	result := allocation.Allocate(e.alloc, allocation.Input{
		Expense:           *expense,
		Category:          vc.Category,
		SuggestedSourceID: sugg.SuggestedSourceID,
	})

	// A source-level percent override supersedes the situation default once
	// the expense is routed to that source.
	if primary, ok := model.PrimaryAllocation(result.Allocations); ok {
		if src, found := e.snapshot.Source(primary.SourceID); found {
			if pct, has := src.PercentOverride(vc.Category); has {
				vc.IncomeTaxPercent = pct
			}
		}
	}

	if err := e.persist(ctx, key, vc, result, hash, sitCtx.Situation.ID, trigger); err != nil {
		return nil, err
	}

	slog.Info("Classified expense",
		"email_id", key.EmailID,
		"category", vc.Category,
		"confidence", vc.Confidence,
		"needs_review", vc.NeedsReview,
		"allocation", allocation.SummarizeResult(result, expense.AmountCents))

	return &Outcome{
		Classification: vc,
		Allocation:     result,
		SituationHash:  hash,
		Covered:        true,
	}, nil
}

func (e *Engine) persist(
	ctx context.Context,
	key service.ExpenseKey,
	vc model.ValidatedClassification,
	result model.AllocationResult,
	hash string,
	situationID int,
	trigger model.ClassificationTrigger,
) error {
	now := time.Now()

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.ApplyClassification(ctx, key, service.ClassificationUpdate{
		SituationHash:    hash,
		Category:         vc.Category,
		IncomeTaxPercent: vc.IncomeTaxPercent,
		VATRecoverable:   vc.VATRecoverable,
		LastClassifiedAt: now,
	}); err != nil {
		return fmt.Errorf("failed to persist classification: %w", err)
	}

	// A review-needed allocation leaves the assignment untouched except for
	// status; a decided one records the allocation set.
	update := service.AllocationUpdate{
		AssignmentStatus:   model.AssignmentSuggested,
		Allocations:        result.Allocations,
		AssignmentMetadata: result,
	}
	if result.Source == model.SourceManualOverride {
		update.AssignmentStatus = model.AssignmentConfirmed
	}
	if primary, ok := model.PrimaryAllocation(result.Allocations); ok {
		update.IncomeSourceID = primary.SourceID
	} else {
		update.AssignmentStatus = model.AssignmentUnassigned
	}
	if err := tx.ApplyAllocation(ctx, key, update); err != nil {
		return fmt.Errorf("failed to persist allocation: %w", err)
	}

	if err := tx.AppendHistory(ctx, &model.HistoryEntry{
		EmailID:          key.EmailID,
		Account:          key.Account,
		ClassifiedAt:     now,
		SituationHash:    hash,
		SituationID:      situationID,
		Category:         vc.Category,
		IncomeTaxPercent: vc.IncomeTaxPercent,
		VATRecoverable:   vc.VATRecoverable,
		SourceID:         update.IncomeSourceID,
		Trigger:          trigger,
		RunID:            vc.RunID,
	}); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit classification: %w", err)
	}
	return nil
}
