package situation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
)

// ReclassifyReason explains why an expense needs another classification run.
type ReclassifyReason string

// Reclassification reasons.
const (
	// ReasonNoCoverage: the situation that covered the expense before was
	// removed or shrunk; no situation covers its date now.
	ReasonNoCoverage ReclassifyReason = "no_situation_coverage"
	// ReasonNeverClassified: the expense has no stored fingerprint.
	ReasonNeverClassified ReclassifyReason = "never_classified"
	// ReasonSituationChanged: the stored fingerprint differs from the one
	// computed against the current configuration.
	ReasonSituationChanged ReclassifyReason = "situation_changed"
)

// ReclassifyFlag marks one expense as needing reclassification.
type ReclassifyFlag struct {
	InvoiceDate       time.Time
	EmailID           string
	Account           string
	StoredFingerprint string
	NewFingerprint    string
	Reason            ReclassifyReason
}

// DetectReclassification compares each expense's stored fingerprint against
// the current snapshot. Pure; the caller supplies the expense population.
func DetectReclassification(expenses []model.Expense, snap *Snapshot) []ReclassifyFlag {
	var flags []ReclassifyFlag

	for _, exp := range expenses {
		current, covered := FingerprintForDate(snap, exp.InvoiceDate)

		if !covered {
			// An expense that never had coverage and was never classified is
			// simply outside the configured period; nothing to redo.
			if exp.SituationHash != "" {
				flags = append(flags, ReclassifyFlag{
					EmailID:           exp.EmailID,
					Account:           exp.Account,
					InvoiceDate:       exp.InvoiceDate,
					StoredFingerprint: exp.SituationHash,
					Reason:            ReasonNoCoverage,
				})
			}
			continue
		}

		switch {
		case exp.SituationHash == "":
			flags = append(flags, ReclassifyFlag{
				EmailID:        exp.EmailID,
				Account:        exp.Account,
				InvoiceDate:    exp.InvoiceDate,
				NewFingerprint: current,
				Reason:         ReasonNeverClassified,
			})
		case exp.SituationHash != current:
			flags = append(flags, ReclassifyFlag{
				EmailID:           exp.EmailID,
				Account:           exp.Account,
				InvoiceDate:       exp.InvoiceDate,
				StoredFingerprint: exp.SituationHash,
				NewFingerprint:    current,
				Reason:            ReasonSituationChanged,
			})
		}
	}

	return flags
}

// ReclassifySummary aggregates a detection run for reporting.
type ReclassifySummary struct {
	ByReason map[ReclassifyReason]int
	From     time.Time
	To       time.Time
	Total    int
}

// Summarize counts flags by reason and computes the affected date range.
func Summarize(flags []ReclassifyFlag) ReclassifySummary {
	summary := ReclassifySummary{
		ByReason: make(map[ReclassifyReason]int),
		Total:    len(flags),
	}
	for i, f := range flags {
		summary.ByReason[f.Reason]++
		if i == 0 || f.InvoiceDate.Before(summary.From) {
			summary.From = f.InvoiceDate
		}
		if i == 0 || f.InvoiceDate.After(summary.To) {
			summary.To = f.InvoiceDate
		}
	}
	return summary
}

// Detector runs drift detection against the stored expense population.
type Detector struct {
	storage service.Storage
}

// NewDetector creates a detector backed by the given storage.
func NewDetector(storage service.Storage) *Detector {
	return &Detector{storage: storage}
}

// Detect loads the account's expenses and flags the ones whose stored
// fingerprint no longer matches the snapshot.
func (d *Detector) Detect(ctx context.Context, account string, snap *Snapshot, dateRange *service.DateRange) ([]ReclassifyFlag, error) {
	expenses, err := d.storage.GetExpensesByAccount(ctx, account, dateRange)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	flags := DetectReclassification(expenses, snap)

	slog.Info("Reclassification detection complete",
		"account", account,
		"expenses", len(expenses),
		"flagged", len(flags))

	return flags, nil
}

// Mark clears the stored fingerprints of all flagged expenses in a single
// transaction, so the next classification run treats them as never
// classified. Clearing twice has the same effect as once.
func (d *Detector) Mark(ctx context.Context, flags []ReclassifyFlag) error {
	if len(flags) == 0 {
		return nil
	}

	keys := make([]service.ExpenseKey, len(flags))
	for i, f := range flags {
		keys[i] = service.ExpenseKey{EmailID: f.EmailID, Account: f.Account}
	}

	if err := d.storage.ClearFingerprints(ctx, keys); err != nil {
		return fmt.Errorf("failed to clear fingerprints: %w", err)
	}

	slog.Info("Marked expenses for reclassification", "count", len(keys))
	return nil
}
