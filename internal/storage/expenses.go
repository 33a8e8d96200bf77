package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/steuerflow/steuerflow/internal/common"
	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
)

// dbQuerier abstracts *sql.DB and *sql.Tx for the shared query helpers.
type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveExpenses inserts or refreshes expense rows. Classification and
// assignment fields are preserved on conflict; only the raw invoice fields
// are updated.
func (s *SQLiteStorage) SaveExpenses(ctx context.Context, expenses []model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpenses(expenses); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveExpensesTx(ctx, tx, expenses); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) saveExpensesTx(ctx context.Context, q dbQuerier, expenses []model.Expense) error {
	for i := range expenses {
		exp := &expenses[i]
		_, err := q.ExecContext(ctx, `
			INSERT INTO expenses (
				email_id, account, sender_domain, subject, snippet,
				invoice_date, amount_cents
			) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(email_id, account) DO UPDATE SET
				sender_domain = excluded.sender_domain,
				subject = excluded.subject,
				snippet = excluded.snippet,
				invoice_date = excluded.invoice_date,
				amount_cents = excluded.amount_cents
		`, exp.EmailID, exp.Account, exp.SenderDomain, exp.Subject, exp.Snippet,
			exp.InvoiceDate, exp.AmountCents)
		if err != nil {
			return fmt.Errorf("failed to save expense %s: %w", exp.EmailID, err)
		}
	}
	return nil
}

const expenseColumns = `
	email_id, account, sender_domain, subject, snippet,
	invoice_date, amount_cents, category, income_tax_percent, vat_recoverable,
	situation_hash, income_source_id, allocation_json, assignment_status,
	last_classified_at`

// GetExpense loads one expense row by key.
func (s *SQLiteStorage) GetExpense(ctx context.Context, key service.ExpenseKey) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return s.getExpenseTx(ctx, s.db, key)
}

func (s *SQLiteStorage) getExpenseTx(ctx context.Context, q dbQuerier, key service.ExpenseKey) (*model.Expense, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE email_id = ? AND account = ?
	`, key.EmailID, key.Account)

	exp, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: expense %s/%s", common.ErrNotFound, key.EmailID, key.Account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load expense: %w", err)
	}
	return exp, nil
}

// GetExpensesByAccount returns the account's expenses, optionally restricted
// to an invoice date range, ordered by invoice date.
func (s *SQLiteStorage) GetExpensesByAccount(ctx context.Context, account string, dateRange *service.DateRange) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(account, "account"); err != nil {
		return nil, err
	}
	return s.getExpensesByAccountTx(ctx, s.db, account, dateRange)
}

func (s *SQLiteStorage) getExpensesByAccountTx(ctx context.Context, q dbQuerier, account string, dateRange *service.DateRange) ([]model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE account = ?`
	args := []any{account}
	if dateRange != nil {
		if dateRange.End.Before(dateRange.Start) {
			return nil, fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, dateRange.Start, dateRange.End)
		}
		query += ` AND invoice_date >= ? AND invoice_date <= ?`
		args = append(args, dateRange.Start, dateRange.End)
	}
	query += ` ORDER BY invoice_date, email_id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *exp)
	}
	return expenses, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var exp model.Expense
	var senderDomain, subject, snippet, category, hash, sourceID, allocJSON sql.NullString
	var status sql.NullString
	var lastClassified sql.NullTime

	if err := row.Scan(
		&exp.EmailID, &exp.Account, &senderDomain, &subject, &snippet,
		&exp.InvoiceDate, &exp.AmountCents, &category, &exp.IncomeTaxPercent, &exp.VATRecoverable,
		&hash, &sourceID, &allocJSON, &status,
		&lastClassified,
	); err != nil {
		return nil, err
	}

	exp.SenderDomain = senderDomain.String
	exp.Subject = subject.String
	exp.Snippet = snippet.String
	exp.Category = category.String
	exp.SituationHash = hash.String
	exp.IncomeSourceID = sourceID.String
	exp.AssignmentStatus = model.AssignmentUnassigned
	if status.Valid && status.String != "" {
		exp.AssignmentStatus = model.AssignmentStatus(status.String)
	}
	if lastClassified.Valid {
		ts := lastClassified.Time
		exp.LastClassifiedAt = &ts
	}
	exp.Allocations = decodeAllocations(allocJSON.String, exp.EmailID)

	return &exp, nil
}

// decodeAllocations recovers from malformed persisted JSON by treating it as
// empty. Schema evolution makes bad rows expected; they must never crash the
// pipeline.
func decodeAllocations(raw, emailID string) []model.Allocation {
	if raw == "" {
		return nil
	}
	var allocs []model.Allocation
	if err := json.Unmarshal([]byte(raw), &allocs); err != nil {
		slog.Warn("Discarding malformed allocation JSON",
			"email_id", emailID,
			"error", err)
		return nil
	}
	return allocs
}

// ApplyClassification persists a classification result onto an expense row.
func (s *SQLiteStorage) ApplyClassification(ctx context.Context, key service.ExpenseKey, update service.ClassificationUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	return s.applyClassificationTx(ctx, s.db, key, update)
}

func (s *SQLiteStorage) applyClassificationTx(ctx context.Context, q dbQuerier, key service.ExpenseKey, update service.ClassificationUpdate) error {
	result, err := q.ExecContext(ctx, `
		UPDATE expenses SET
			situation_hash = ?,
			category = ?,
			income_tax_percent = ?,
			vat_recoverable = ?,
			last_classified_at = ?
		WHERE email_id = ? AND account = ?
	`, update.SituationHash, update.Category, update.IncomeTaxPercent,
		update.VATRecoverable, update.LastClassifiedAt, key.EmailID, key.Account)
	if err != nil {
		return fmt.Errorf("failed to apply classification: %w", err)
	}
	return requireRow(result, key)
}

// ApplyAllocation persists an allocation decision onto an expense row.
func (s *SQLiteStorage) ApplyAllocation(ctx context.Context, key service.ExpenseKey, update service.AllocationUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	return s.applyAllocationTx(ctx, s.db, key, update)
}

func (s *SQLiteStorage) applyAllocationTx(ctx context.Context, q dbQuerier, key service.ExpenseKey, update service.AllocationUpdate) error {
	allocJSON, err := json.Marshal(update.Allocations)
	if err != nil {
		return fmt.Errorf("failed to encode allocations: %w", err)
	}
	metaJSON, err := json.Marshal(newAllocationMetadata(update.AssignmentMetadata))
	if err != nil {
		return fmt.Errorf("failed to encode assignment metadata: %w", err)
	}

	result, err := q.ExecContext(ctx, `
		UPDATE expenses SET
			income_source_id = ?,
			allocation_json = ?,
			assignment_status = ?,
			assignment_metadata = ?
		WHERE email_id = ? AND account = ?
	`, update.IncomeSourceID, string(allocJSON), string(update.AssignmentStatus),
		string(metaJSON), key.EmailID, key.Account)
	if err != nil {
		return fmt.Errorf("failed to apply allocation: %w", err)
	}
	return requireRow(result, key)
}

// allocationMetadata is the persisted summary of an AllocationResult.
type allocationMetadata struct {
	Source       string   `json:"source"`
	Reason       string   `json:"reason"`
	Alternatives []string `json:"alternatives,omitempty"`
	RuleID       *int     `json:"rule_id,omitempty"`
	Confidence   float64  `json:"confidence"`
}

func newAllocationMetadata(result model.AllocationResult) allocationMetadata {
	return allocationMetadata{
		Source:       string(result.Source),
		Reason:       result.Reason,
		Alternatives: result.Alternatives,
		RuleID:       result.RuleID,
		Confidence:   result.Confidence,
	}
}

// ClearFingerprints clears the stored situation hash of every key in one
// transaction, so a partial failure leaves no expense half-marked.
func (s *SQLiteStorage) ClearFingerprints(ctx context.Context, keys []service.ExpenseKey) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.clearFingerprintsTx(ctx, tx, keys); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) clearFingerprintsTx(ctx context.Context, q dbQuerier, keys []service.ExpenseKey) error {
	for _, key := range keys {
		if err := validateKey(key); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE expenses SET situation_hash = NULL
			WHERE email_id = ? AND account = ?
		`, key.EmailID, key.Account); err != nil {
			return fmt.Errorf("failed to clear fingerprint for %s: %w", key.EmailID, err)
		}
	}
	return nil
}

// GetVendorStats aggregates the classified history of one vendor under one
// account for the anomaly detector.
func (s *SQLiteStorage) GetVendorStats(ctx context.Context, account, senderDomain string) (*service.VendorStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getVendorStatsTx(ctx, s.db, account, senderDomain)
}

func (s *SQLiteStorage) getVendorStatsTx(ctx context.Context, q dbQuerier, account, senderDomain string) (*service.VendorStats, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT amount_cents, category
		FROM expenses
		WHERE account = ? AND sender_domain = ? AND category IS NOT NULL AND category != ''
		ORDER BY last_classified_at
	`, account, senderDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &service.VendorStats{}
	for rows.Next() {
		var amount int64
		var category string
		if err := rows.Scan(&amount, &category); err != nil {
			return nil, fmt.Errorf("failed to scan vendor stats: %w", err)
		}
		stats.Amounts = append(stats.Amounts, amount)
		stats.LastCategory = category
		stats.SampleCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.SampleCount == 0 {
		return nil, fmt.Errorf("%w: no history for %s/%s", common.ErrNotFound, account, senderDomain)
	}
	return stats, nil
}

// requireRow turns a zero-row update into a not-found error: updating a
// non-existent expense indicates a caller bug.
func requireRow(result sql.Result, key service.ExpenseKey) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s/%s", common.ErrNotFound, key.EmailID, key.Account)
	}
	return nil
}
