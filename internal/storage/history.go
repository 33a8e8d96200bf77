package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
)

// AppendHistory appends one row to the classification history log. The log
// is append-only: there is no update or delete path, by design of the audit
// trail.
func (s *SQLiteStorage) AppendHistory(ctx context.Context, entry *model.HistoryEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateHistoryEntry(entry); err != nil {
		return err
	}
	return s.appendHistoryTx(ctx, s.db, entry)
}

func (s *SQLiteStorage) appendHistoryTx(ctx context.Context, q dbQuerier, entry *model.HistoryEntry) error {
	if entry.ClassifiedAt.IsZero() {
		entry.ClassifiedAt = time.Now()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO classification_history (
			email_id, account, classified_at, situation_hash, situation_id,
			category, income_tax_percent, vat_recoverable, income_source_id,
			trigger_reason, run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.EmailID, entry.Account, entry.ClassifiedAt, entry.SituationHash,
		entry.SituationID, entry.Category, entry.IncomeTaxPercent,
		entry.VATRecoverable, entry.SourceID, string(entry.Trigger), entry.RunID)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// GetHistory returns the classification history of one expense,
// newest-first.
func (s *SQLiteStorage) GetHistory(ctx context.Context, key service.ExpenseKey) ([]model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return s.getHistoryTx(ctx, s.db, key)
}

func (s *SQLiteStorage) getHistoryTx(ctx context.Context, q dbQuerier, key service.ExpenseKey) ([]model.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, email_id, account, classified_at, situation_hash,
			situation_id, category, income_tax_percent, vat_recoverable,
			income_source_id, trigger_reason, run_id
		FROM classification_history
		WHERE email_id = ? AND account = ?
		ORDER BY classified_at DESC, id DESC
	`, key.EmailID, key.Account)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.HistoryEntry
	for rows.Next() {
		var entry model.HistoryEntry
		var hash, sourceID, trigger, runID sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.EmailID, &entry.Account, &entry.ClassifiedAt,
			&hash, &entry.SituationID, &entry.Category,
			&entry.IncomeTaxPercent, &entry.VATRecoverable,
			&sourceID, &trigger, &runID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.SituationHash = hash.String
		entry.SourceID = sourceID.String
		entry.Trigger = model.ClassificationTrigger(trigger.String)
		entry.RunID = runID.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
