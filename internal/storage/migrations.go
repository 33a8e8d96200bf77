package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS expenses (
					email_id TEXT NOT NULL,
					account TEXT NOT NULL,
					sender_domain TEXT,
					subject TEXT,
					snippet TEXT,
					invoice_date DATETIME NOT NULL,
					amount_cents INTEGER NOT NULL DEFAULT 0,
					category TEXT,
					income_tax_percent INTEGER NOT NULL DEFAULT 0,
					vat_recoverable INTEGER NOT NULL DEFAULT 0,
					situation_hash TEXT,
					income_source_id TEXT,
					allocation_json TEXT,
					assignment_status TEXT NOT NULL DEFAULT 'UNASSIGNED',
					assignment_metadata TEXT,
					last_classified_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (email_id, account)
				)`,
				`CREATE INDEX idx_expenses_invoice_date ON expenses(invoice_date)`,
				`CREATE INDEX idx_expenses_sender_domain ON expenses(sender_domain)`,
				`CREATE INDEX idx_expenses_situation_hash ON expenses(situation_hash)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add classification history for auditing",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS classification_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					email_id TEXT NOT NULL,
					account TEXT NOT NULL,
					classified_at DATETIME NOT NULL,
					situation_hash TEXT,
					situation_id INTEGER,
					category TEXT NOT NULL,
					income_tax_percent INTEGER NOT NULL DEFAULT 0,
					vat_recoverable INTEGER NOT NULL DEFAULT 0,
					income_source_id TEXT,
					trigger_reason TEXT NOT NULL,
					run_id TEXT
				)`,
				`CREATE INDEX idx_history_expense ON classification_history(email_id, account)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Composite index for account scans",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_expenses_account_date ON expenses(account, invoice_date)`)
			return err
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_versions (version, description) VALUES (?, ?)`,
			migration.Version, migration.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
