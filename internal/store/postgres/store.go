package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"evcharge-manager/internal/store"
)

const defaultRowsTable = "table_rows"

// TableStore keeps logical tables in a single relation of ordered JSON rows.
// Replace deletes and reinserts the whole table inside one transaction, which
// preserves the no-partial-write contract of the spreadsheet backend.
type TableStore struct {
	db        *sql.DB
	rowsTable string
}

// Option configures the store.
type Option func(*TableStore)

// WithRowsTable overrides the backing relation name.
func WithRowsTable(name string) Option {
	return func(s *TableStore) {
		if name != "" {
			s.rowsTable = name
		}
	}
}

// NewTableStore constructs a store.
func NewTableStore(db *sql.DB, opts ...Option) (*TableStore, error) {
	if db == nil {
		return nil, errors.New("postgres store: nil db")
	}
	s := &TableStore{db: db, rowsTable: defaultRowsTable}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureSchema creates the backing relation when missing.
func (s *TableStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	table_name TEXT NOT NULL,
	pos        INT  NOT NULL,
	payload    JSONB NOT NULL,
	PRIMARY KEY (table_name, pos)
)`, s.rowsTable)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Read returns all rows of a table in stored order.
func (s *TableStore) Read(ctx context.Context, table store.Table) ([]store.Row, error) {
	query := fmt.Sprintf(`
SELECT payload
FROM %s
WHERE table_name = $1
ORDER BY pos ASC`, s.rowsTable)

	result, err := s.db.QueryContext(ctx, query, string(table))
	if err != nil {
		return nil, fmt.Errorf("postgres store: read %s: %w", table, err)
	}
	defer result.Close()

	var rows []store.Row
	for result.Next() {
		var payload []byte
		if err := result.Scan(&payload); err != nil {
			return nil, err
		}
		row := store.Row{}
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, fmt.Errorf("postgres store: decode row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, result.Err()
}

// Replace swaps the full contents of a table in one transaction.
func (s *TableStore) Replace(ctx context.Context, table store.Table, rows []store.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE table_name = $1", s.rowsTable)
	if _, err := tx.ExecContext(ctx, deleteQuery, string(table)); err != nil {
		return fmt.Errorf("postgres store: clear %s: %w", table, err)
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (table_name, pos, payload) VALUES ($1, $2, $3)", s.rowsTable)
	for i, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertQuery, string(table), i, payload); err != nil {
			return fmt.Errorf("postgres store: insert %s row %d: %w", table, i, err)
		}
	}
	return tx.Commit()
}
