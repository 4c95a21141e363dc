package memory

import (
	"context"
	"sync"

	"evcharge-manager/internal/store"
)

// TableStore is an in-memory table store used by tests and demos.
type TableStore struct {
	mu     sync.RWMutex
	tables map[store.Table][]store.Row

	// FailReads forces Read to return ErrReadFailed, for error-path tests.
	FailReads bool
}

// NewTableStore constructs an empty store.
func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[store.Table][]store.Row)}
}

// Read returns a copy of all rows of a table; missing tables read as empty.
func (s *TableStore) Read(ctx context.Context, table store.Table) ([]store.Row, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrReadFailed
	}
	return store.CloneRows(s.tables[table]), nil
}

// Replace swaps the full contents of a table.
func (s *TableStore) Replace(ctx context.Context, table store.Table, rows []store.Row) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = store.CloneRows(rows)
	return nil
}
