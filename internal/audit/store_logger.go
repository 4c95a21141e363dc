package audit

import (
	"context"
	"errors"
	"time"

	"evcharge-manager/internal/store"
)

// StoreLogger appends audit entries to the Audit table of the backing store,
// using the same read-whole-table, replace-whole-table primitive as every
// other write in the system.
type StoreLogger struct {
	tables store.TableStore
}

// NewStoreLogger constructs a logger.
func NewStoreLogger(tables store.TableStore) *StoreLogger {
	if tables == nil {
		return nil
	}
	return &StoreLogger{tables: tables}
}

// Log appends one entry.
func (l *StoreLogger) Log(ctx context.Context, entry Entry) error {
	if l == nil || l.tables == nil {
		return errors.New("audit: nil store")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	rows, err := l.tables.Read(ctx, store.TableAudit)
	if err != nil {
		return err
	}
	rows = append(rows, store.Row{
		store.ColTimestamp: entry.Timestamp.Format(time.RFC3339),
		store.ColActor:     entry.Actor,
		store.ColAction:    entry.Action,
		store.ColDetail:    entry.Detail,
	})
	return l.tables.Replace(ctx, store.TableAudit, rows)
}
