package store

import (
	"context"

	"evcharge-manager/internal/observability/metrics"
)

// Measured wraps a TableStore with read/write counters.
type Measured struct {
	inner TableStore
}

// NewMeasured decorates a store.
func NewMeasured(inner TableStore) *Measured {
	if inner == nil {
		return nil
	}
	return &Measured{inner: inner}
}

// Read delegates and counts.
func (m *Measured) Read(ctx context.Context, table Table) ([]Row, error) {
	rows, err := m.inner.Read(ctx, table)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncStoreRead(string(table), result)
	return rows, err
}

// Replace delegates and counts.
func (m *Measured) Replace(ctx context.Context, table Table, rows []Row) error {
	err := m.inner.Replace(ctx, table, rows)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncStoreWrite(string(table), result)
	return err
}
