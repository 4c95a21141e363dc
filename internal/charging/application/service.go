package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"evcharge-manager/internal/audit"
	charging "evcharge-manager/internal/charging/domain"
	"evcharge-manager/internal/store"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Invalidator drops memoized projection results after a write.
type Invalidator interface {
	Invalidate()
}

// NewCharge is a user submission. A zero Date means "today".
type NewCharge struct {
	Date       time.Time
	EnergyKWh  float64
	Location   charging.Location
	DirectCost float64
}

// ChargeLogService manages the append-only charge log.
type ChargeLogService struct {
	tables      store.TableStore
	auditLogger audit.Logger
	invalidator Invalidator
	clock       Clock
	logger      *log.Logger
}

// NewChargeLogService constructs the service. Audit logger, invalidator and
// logger are optional.
func NewChargeLogService(tables store.TableStore, auditLogger audit.Logger, invalidator Invalidator, clock Clock, logger *log.Logger) (*ChargeLogService, error) {
	if tables == nil {
		return nil, errors.New("charge log service: nil store")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ChargeLogService{tables: tables, auditLogger: auditLogger, invalidator: invalidator, clock: clock, logger: logger}, nil
}

// List reads and normalizes all charge records.
func (s *ChargeLogService) List(ctx context.Context) ([]charging.ChargeRecord, error) {
	rows, err := s.tables.Read(ctx, store.TableCharges)
	if err != nil {
		return nil, fmt.Errorf("charge log: read: %w", err)
	}
	return charging.NormalizeRecords(rawRecords(rows))
}

// Append validates and stores a new charge record at the end of the table.
func (s *ChargeLogService) Append(ctx context.Context, input NewCharge) (charging.ChargeRecord, error) {
	date := input.Date
	if date.IsZero() {
		date = s.clock.Now()
	}

	record, err := charging.NormalizeRecord(charging.RawRecord{
		Date:       date.Format("2006-01-02"),
		EnergyKWh:  formatFloat(input.EnergyKWh),
		Location:   string(input.Location),
		DirectCost: formatFloat(input.DirectCost),
	})
	if err != nil {
		return charging.ChargeRecord{}, err
	}

	rows, err := s.tables.Read(ctx, store.TableCharges)
	if err != nil {
		return charging.ChargeRecord{}, fmt.Errorf("charge log: read: %w", err)
	}
	rows = append(rows, rowFromRecord(record))
	if err := s.tables.Replace(ctx, store.TableCharges, rows); err != nil {
		return charging.ChargeRecord{}, fmt.Errorf("charge log: write: %w", err)
	}

	s.afterWrite(ctx, "charge.append", fmt.Sprintf("%s %s kWh (%s)", record.Date.Format("2006-01-02"), formatFloat(record.EnergyKWh), record.Location))
	return record, nil
}

// DeleteLast removes the most recently appended record and returns it.
// Deletion is positional: the last data row of the table goes, there is no
// record identifier to delete by.
func (s *ChargeLogService) DeleteLast(ctx context.Context) (charging.ChargeRecord, error) {
	rows, err := s.tables.Read(ctx, store.TableCharges)
	if err != nil {
		return charging.ChargeRecord{}, fmt.Errorf("charge log: read: %w", err)
	}
	if len(rows) == 0 {
		return charging.ChargeRecord{}, charging.ErrEmptyLog
	}

	last := rows[len(rows)-1]
	removed, err := charging.NormalizeRecord(rawRecord(last))
	if err != nil {
		// The stored row is malformed; remove it anyway and report what we can.
		removed = charging.ChargeRecord{}
	}

	if err := s.tables.Replace(ctx, store.TableCharges, rows[:len(rows)-1]); err != nil {
		return charging.ChargeRecord{}, fmt.Errorf("charge log: write: %w", err)
	}

	s.afterWrite(ctx, "charge.delete_last", fmt.Sprintf("%s %s kWh", last[store.ColData], last[store.ColKWh]))
	return removed, nil
}

func (s *ChargeLogService) afterWrite(ctx context.Context, action, detail string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	if s.auditLogger != nil {
		entry := audit.Entry{
			Timestamp: s.clock.Now(),
			Actor:     actorFromContext(ctx),
			Action:    action,
			Detail:    detail,
		}
		// Audit failures never fail the write that triggered them.
		if err := s.auditLogger.Log(ctx, entry); err != nil && s.logger != nil {
			s.logger.Printf("charge log: audit %s failed: %v", action, err)
		}
	}
}

func rawRecord(row store.Row) charging.RawRecord {
	return charging.RawRecord{
		Date:       row[store.ColData],
		EnergyKWh:  row[store.ColKWh],
		Location:   row[store.ColTipo],
		DirectCost: row[store.ColSpesaDiretta],
	}
}

func rawRecords(rows []store.Row) []charging.RawRecord {
	raws := make([]charging.RawRecord, len(rows))
	for i, row := range rows {
		raws[i] = rawRecord(row)
	}
	return raws
}

func rowFromRecord(record charging.ChargeRecord) store.Row {
	row := store.Row{
		store.ColData: record.Date.Format("2006-01-02"),
		store.ColKWh:  formatFloat(record.EnergyKWh),
		store.ColMese: record.MonthLabel,
		store.ColAnno: record.YearLabel,
		store.ColTipo: string(record.Location),
	}
	if record.DirectCost > 0 {
		row[store.ColSpesaDiretta] = formatFloat(record.DirectCost)
	} else {
		row[store.ColSpesaDiretta] = ""
	}
	return row
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
