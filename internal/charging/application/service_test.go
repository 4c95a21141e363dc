package application

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"evcharge-manager/internal/audit"
	charging "evcharge-manager/internal/charging/domain"
	"evcharge-manager/internal/store"
	"evcharge-manager/internal/store/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type countingInvalidator struct{ calls int }

func (i *countingInvalidator) Invalidate() { i.calls++ }

func newTestService(t *testing.T) (*ChargeLogService, *memory.TableStore, *countingInvalidator) {
	t.Helper()
	tables := memory.NewTableStore()
	invalidator := &countingInvalidator{}
	clock := fixedClock{now: time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)}
	svc, err := NewChargeLogService(tables, audit.NewStoreLogger(tables), invalidator, clock, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, tables, invalidator
}

func TestAppendStoresNormalizedRow(t *testing.T) {
	svc, tables, invalidator := newTestService(t)
	ctx := context.Background()

	record, err := svc.Append(ctx, NewCharge{EnergyKWh: 10.5})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if record.MonthLabel != "Marzo" || record.YearLabel != "2025" {
		t.Fatalf("got %s/%s, want Marzo/2025 from clock date", record.MonthLabel, record.YearLabel)
	}
	if record.Location != charging.LocationHome {
		t.Fatalf("location = %q, want default home", record.Location)
	}

	rows, err := tables.Read(ctx, store.TableCharges)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0][store.ColData] != "2025-03-15" || rows[0][store.ColKWh] != "10.5" {
		t.Fatalf("stored row = %v", rows[0])
	}
	if invalidator.calls != 1 {
		t.Fatalf("invalidate calls = %d, want 1", invalidator.calls)
	}
}

func TestAppendRejectsInvalidInput(t *testing.T) {
	svc, tables, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Append(ctx, NewCharge{EnergyKWh: 0}); !errors.Is(err, charging.ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
	rows, _ := tables.Read(ctx, store.TableCharges)
	if len(rows) != 0 {
		t.Fatalf("invalid input must not be stored, got %d rows", len(rows))
	}
}

func TestDeleteLastRemovesOneRow(t *testing.T) {
	svc, tables, invalidator := newTestService(t)
	ctx := context.Background()

	first, err := svc.Append(ctx, NewCharge{EnergyKWh: 8})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := svc.Append(ctx, NewCharge{EnergyKWh: 12, Location: charging.LocationPublic, DirectCost: 6.5})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	removed, err := svc.DeleteLast(ctx)
	if err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if removed.EnergyKWh != second.EnergyKWh || removed.DirectCost != second.DirectCost {
		t.Fatalf("removed %+v, want the second record", removed)
	}

	remaining, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].EnergyKWh != first.EnergyKWh {
		t.Fatalf("remaining = %+v, want only the first record", remaining)
	}
	rows, err := tables.Read(ctx, store.TableCharges)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("stored rows = %d, want 1", len(rows))
	}
	if invalidator.calls != 3 {
		t.Fatalf("invalidate calls = %d, want 3 (two appends, one delete)", invalidator.calls)
	}
}

func TestDeleteLastOnEmptyLog(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.DeleteLast(context.Background()); !errors.Is(err, charging.ErrEmptyLog) {
		t.Fatalf("err = %v, want ErrEmptyLog", err)
	}
}

func TestDeleteLastRemovesMalformedRow(t *testing.T) {
	svc, tables, _ := newTestService(t)
	ctx := context.Background()

	if err := tables.Replace(ctx, store.TableCharges, []store.Row{
		{store.ColData: "2025-01-01", store.ColKWh: "5"},
		{store.ColData: "garbage", store.ColKWh: "x"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.DeleteLast(ctx); err != nil {
		t.Fatalf("delete last: %v", err)
	}
	rows, _ := tables.Read(ctx, store.TableCharges)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 after removing the malformed tail", len(rows))
	}
}

func TestWritesAreAudited(t *testing.T) {
	svc, tables, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Append(ctx, NewCharge{EnergyKWh: 10}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := svc.DeleteLast(ctx); err != nil {
		t.Fatalf("delete last: %v", err)
	}

	entries, err := tables.Read(ctx, store.TableAudit)
	if err != nil {
		t.Fatalf("read audit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0][store.ColAction] != "charge.append" || entries[1][store.ColAction] != "charge.delete_last" {
		t.Fatalf("audit actions = %s, %s", entries[0][store.ColAction], entries[1][store.ColAction])
	}
	if entries[0][store.ColActor] != "local" {
		t.Fatalf("actor = %q, want local without auth context", entries[0][store.ColActor])
	}
}

type failingAuditLogger struct{}

func (failingAuditLogger) Log(context.Context, audit.Entry) error {
	return errors.New("audit sink down")
}

func TestAppendSurvivesAuditFailure(t *testing.T) {
	tables := memory.NewTableStore()
	var logged bytes.Buffer
	svc, err := NewChargeLogService(tables, failingAuditLogger{}, nil, fixedClock{now: time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)}, log.New(&logged, "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Append(context.Background(), NewCharge{EnergyKWh: 10}); err != nil {
		t.Fatalf("append must not fail on audit errors: %v", err)
	}
	rows, _ := tables.Read(context.Background(), store.TableCharges)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !strings.Contains(logged.String(), "audit charge.append failed") {
		t.Fatalf("audit failure not logged: %q", logged.String())
	}
}

func TestListPropagatesReadFailure(t *testing.T) {
	svc, tables, _ := newTestService(t)
	tables.FailReads = true
	if _, err := svc.List(context.Background()); !errors.Is(err, memory.ErrReadFailed) {
		t.Fatalf("err = %v, want ErrReadFailed", err)
	}
}
