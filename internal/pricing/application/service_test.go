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
	pricing "evcharge-manager/internal/pricing/domain"
	"evcharge-manager/internal/store"
	"evcharge-manager/internal/store/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestTariffService(t *testing.T) (*TariffService, *memory.TableStore) {
	t.Helper()
	tables := memory.NewTableStore()
	clock := fixedClock{now: time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := NewTariffService(tables, nil, nil, clock, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, tables
}

func TestSetTariffReplacesByKey(t *testing.T) {
	svc, tables := newTestTariffService(t)
	ctx := context.Background()

	if _, err := svc.SetTariff(ctx, "Marzo", "2025", 0.20); err != nil {
		t.Fatalf("set tariff: %v", err)
	}
	if _, err := svc.SetTariff(ctx, "Marzo", "2025", 0.25); err != nil {
		t.Fatalf("set tariff: %v", err)
	}

	rows, _ := tables.Read(ctx, store.TableTariffs)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 after replace-by-key", len(rows))
	}
	if rows[0][store.ColPrezzo] != "0.25" {
		t.Fatalf("stored price = %q, want 0.25", rows[0][store.ColPrezzo])
	}
}

func TestSetTariffMatchesYearVariants(t *testing.T) {
	svc, tables := newTestTariffService(t)
	ctx := context.Background()

	// Pre-existing sheet row with a float-typed year.
	if err := tables.Replace(ctx, store.TableTariffs, []store.Row{
		{store.ColMese: "Marzo", store.ColAnno: "2025.0", store.ColPrezzo: "0.20"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.SetTariff(ctx, "Marzo", "2025", 0.30); err != nil {
		t.Fatalf("set tariff: %v", err)
	}
	rows, _ := tables.Read(ctx, store.TableTariffs)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1; the 2025.0 row should collide with 2025", len(rows))
	}
}

func TestSetTariffValidation(t *testing.T) {
	svc, _ := newTestTariffService(t)
	ctx := context.Background()

	if _, err := svc.SetTariff(ctx, "Smarch", "2025", 0.20); !errors.Is(err, pricing.ErrInvalidMonth) {
		t.Fatalf("err = %v, want ErrInvalidMonth", err)
	}
	if _, err := svc.SetTariff(ctx, "Marzo", "2025", -0.1); !errors.Is(err, pricing.ErrNegativePrice) {
		t.Fatalf("err = %v, want ErrNegativePrice", err)
	}
}

func TestSetTariffFallsBackToCurrentYear(t *testing.T) {
	svc, _ := newTestTariffService(t)
	entry, err := svc.SetTariff(context.Background(), "Marzo", "", 0.20)
	if err != nil {
		t.Fatalf("set tariff: %v", err)
	}
	if entry.YearLabel != "2026" {
		t.Fatalf("year = %q, want clock year 2026", entry.YearLabel)
	}
}

func TestSetFuelPriceReplacesByYear(t *testing.T) {
	svc, tables := newTestTariffService(t)
	ctx := context.Background()

	if _, err := svc.SetFuelPrice(ctx, "2025", 1.75); err != nil {
		t.Fatalf("set fuel price: %v", err)
	}
	if _, err := svc.SetFuelPrice(ctx, "2025", 1.82); err != nil {
		t.Fatalf("set fuel price: %v", err)
	}
	if _, err := svc.SetFuelPrice(ctx, "2024", 1.70); err != nil {
		t.Fatalf("set fuel price: %v", err)
	}

	rows, _ := tables.Read(ctx, store.TableFuelPrices)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	prices, err := svc.ListFuelPrices(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if prices["2025"] != 1.82 || prices["2024"] != 1.70 {
		t.Fatalf("prices = %v", prices)
	}
}

type failingAuditLogger struct{}

func (failingAuditLogger) Log(context.Context, audit.Entry) error {
	return errors.New("audit sink down")
}

func TestSetTariffSurvivesAuditFailure(t *testing.T) {
	tables := memory.NewTableStore()
	var logged bytes.Buffer
	clock := fixedClock{now: time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := NewTariffService(tables, failingAuditLogger{}, nil, clock, log.New(&logged, "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.SetTariff(context.Background(), "Marzo", "2025", 0.25); err != nil {
		t.Fatalf("set tariff must not fail on audit errors: %v", err)
	}
	rows, _ := tables.Read(context.Background(), store.TableTariffs)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !strings.Contains(logged.String(), "audit tariff.set failed") {
		t.Fatalf("audit failure not logged: %q", logged.String())
	}
}

func TestListTariffs(t *testing.T) {
	svc, _ := newTestTariffService(t)
	ctx := context.Background()

	if _, err := svc.SetTariff(ctx, "Gennaio", "2025", 0.18); err != nil {
		t.Fatalf("set tariff: %v", err)
	}
	tariffs, err := svc.ListTariffs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	key := pricing.TariffKey{MonthLabel: "Gennaio", YearLabel: "2025"}
	if tariffs[key] != 0.18 {
		t.Fatalf("tariffs = %v", tariffs)
	}
}
