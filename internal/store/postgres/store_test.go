package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"evcharge-manager/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestStore(t *testing.T) *TableStore {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewTableStore(db, WithRowsTable("table_rows_test"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DROP TABLE IF EXISTS table_rows_test")
	})
	return s
}

func TestReplaceThenReadPostgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	input := []store.Row{
		{store.ColData: "2025-03-15", store.ColKWh: "10", store.ColMese: "Marzo", store.ColAnno: "2025"},
		{store.ColData: "2025-03-20", store.ColKWh: "8", store.ColMese: "Marzo", store.ColAnno: "2025"},
	}
	if err := s.Replace(ctx, store.TableCharges, input); err != nil {
		t.Fatalf("replace: %v", err)
	}

	rows, err := s.Read(ctx, store.TableCharges)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][store.ColData] != "2025-03-15" || rows[1][store.ColData] != "2025-03-20" {
		t.Fatalf("order not preserved: %v", rows)
	}
}

func TestReplaceShrinksTablePostgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Replace(ctx, store.TableTariffs, []store.Row{
		{store.ColMese: "Gennaio", store.ColAnno: "2025", store.ColPrezzo: "0.18"},
		{store.ColMese: "Febbraio", store.ColAnno: "2025", store.ColPrezzo: "0.19"},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.Replace(ctx, store.TableTariffs, nil); err != nil {
		t.Fatalf("replace empty: %v", err)
	}

	rows, err := s.Read(ctx, store.TableTariffs)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0 after empty replace", len(rows))
	}
}

func TestReadUnknownTablePostgres(t *testing.T) {
	s := openTestStore(t)
	rows, err := s.Read(context.Background(), store.Table("Sconosciuta"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}
