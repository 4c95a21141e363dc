package store

import "context"

// Table identifies one logical table in the backing store. The names match
// the sheets of the original workbook and are part of the external contract.
type Table string

const (
	TableCharges    Table = "Ricariche"
	TableTariffs    Table = "Tariffe"
	TableFuelPrices Table = "Config"
	TableAudit      Table = "Audit"
)

// Column names, as they appear in the header row of each table.
const (
	ColData         = "Data"
	ColKWh          = "kWh"
	ColMese         = "Mese"
	ColAnno         = "Anno"
	ColTipo         = "Tipo"
	ColSpesaDiretta = "Spesa_Diretta"
	ColPrezzo       = "Prezzo"
	ColPrezzoBenz   = "Prezzo_Benzina"

	ColTimestamp = "Timestamp"
	ColActor     = "Actor"
	ColAction    = "Action"
	ColDetail    = "Detail"
)

// Columns lists the canonical column order per table. Backends write headers
// in this order; readers tolerate sheets missing trailing optional columns.
var Columns = map[Table][]string{
	TableCharges:    {ColData, ColKWh, ColMese, ColAnno, ColTipo, ColSpesaDiretta},
	TableTariffs:    {ColMese, ColAnno, ColPrezzo},
	TableFuelPrices: {ColAnno, ColPrezzoBenz},
	TableAudit:      {ColTimestamp, ColActor, ColAction, ColDetail},
}

// Row is one data row keyed by column name. Cells are raw strings exactly as
// stored; typing happens at the domain boundary.
type Row map[string]string

// TableStore reads and replaces whole tables. Replace is the only write
// primitive: callers read the current rows, build the new full table in
// memory and write it back. A missing table reads as empty, not as an error.
type TableStore interface {
	Read(ctx context.Context, table Table) ([]Row, error)
	Replace(ctx context.Context, table Table, rows []Row) error
}

// CloneRows deep-copies rows so callers can mutate the result freely.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
