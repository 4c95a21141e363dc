package excel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"evcharge-manager/internal/store"
)

// TableStore keeps every table as one sheet of an xlsx workbook on disk.
// It is the default backend: the workbook stays readable by any spreadsheet
// application, which is the point of the store.
type TableStore struct {
	mu   sync.Mutex
	path string
}

// NewTableStore constructs a store over the workbook at path. The file is
// created lazily on first write.
func NewTableStore(path string) (*TableStore, error) {
	if path == "" {
		return nil, errors.New("excel store: empty path")
	}
	return &TableStore{path: path}, nil
}

// Read returns all data rows of a sheet, keyed by its header row. A missing
// workbook or sheet reads as empty.
func (s *TableStore) Read(ctx context.Context, table store.Table) ([]store.Row, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.open()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("excel store: open %s: %w", s.path, err)
	}
	defer file.Close()

	raw, err := file.GetRows(string(table))
	if err != nil {
		// Unknown sheet means the table was never written.
		return nil, nil
	}
	if len(raw) < 2 {
		return nil, nil
	}

	header := raw[0]
	rows := make([]store.Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		if isBlank(cells) {
			continue
		}
		row := make(store.Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Replace rewrites the whole sheet: canonical header first, then one row per
// entry in input order.
func (s *TableStore) Replace(ctx context.Context, table store.Table, rows []store.Row) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	columns, ok := store.Columns[table]
	if !ok {
		return fmt.Errorf("excel store: unknown table %q", table)
	}

	file, err := s.open()
	created := false
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("excel store: open %s: %w", s.path, err)
		}
		file = excelize.NewFile()
		created = true
	}
	defer file.Close()

	// The new contents go to a swap sheet first. Writing in place would
	// leave trailing rows behind on a shrink, and the old sheet cannot be
	// deleted up front: excelize refuses to drop a workbook's last sheet.
	sheet := string(table)
	swap := sheet + "_swap"
	if _, err := file.NewSheet(swap); err != nil {
		return fmt.Errorf("excel store: sheet %s: %w", swap, err)
	}

	header := make([]interface{}, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := file.SetSheetRow(swap, "A1", &header); err != nil {
		return fmt.Errorf("excel store: write header: %w", err)
	}
	for i, row := range rows {
		cells := make([]interface{}, len(columns))
		for j, name := range columns {
			cells[j] = row[name]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(swap, cell, &cells); err != nil {
			return fmt.Errorf("excel store: write row %d: %w", i+2, err)
		}
	}

	if index, err := file.GetSheetIndex(sheet); err == nil && index != -1 {
		if err := file.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("excel store: drop %s: %w", sheet, err)
		}
	}
	if err := file.SetSheetName(swap, sheet); err != nil {
		return fmt.Errorf("excel store: rename %s: %w", swap, err)
	}
	if created {
		// Drop the default sheet so the workbook only carries real tables.
		_ = file.DeleteSheet("Sheet1")
	}

	if err := file.SaveAs(s.path); err != nil {
		return fmt.Errorf("excel store: save %s: %w", s.path, err)
	}
	return nil
}

func (s *TableStore) open() (*excelize.File, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, err
	}
	return excelize.OpenFile(s.path)
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}
