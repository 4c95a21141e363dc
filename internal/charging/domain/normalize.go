package charging

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted on the Data column. Sheets written by this service
// use the first; hand-edited sheets tend to use the Italian short form.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// RawRecord is one untyped row of the Ricariche table.
type RawRecord struct {
	Date       string
	EnergyKWh  string
	Location   string
	DirectCost string
}

// NormalizeRecord parses and shapes one raw row. The month and year labels
// are always rederived from the date, never trusted from the sheet.
func NormalizeRecord(raw RawRecord) (ChargeRecord, error) {
	date, err := ParseDate(raw.Date)
	if err != nil {
		return ChargeRecord{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	energy, err := ParseDecimal(raw.EnergyKWh)
	if err != nil {
		return ChargeRecord{}, fmt.Errorf("%w: energy %q", ErrInvalidRecord, raw.EnergyKWh)
	}
	if energy <= 0 {
		return ChargeRecord{}, fmt.Errorf("%w: energy must be positive", ErrInvalidRecord)
	}

	record := ChargeRecord{
		Date:       date,
		EnergyKWh:  energy,
		MonthLabel: MonthLabelFor(date.Month()),
		YearLabel:  strconv.Itoa(date.Year()),
		Location:   NormalizeLocation(strings.TrimSpace(raw.Location)),
	}
	if strings.TrimSpace(raw.DirectCost) != "" {
		cost, err := ParseDecimal(raw.DirectCost)
		if err != nil || cost < 0 {
			return ChargeRecord{}, fmt.Errorf("%w: direct cost %q", ErrInvalidRecord, raw.DirectCost)
		}
		record.DirectCost = cost
	}
	return record, nil
}

// NormalizeRecords shapes all rows, failing on the first invalid one.
func NormalizeRecords(raws []RawRecord) ([]ChargeRecord, error) {
	records := make([]ChargeRecord, 0, len(raws))
	for i, raw := range raws {
		record, err := NormalizeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ParseDate parses a Data cell.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", raw)
}

// ParseDecimal parses a numeric cell, accepting the decimal comma found in
// Italian-locale sheets.
func ParseDecimal(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	value = strings.ReplaceAll(value, ",", ".")
	return strconv.ParseFloat(value, 64)
}
