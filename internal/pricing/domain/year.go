package pricing

import (
	"strconv"
	"strings"
	"time"
)

// YearLabel is a canonical four-digit year string used as a join key.
type YearLabel string

// CurrentYearLabel returns the label of now's year.
func CurrentYearLabel(now time.Time) YearLabel {
	return YearLabel(strconv.Itoa(now.Year()))
}

// ParseYearLabel canonicalizes a raw Anno cell. Spreadsheet cells arrive as
// "2025", "2025.0" or "2025,0" depending on how the sheet typed the column;
// all of them must collide on the same key. Missing or non-numeric values
// fall back to the current year, which also covers the oldest schema that had
// no Anno column at all.
func ParseYearLabel(raw string, now time.Time) YearLabel {
	value := strings.TrimSpace(raw)
	if value == "" {
		return CurrentYearLabel(now)
	}
	value = strings.ReplaceAll(value, ",", ".")
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return CurrentYearLabel(now)
	}
	year := int(parsed)
	if float64(year) != parsed || year < 1000 || year > 9999 {
		return CurrentYearLabel(now)
	}
	return YearLabel(strconv.Itoa(year))
}
