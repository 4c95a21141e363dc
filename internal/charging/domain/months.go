package charging

import "time"

// MonthLabels holds the twelve Italian month names in calendar order. The
// labels are stored as-is in the Mese column and double as the canonical
// ordering for monthly aggregation.
var MonthLabels = [12]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// MonthLabelFor returns the label for a calendar month.
func MonthLabelFor(month time.Month) string {
	return MonthLabels[int(month)-1]
}

// MonthOrdinal returns the 1-based calendar position of a label.
func MonthOrdinal(label string) (int, bool) {
	for i, name := range MonthLabels {
		if name == label {
			return i + 1, true
		}
	}
	return 0, false
}

// IsMonthLabel reports whether label is one of the twelve canonical names.
func IsMonthLabel(label string) bool {
	_, ok := MonthOrdinal(label)
	return ok
}
