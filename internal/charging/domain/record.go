package charging

import "time"

// Location tells where a charge happened. Home charges are priced by the
// monthly tariff; public-station charges may carry a directly paid amount.
type Location string

const (
	LocationHome   Location = "Casa"
	LocationPublic Location = "Colonnina"
)

// NormalizeLocation maps a raw Tipo cell to a Location. Empty and unknown
// values default to home, matching the oldest sheets that had no Tipo column.
func NormalizeLocation(raw string) Location {
	switch raw {
	case string(LocationPublic), "colonnina", "public_station", "public":
		return LocationPublic
	default:
		return LocationHome
	}
}

// ChargeRecord is one charging event. Records are append-only; the only
// delete supported is removing the most recently appended row.
type ChargeRecord struct {
	Date       time.Time
	EnergyKWh  float64
	MonthLabel string
	YearLabel  string
	Location   Location
	DirectCost float64
}
