package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"evcharge-manager/internal/audit"
	"evcharge-manager/internal/auth"
	charging "evcharge-manager/internal/charging/domain"
	pricing "evcharge-manager/internal/pricing/domain"
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

// TariffService manages the tariff and fuel price tables. Updates replace by
// key: the old row for the same month/year is filtered out and the new row
// appended, so each key has at most one entry and the latest write wins.
type TariffService struct {
	tables      store.TableStore
	auditLogger audit.Logger
	invalidator Invalidator
	clock       Clock
	logger      *log.Logger
}

// NewTariffService constructs the service. Audit logger, invalidator and
// logger are optional.
func NewTariffService(tables store.TableStore, auditLogger audit.Logger, invalidator Invalidator, clock Clock, logger *log.Logger) (*TariffService, error) {
	if tables == nil {
		return nil, errors.New("tariff service: nil store")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TariffService{tables: tables, auditLogger: auditLogger, invalidator: invalidator, clock: clock, logger: logger}, nil
}

// ListTariffs returns the resolved (month, year) → price mapping.
func (s *TariffService) ListTariffs(ctx context.Context) (map[pricing.TariffKey]float64, error) {
	rows, err := s.tables.Read(ctx, store.TableTariffs)
	if err != nil {
		return nil, fmt.Errorf("tariffs: read: %w", err)
	}
	return pricing.ResolveTariffs(rawTariffs(rows), s.clock.Now()), nil
}

// ListFuelPrices returns the resolved year → price-per-liter mapping.
func (s *TariffService) ListFuelPrices(ctx context.Context) (map[pricing.YearLabel]float64, error) {
	rows, err := s.tables.Read(ctx, store.TableFuelPrices)
	if err != nil {
		return nil, fmt.Errorf("fuel prices: read: %w", err)
	}
	return pricing.ResolveFuelPrices(rawFuelPrices(rows), s.clock.Now()), nil
}

// SetTariff replaces the tariff for a (month, year) key.
func (s *TariffService) SetTariff(ctx context.Context, monthLabel, rawYear string, price float64) (pricing.TariffEntry, error) {
	if !charging.IsMonthLabel(monthLabel) {
		return pricing.TariffEntry{}, fmt.Errorf("%w: %q", pricing.ErrInvalidMonth, monthLabel)
	}
	if price < 0 {
		return pricing.TariffEntry{}, pricing.ErrNegativePrice
	}
	year := pricing.ParseYearLabel(rawYear, s.clock.Now())

	rows, err := s.tables.Read(ctx, store.TableTariffs)
	if err != nil {
		return pricing.TariffEntry{}, fmt.Errorf("tariffs: read: %w", err)
	}

	kept := rows[:0]
	for _, row := range rows {
		sameKey := row[store.ColMese] == monthLabel &&
			pricing.ParseYearLabel(row[store.ColAnno], s.clock.Now()) == year
		if !sameKey {
			kept = append(kept, row)
		}
	}
	kept = append(kept, store.Row{
		store.ColMese:   monthLabel,
		store.ColAnno:   string(year),
		store.ColPrezzo: formatFloat(price),
	})
	if err := s.tables.Replace(ctx, store.TableTariffs, kept); err != nil {
		return pricing.TariffEntry{}, fmt.Errorf("tariffs: write: %w", err)
	}

	s.afterWrite(ctx, "tariff.set", fmt.Sprintf("%s %s = %s EUR/kWh", monthLabel, year, formatFloat(price)))
	return pricing.TariffEntry{MonthLabel: monthLabel, YearLabel: year, PricePerKWh: price}, nil
}

// SetFuelPrice replaces the reference fuel price for a year.
func (s *TariffService) SetFuelPrice(ctx context.Context, rawYear string, price float64) (pricing.FuelPrice, error) {
	if price < 0 {
		return pricing.FuelPrice{}, pricing.ErrNegativePrice
	}
	year := pricing.ParseYearLabel(rawYear, s.clock.Now())

	rows, err := s.tables.Read(ctx, store.TableFuelPrices)
	if err != nil {
		return pricing.FuelPrice{}, fmt.Errorf("fuel prices: read: %w", err)
	}

	kept := rows[:0]
	for _, row := range rows {
		if pricing.ParseYearLabel(row[store.ColAnno], s.clock.Now()) != year {
			kept = append(kept, row)
		}
	}
	kept = append(kept, store.Row{
		store.ColAnno:       string(year),
		store.ColPrezzoBenz: formatFloat(price),
	})
	if err := s.tables.Replace(ctx, store.TableFuelPrices, kept); err != nil {
		return pricing.FuelPrice{}, fmt.Errorf("fuel prices: write: %w", err)
	}

	s.afterWrite(ctx, "fuel_price.set", fmt.Sprintf("%s = %s EUR/L", year, formatFloat(price)))
	return pricing.FuelPrice{YearLabel: year, PricePerLiter: price}, nil
}

func (s *TariffService) afterWrite(ctx context.Context, action, detail string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	if s.auditLogger != nil {
		actor := auth.SubjectFromContext(ctx)
		if actor == "" {
			actor = "local"
		}
		entry := audit.Entry{
			Timestamp: s.clock.Now(),
			Actor:     actor,
			Action:    action,
			Detail:    detail,
		}
		// Audit failures never fail the write that triggered them.
		if err := s.auditLogger.Log(ctx, entry); err != nil && s.logger != nil {
			s.logger.Printf("tariffs: audit %s failed: %v", action, err)
		}
	}
}

func rawTariffs(rows []store.Row) []pricing.RawTariff {
	raws := make([]pricing.RawTariff, len(rows))
	for i, row := range rows {
		raws[i] = pricing.RawTariff{
			MonthLabel: row[store.ColMese],
			YearLabel:  row[store.ColAnno],
			Price:      row[store.ColPrezzo],
		}
	}
	return raws
}

func rawFuelPrices(rows []store.Row) []pricing.RawFuelPrice {
	raws := make([]pricing.RawFuelPrice, len(rows))
	for i, row := range rows {
		raws[i] = pricing.RawFuelPrice{
			YearLabel: row[store.ColAnno],
			Price:     row[store.ColPrezzoBenz],
		}
	}
	return raws
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
