package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"sync"
	"time"

	analytics "evcharge-manager/internal/analytics/domain"
	charging "evcharge-manager/internal/charging/domain"
	"evcharge-manager/internal/observability/metrics"
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

// Result carries one full projection.
type Result struct {
	Derived []analytics.DerivedRecord
	// StaleStore is set when a table read failed and the projection ran
	// over empty tables instead of crashing.
	StaleStore bool
}

// ProjectionService reads the three tables, normalizes and resolves them and
// projects cost/savings. The computed result is memoized keyed by a digest of
// the raw table contents; any write path calls Invalidate so the next read
// recomputes.
type ProjectionService struct {
	tables     store.TableStore
	efficiency analytics.EfficiencyConfig
	backupFuel float64
	clock      Clock
	logger     *log.Logger

	mu       sync.Mutex
	cacheKey string
	cached   Result
}

// NewProjectionService constructs the service.
func NewProjectionService(tables store.TableStore, efficiency analytics.EfficiencyConfig, backupFuel float64, clock Clock, logger *log.Logger) (*ProjectionService, error) {
	if tables == nil {
		return nil, errors.New("projection service: nil store")
	}
	if err := efficiency.Validate(); err != nil {
		return nil, err
	}
	if backupFuel <= 0 {
		return nil, errors.New("projection service: backup fuel price must be positive")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProjectionService{
		tables:     tables,
		efficiency: efficiency,
		backupFuel: backupFuel,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Invalidate drops the memoized projection.
func (s *ProjectionService) Invalidate() {
	s.mu.Lock()
	s.cacheKey = ""
	s.cached = Result{}
	s.mu.Unlock()
}

// Derived returns the full projection, recomputing only when the table
// contents changed since the last call.
func (s *ProjectionService) Derived(ctx context.Context) (Result, error) {
	start := s.clock.Now()

	chargeRows, stale1 := s.readTable(ctx, store.TableCharges)
	tariffRows, stale2 := s.readTable(ctx, store.TableTariffs)
	fuelRows, stale3 := s.readTable(ctx, store.TableFuelPrices)
	stale := stale1 || stale2 || stale3

	key := contentDigest(chargeRows, tariffRows, fuelRows)
	s.mu.Lock()
	if !stale && s.cacheKey == key {
		result := Result{Derived: cloneDerived(s.cached.Derived)}
		s.mu.Unlock()
		metrics.IncProjectionCacheHit()
		return result, nil
	}
	s.mu.Unlock()

	records, err := charging.NormalizeRecords(chargingRaws(chargeRows))
	if err != nil {
		metrics.ObserveProjection(metrics.ResultError, time.Since(start))
		return Result{}, err
	}
	now := s.clock.Now()
	tariffs := pricing.ResolveTariffs(tariffRaws(tariffRows), now)
	fuelPrices := pricing.ResolveFuelPrices(fuelRaws(fuelRows), now)

	derived := analytics.Project(records, tariffs, fuelPrices, s.efficiency, s.backupFuel)
	result := Result{Derived: derived, StaleStore: stale}

	if !stale {
		s.mu.Lock()
		s.cacheKey = key
		s.cached = Result{Derived: cloneDerived(derived)}
		s.mu.Unlock()
	}
	metrics.ObserveProjection(metrics.ResultSuccess, time.Since(start))
	return result, nil
}

// readTable reads one table, degrading to empty rows on failure.
func (s *ProjectionService) readTable(ctx context.Context, table store.Table) ([]store.Row, bool) {
	rows, err := s.tables.Read(ctx, table)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("projection: read %s failed, using empty table: %v", table, err)
		}
		return nil, true
	}
	return rows, false
}

// contentDigest hashes the raw rows of all three tables in canonical column
// order, so logically identical contents produce identical keys.
func contentDigest(charges, tariffs, fuels []store.Row) string {
	hash := sha256.New()
	writeTable := func(table store.Table, rows []store.Row) {
		hash.Write([]byte(table))
		for _, row := range rows {
			for _, column := range store.Columns[table] {
				hash.Write([]byte(column))
				hash.Write([]byte{0})
				hash.Write([]byte(row[column]))
				hash.Write([]byte{0})
			}
			hash.Write([]byte{'\n'})
		}
	}
	writeTable(store.TableCharges, charges)
	writeTable(store.TableTariffs, tariffs)
	writeTable(store.TableFuelPrices, fuels)
	return hex.EncodeToString(hash.Sum(nil))
}

func cloneDerived(derived []analytics.DerivedRecord) []analytics.DerivedRecord {
	out := make([]analytics.DerivedRecord, len(derived))
	copy(out, derived)
	return out
}

func chargingRaws(rows []store.Row) []charging.RawRecord {
	raws := make([]charging.RawRecord, len(rows))
	for i, row := range rows {
		raws[i] = charging.RawRecord{
			Date:       row[store.ColData],
			EnergyKWh:  row[store.ColKWh],
			Location:   row[store.ColTipo],
			DirectCost: row[store.ColSpesaDiretta],
		}
	}
	return raws
}

func tariffRaws(rows []store.Row) []pricing.RawTariff {
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

func fuelRaws(rows []store.Row) []pricing.RawFuelPrice {
	raws := make([]pricing.RawFuelPrice, len(rows))
	for i, row := range rows {
		raws[i] = pricing.RawFuelPrice{
			YearLabel: row[store.ColAnno],
			Price:     row[store.ColPrezzoBenz],
		}
	}
	return raws
}
