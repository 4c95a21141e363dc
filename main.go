package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	analyticsapp "evcharge-manager/internal/analytics/application"
	analytics "evcharge-manager/internal/analytics/domain"
	analyticsinterfaces "evcharge-manager/internal/analytics/interfaces"
	"evcharge-manager/internal/audit"
	"evcharge-manager/internal/auth"
	chargingapp "evcharge-manager/internal/charging/application"
	charginghttp "evcharge-manager/internal/charging/interfaces/http"
	"evcharge-manager/internal/observability/metrics"
	pricingapp "evcharge-manager/internal/pricing/application"
	"evcharge-manager/internal/pricing/infrastructure/fuelfeed"
	pricinghttp "evcharge-manager/internal/pricing/interfaces/http"
	"evcharge-manager/internal/store"
	excelstore "evcharge-manager/internal/store/excel"
	postgresstore "evcharge-manager/internal/store/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	metrics.Init()

	tables, cleanup, err := buildTableStore(cfg, logger)
	if err != nil {
		logger.Fatalf("table store error: %v", err)
	}
	defer cleanup()

	auditLogger := audit.NewStoreLogger(tables)

	efficiency := analytics.EfficiencyConfig{
		EVKMPerKWh:     cfg.Efficiency.EVKMPerKWh,
		FuelKMPerLiter: cfg.Efficiency.FuelKMPerLiter,
	}
	projection, err := analyticsapp.NewProjectionService(tables, efficiency, cfg.BackupFuelPrice, analyticsapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("projection service error: %v", err)
	}

	chargeService, err := chargingapp.NewChargeLogService(tables, auditLogger, projection, chargingapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("charge log service error: %v", err)
	}
	tariffService, err := pricingapp.NewTariffService(tables, auditLogger, projection, pricingapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("tariff service error: %v", err)
	}

	feed, err := fuelfeed.NewClient(
		cfg.FuelFeed.URL,
		cfg.BackupFuelPrice,
		logger,
		fuelfeed.WithTimeout(cfg.FuelFeed.Timeout),
		fuelfeed.WithCacheTTL(cfg.FuelFeed.CacheTTL),
	)
	if err != nil {
		logger.Fatalf("fuel feed error: %v", err)
	}

	chargesHandler, err := charginghttp.NewChargesHandler(chargeService)
	if err != nil {
		logger.Fatalf("charges handler error: %v", err)
	}
	pricesHandler, err := pricinghttp.NewPricesHandler(tariffService, feed)
	if err != nil {
		logger.Fatalf("prices handler error: %v", err)
	}
	summaryHandler, err := analyticsinterfaces.NewSummaryHandler(projection)
	if err != nil {
		logger.Fatalf("summary handler error: %v", err)
	}
	reportHandler, err := analyticsinterfaces.NewReportHandler(projection)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/charges", chargesHandler)
	mux.Handle("/api/v1/charges/", chargesHandler)
	mux.Handle("/api/v1/tariffs", pricesHandler)
	mux.Handle("/api/v1/fuel-prices", pricesHandler)
	mux.Handle("/api/v1/fuel-prices/", pricesHandler)
	mux.Handle("/api/v1/summary", summaryHandler)
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	if cfg.Auth.JWTSecret != "" {
		loginHandler, err := auth.NewLoginHandler([]byte(cfg.Auth.JWTSecret), cfg.Auth.Username, cfg.Auth.Password)
		if err != nil {
			logger.Fatalf("login handler error: %v", err)
		}
		mux.Handle("/api/v1/login", loginHandler)
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/api/v1/login"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), policy).Wrap(mux)
	} else {
		logger.Printf("auth disabled: no jwt secret configured")
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(handler, logger)}
	logger.Printf("http listening on %s (store=%s)", cfg.HTTPAddr, cfg.StoreBackend)
	logger.Fatal(server.ListenAndServe())
}

type efficiencyConfig struct {
	EVKMPerKWh     float64 `yaml:"ev_km_per_kwh"`
	FuelKMPerLiter float64 `yaml:"fuel_km_per_liter"`
}

type fuelFeedConfig struct {
	URL         string `yaml:"url"`
	RawTimeout  string `yaml:"timeout"`
	RawCacheTTL string `yaml:"cache_ttl"`

	Timeout  time.Duration `yaml:"-"`
	CacheTTL time.Duration `yaml:"-"`
}

type authConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

type config struct {
	HTTPAddr        string           `yaml:"http_addr"`
	StoreBackend    string           `yaml:"store"`
	WorkbookPath    string           `yaml:"workbook"`
	DatabaseURL     string           `yaml:"database_url"`
	Efficiency      efficiencyConfig `yaml:"efficiency"`
	BackupFuelPrice float64          `yaml:"backup_fuel_price"`
	FuelFeed        fuelFeedConfig   `yaml:"fuel_feed"`
	Auth            authConfig       `yaml:"auth"`
}

func loadConfig() config {
	cfg := config{
		HTTPAddr:     ":8080",
		StoreBackend: "excel",
		WorkbookPath: "evcharge.xlsx",
		Efficiency: efficiencyConfig{
			EVKMPerKWh:     6.9,
			FuelKMPerLiter: 14.0,
		},
		BackupFuelPrice: 1.85,
		FuelFeed: fuelFeedConfig{
			Timeout:  5 * time.Second,
			CacheTTL: 24 * time.Hour,
		},
	}

	if path := os.Getenv("EVCM_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("config read error: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("config parse error: %v", err)
		}
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.StoreBackend = getenvDefault("STORE_BACKEND", cfg.StoreBackend)
	cfg.WorkbookPath = getenvDefault("WORKBOOK_PATH", cfg.WorkbookPath)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.Efficiency.EVKMPerKWh = getenvFloatDefault("EV_KM_PER_KWH", cfg.Efficiency.EVKMPerKWh)
	cfg.Efficiency.FuelKMPerLiter = getenvFloatDefault("FUEL_KM_PER_LITER", cfg.Efficiency.FuelKMPerLiter)
	cfg.BackupFuelPrice = getenvFloatDefault("BACKUP_FUEL_PRICE", cfg.BackupFuelPrice)
	cfg.FuelFeed.URL = getenvDefault("FUEL_FEED_URL", cfg.FuelFeed.URL)
	if parsed, err := time.ParseDuration(cfg.FuelFeed.RawTimeout); err == nil && parsed > 0 {
		cfg.FuelFeed.Timeout = parsed
	}
	if parsed, err := time.ParseDuration(cfg.FuelFeed.RawCacheTTL); err == nil && parsed > 0 {
		cfg.FuelFeed.CacheTTL = parsed
	}
	cfg.FuelFeed.Timeout = getenvDuration("FUEL_FEED_TIMEOUT", cfg.FuelFeed.Timeout)
	cfg.FuelFeed.CacheTTL = getenvDuration("FUEL_FEED_CACHE_TTL", cfg.FuelFeed.CacheTTL)
	cfg.Auth.JWTSecret = getenvDefault("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Username = getenvDefault("AUTH_USERNAME", cfg.Auth.Username)
	cfg.Auth.Password = getenvDefault("AUTH_PASSWORD", cfg.Auth.Password)

	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required with STORE_BACKEND=postgres")
	}
	return cfg
}

func buildTableStore(cfg config, logger *log.Logger) (store.TableStore, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		pg, err := postgresstore.NewTableStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := pg.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store.NewMeasured(pg), func() { db.Close() }, nil
	default:
		xl, err := excelstore.NewTableStore(cfg.WorkbookPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("workbook store at %s", cfg.WorkbookPath)
		return store.NewMeasured(xl), func() {}, nil
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		duration := time.Since(start)
		metrics.ObserveHTTP(r.Method, strconv.Itoa(resp.status), duration)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
