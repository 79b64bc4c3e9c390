package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	PromoCacheTTL    time.Duration
	StockCacheTTL    time.Duration
	DistrictCacheTTL time.Duration

	// WarehouseLeadDays maps recognized warehouse codes to their
	// out-of-stock lead time in working days.
	WarehouseLeadDays map[string]int
	// UrgentLeadDays replaces the warehouse figure for urgent-carrier
	// promotions.
	UrgentLeadDays int
	// SundayShiftWarehouse is the warehouse whose delivery promises are
	// moved off Sundays.
	SundayShiftWarehouse string
	// UrgentMarkers are the name substrings that flag expedited supplier
	// programs on promotions without an explicit urgency tier.
	UrgentMarkers []string
	// RetailChannel is the customer channel whose district figure counts in
	// half-day units.
	RetailChannel string

	SurchargeRate     decimal.Decimal
	SurchargeIndustry string
	SurchargeVATMode  string

	CORSAllowedOrigins []string
	RateLimit          string
	RunMigrations      bool
	MigrationsPath     string

	// WarmProductCodes are pre-warmed into the promotion cache by the worker.
	WarmProductCodes []string
	WarmInterval     time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:      valueOrDefault(k.String("APP_ENV"), "development"),
		Port:        valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL: k.String("DATABASE_URL"),
		RedisURL:    k.String("REDIS_URL"),

		PromoCacheTTL:    parseDuration(k.String("PROMO_CACHE_TTL"), "5m"),
		StockCacheTTL:    parseDuration(k.String("STOCK_CACHE_TTL"), "30s"),
		DistrictCacheTTL: parseDuration(k.String("DISTRICT_CACHE_TTL"), "1h"),

		WarehouseLeadDays:    parseLeadDays(k.String("WAREHOUSE_LEAD_DAYS")),
		UrgentLeadDays:       parseInt(k.String("URGENT_LEAD_DAYS"), 5),
		SundayShiftWarehouse: strings.TrimSpace(k.String("SUNDAY_SHIFT_WAREHOUSE")),
		UrgentMarkers:        splitAndTrim(k.String("URGENT_MARKERS")),
		RetailChannel:        valueOrDefault(k.String("RETAIL_CHANNEL"), "Shop"),

		SurchargeRate:     parseRate(k.String("SURCHARGE_RATE")),
		SurchargeIndustry: strings.TrimSpace(k.String("SURCHARGE_INDUSTRY")),
		SurchargeVATMode:  strings.TrimSpace(k.String("SURCHARGE_VAT_MODE")),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "300-M"),
		RunMigrations:      parseBool(k.String("RUN_MIGRATIONS")),
		MigrationsPath:     valueOrDefault(k.String("MIGRATIONS_PATH"), "file://migrations"),

		WarmProductCodes: splitAndTrim(k.String("WARM_PRODUCT_CODES")),
		WarmInterval:     parseDuration(k.String("WARM_INTERVAL"), "10m"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// parseLeadDays reads "CODE:days" pairs, e.g. "HCM:2,DAD:3".
func parseLeadDays(value string) map[string]int {
	out := map[string]int{}
	for _, pair := range splitAndTrim(value) {
		code, days, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil || n < 0 {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(code))] = n
	}
	return out
}

func parseRate(value string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
