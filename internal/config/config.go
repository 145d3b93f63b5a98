// Package config loads process configuration from the environment.
// A .env file in the working directory is honoured when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is built once in main and handed to each component.
type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DBDriver          string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	LoginRatePerSec float64
	LoginRateBurst  int

	Admin AdminSeed
}

// AdminSeed describes the optional bootstrap administrator.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

func (a AdminSeed) Enabled() bool {
	return a.Username != "" && a.Email != "" && a.Password != ""
}

func (c Config) Development() bool { return c.Env == EnvDevelopment }

// Load reads .env (if any) and the environment. A missing JWT_SECRET or
// DATABASE_URL is an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	var errs []error

	cfg := Config{
		Env:         strings.ToLower(envString("APP_ENV", EnvProduction)),
		HTTPPort:    envString("HTTP_PORT", "8080"),
		LogLevel:    strings.ToLower(envString("LOG_LEVEL", "info")),
		DBDriver:    strings.ToLower(envString("DB_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Admin: AdminSeed{
			Username: os.Getenv("ADMIN_USERNAME"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	if cfg.Env != EnvProduction && cfg.Env != EnvDevelopment {
		errs = append(errs, fmt.Errorf("APP_ENV: unknown environment %q", cfg.Env))
	}
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver))
	}
	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is empty"))
	}

	var err error
	if cfg.TokenTTL, err = parseTTL(envString("JWT_EXPIRES_IN", "24h")); err != nil {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN: %w", err))
	}
	if cfg.DBMaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.DBMaxIdleConns, err = envInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		errs = append(errs, err)
	}
	if cfg.DBConnMaxLifetime, err = envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.LoginRatePerSec, err = envFloat("LOGIN_RATE_PER_SEC", 1); err != nil {
		errs = append(errs, err)
	}
	if cfg.LoginRateBurst, err = envInt("LOGIN_RATE_BURST", 10); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// parseTTL accepts Go durations ("24h", "90m") and bare integers as hours.
func parseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive, got %d", n)
		}
		return time.Duration(n) * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func envString(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid integer %q", name, raw)
	}
	return n, nil
}

func envFloat(name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s: invalid number %q", name, raw)
	}
	return f, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
