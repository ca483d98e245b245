package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Log        LogConfig
	Settlement SettlementConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"notevault_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// SettlementConfig holds the money-moving knobs: the platform's commission
// cut, how long earnings stay pending, the smallest accepted withdrawal,
// and the maturity scheduler's cadence. All money values are minor
// currency units.
type SettlementConfig struct {
	CommissionRatePercent   int   `envconfig:"COMMISSION_RATE_PERCENT" default:"20"`
	RefundWindowHours       int   `envconfig:"REFUND_WINDOW_HOURS" default:"168"` // 7 days
	MinWithdrawal           int64 `envconfig:"MIN_WITHDRAWAL" default:"10000"`
	MaturityIntervalSeconds int   `envconfig:"MATURITY_INTERVAL_SECONDS" default:"300"`
	MaturityBatchSize       int   `envconfig:"MATURITY_BATCH_SIZE" default:"100"`
}

// CommissionRate returns the commission rate as a decimal percentage.
func (c SettlementConfig) CommissionRate() decimal.Decimal {
	return decimal.NewFromInt(int64(c.CommissionRatePercent))
}

// RefundWindow returns the refund window as a duration.
func (c SettlementConfig) RefundWindow() time.Duration {
	return time.Duration(c.RefundWindowHours) * time.Hour
}

// MaturityInterval returns the scheduler interval as a duration.
func (c SettlementConfig) MaturityInterval() time.Duration {
	return time.Duration(c.MaturityIntervalSeconds) * time.Second
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
