package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	LockDriverMemory = "memory"
	LockDriverRedis  = "redis"

	NotifyDriverLog      = "log"
	NotifyDriverRedis    = "redis"
	NotifyDriverPostgres = "postgres"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string

	// LockDriver is "memory" for a single instance or "redis" when several
	// instances share the database.
	LockDriver    string
	NotifyDrivers []string
	NotifyQueue   int
	RedisChannel  string
	PgChannel     string

	FeeConfigPath     string
	FeeReloadSchedule string

	AutoAssignSchedule  string
	AutoAssignRadiusKm  float64
	AutoAssignBatchSize int

	AssignMaxAttempts int
	OperationTimeout  time.Duration
	LogLevel          string
}

// DSN returns the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// ConfigFromEnv reads the configuration from the process environment.
// Unset optional keys fall back to defaults; malformed values are errors.
func ConfigFromEnv() (Config, error) {
	var parseErrs []error

	cfg := Config{
		HTTPPort:   env("HTTP_PORT", "8080"),
		DBHost:     env("DB_HOST", "localhost"),
		DBPort:     env("DB_PORT", "5432"),
		DBUser:     env("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     env("DB_NAME", "dispatch"),
		DBSslMode:  env("DB_SSLMODE", "disable"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LockDriver:    env("LOCK_DRIVER", LockDriverMemory),
		NotifyDrivers: list(env("NOTIFY_DRIVERS", NotifyDriverLog)),
		NotifyQueue:   intEnv("NOTIFY_QUEUE_SIZE", 1024, &parseErrs),
		RedisChannel:  env("NOTIFY_REDIS_CHANNEL", "dispatch.events"),
		PgChannel:     env("NOTIFY_PG_CHANNEL", "dispatch_events"),

		FeeConfigPath:     env("FEE_CONFIG_PATH", "fees.toml"),
		FeeReloadSchedule: os.Getenv("FEE_RELOAD_SCHEDULE"),

		AutoAssignSchedule:  os.Getenv("AUTO_ASSIGN_SCHEDULE"),
		AutoAssignRadiusKm:  floatEnv("AUTO_ASSIGN_RADIUS_KM", 5, &parseErrs),
		AutoAssignBatchSize: intEnv("AUTO_ASSIGN_BATCH_SIZE", 50, &parseErrs),

		AssignMaxAttempts: intEnv("ASSIGN_MAX_ATTEMPTS", 5, &parseErrs),
		OperationTimeout:  durationEnv("OPERATION_TIMEOUT", 10*time.Second, &parseErrs),
		LogLevel:          env("LOG_LEVEL", "info"),
	}

	if err := errors.Join(parseErrs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be verified while parsing.
func (c Config) Validate() error {
	var errs []error

	switch c.LockDriver {
	case LockDriverMemory:
	case LockDriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis lock driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LOCK_DRIVER %q", c.LockDriver))
	}

	for _, d := range c.NotifyDrivers {
		switch d {
		case NotifyDriverLog, NotifyDriverPostgres:
		case NotifyDriverRedis:
			if c.RedisAddr == "" {
				errs = append(errs, errors.New("REDIS_ADDR is required for the redis notify driver"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown notify driver %q", d))
		}
	}

	if c.AssignMaxAttempts < 1 {
		errs = append(errs, errors.New("ASSIGN_MAX_ATTEMPTS must be at least 1"))
	}
	if c.AutoAssignRadiusKm <= 0 {
		errs = append(errs, errors.New("AUTO_ASSIGN_RADIUS_KM must be positive"))
	}
	if c.AutoAssignBatchSize < 1 {
		errs = append(errs, errors.New("AUTO_ASSIGN_BATCH_SIZE must be at least 1"))
	}
	if c.NotifyQueue < 1 {
		errs = append(errs, errors.New("NOTIFY_QUEUE_SIZE must be at least 1"))
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs a Redis client.
func (c Config) UsesRedis() bool {
	if c.LockDriver == LockDriverRedis {
		return true
	}
	for _, d := range c.NotifyDrivers {
		if d == NotifyDriverRedis {
			return true
		}
	}
	return false
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func list(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func intEnv(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func durationEnv(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
