package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Lock       LockConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LockConfig selects how group membership changes are serialized.
type LockConfig struct {
	Driver        string
	TTL           time.Duration
	RetryInterval time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string
}

// AttendanceConfig tunes check-in evaluation.
type AttendanceConfig struct {
	// Location is the wall clock shifts are defined in.
	Location                 *time.Location
	MinCheckGap              time.Duration
	OvertimeThresholdMinutes int
	AbsenceSweepInterval     time.Duration
	// CheckRateLimit is check-in/out requests per second per employee, 0 disables.
	CheckRateLimit float64
	CheckRateBurst int
}

// DefaultAttendanceConfig is used by tests and by Load for unset variables.
func DefaultAttendanceConfig() AttendanceConfig {
	return AttendanceConfig{
		Location:                 time.Local,
		MinCheckGap:              60 * time.Second,
		OvertimeThresholdMinutes: 30,
		AbsenceSweepInterval:     time.Hour,
		CheckRateLimit:           1,
		CheckRateBurst:           5,
	}
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", DriverPostgres),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Redis configuration
	redisPort, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     redisPort,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// Lock configuration
	lockTTL, err := time.ParseDuration(getEnv("LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}
	lockRetry, err := time.ParseDuration(getEnv("LOCK_RETRY_INTERVAL", "50ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_RETRY_INTERVAL: %w", err)
	}

	config.Lock = LockConfig{
		Driver:        getEnv("LOCK_DRIVER", DriverMemory),
		TTL:           lockTTL,
		RetryInterval: lockRetry,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "Local"),
	}
	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.App.AllowedOrigins = append(config.App.AllowedOrigins, origin)
		}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Attendance configuration
	attendance := DefaultAttendanceConfig()

	loc, err := time.LoadLocation(config.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	attendance.Location = loc

	if attendance.MinCheckGap, err = time.ParseDuration(getEnv("ATTENDANCE_MIN_CHECK_GAP", "60s")); err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_MIN_CHECK_GAP: %w", err)
	}
	if attendance.OvertimeThresholdMinutes, err = strconv.Atoi(getEnv("ATTENDANCE_OVERTIME_THRESHOLD_MINUTES", "30")); err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_OVERTIME_THRESHOLD_MINUTES: %w", err)
	}
	if attendance.AbsenceSweepInterval, err = time.ParseDuration(getEnv("ATTENDANCE_ABSENCE_SWEEP_INTERVAL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_ABSENCE_SWEEP_INTERVAL: %w", err)
	}
	if attendance.CheckRateLimit, err = strconv.ParseFloat(getEnv("ATTENDANCE_RATE_LIMIT", "1"), 64); err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_RATE_LIMIT: %w", err)
	}
	if attendance.CheckRateBurst, err = strconv.Atoi(getEnv("ATTENDANCE_RATE_BURST", "5")); err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_RATE_BURST: %w", err)
	}
	config.Attendance = attendance

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverMemory)
	}

	switch c.Lock.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("LOCK_DRIVER must be %q or %q", DriverMemory, DriverRedis)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.MinCheckGap < 0 {
		return fmt.Errorf("ATTENDANCE_MIN_CHECK_GAP must not be negative")
	}
	if c.Attendance.OvertimeThresholdMinutes < 0 {
		return fmt.Errorf("ATTENDANCE_OVERTIME_THRESHOLD_MINUTES must not be negative")
	}
	if c.Attendance.AbsenceSweepInterval <= 0 {
		return fmt.Errorf("ATTENDANCE_ABSENCE_SWEEP_INTERVAL must be positive")
	}
	if c.Attendance.CheckRateLimit < 0 || c.Attendance.CheckRateBurst < 0 {
		return fmt.Errorf("ATTENDANCE_RATE_LIMIT and ATTENDANCE_RATE_BURST must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
