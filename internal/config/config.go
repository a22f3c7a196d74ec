package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the simulated robot.
const (
	DefaultRobotID           = "robot_001"
	DefaultTelemetryInterval = 2 * time.Second
	DefaultHTTPAddr          = ":8080"
	DefaultRetentionDays     = 7
)

// Config holds all configuration values
type Config struct {
	// Robot / scheduler
	RobotID           string
	TelemetryInterval time.Duration
	RetentionDays     int

	// HTTP server
	HTTPAddr  string
	JWTSecret string

	// PostgreSQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBURL      string
	DBCACert   string

	// Kafka firehose (optional; empty broker list disables it)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaCACert  string
	KafkaCert    string // optional client cert
	KafkaKey     string // optional client key
}

func LoadConfig(ctx context.Context) *Config {
	// Load .env if exists
	_ = godotenv.Load() // ignore error, fallback to env vars

	cfg := &Config{
		RobotID:           envOr("ROBOT_ID", DefaultRobotID),
		TelemetryInterval: envSeconds("TELEMETRY_INTERVAL", DefaultTelemetryInterval),
		RetentionDays:     envInt("TELEMETRY_RETENTION_DAYS", DefaultRetentionDays),

		HTTPAddr:  envOr("HTTP_ADDR", DefaultHTTPAddr),
		JWTSecret: os.Getenv("JWT_SECRET"),

		DBHost:     os.Getenv("TELEMETRY_DB_HOST"),
		DBPort:     envOr("TELEMETRY_DB_PORT", "5432"),
		DBUser:     os.Getenv("TELEMETRY_DB_USER"),
		DBPassword: os.Getenv("TELEMETRY_DB_PASSWORD"),
		DBName:     os.Getenv("TELEMETRY_DB_NAME"),
		DBURL:      os.Getenv("DATABASE_URL"),
		DBCACert:   os.Getenv("TELEMETRY_DB_CA_CERT"),

		KafkaTopic:  envOr("KAFKA_TOPIC", "robot.telemetry"),
		KafkaCACert: os.Getenv("KAFKA_CA_CERT"),
		KafkaCert:   os.Getenv("KAFKA_CLIENT_CERT"),
		KafkaKey:    os.Getenv("KAFKA_CLIENT_KEY"),
	}

	if brokers := os.Getenv("KAFKA_BROKER"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	// Build DB URL if not provided
	if cfg.DBURL == "" {
		sslmode := "disable"
		if cfg.DBCACert != "" {
			sslmode = "verify-full"
		}
		cfg.DBURL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, sslmode,
		)
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
