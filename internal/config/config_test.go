package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ROBOT_ID", "TELEMETRY_INTERVAL", "TELEMETRY_RETENTION_DAYS",
		"HTTP_ADDR", "JWT_SECRET",
		"TELEMETRY_DB_HOST", "TELEMETRY_DB_PORT", "TELEMETRY_DB_USER",
		"TELEMETRY_DB_PASSWORD", "TELEMETRY_DB_NAME", "DATABASE_URL",
		"TELEMETRY_DB_CA_CERT",
		"KAFKA_BROKER", "KAFKA_TOPIC", "KAFKA_CA_CERT",
		"KAFKA_CLIENT_CERT", "KAFKA_CLIENT_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig(context.Background())
	require.Equal(t, DefaultRobotID, cfg.RobotID)
	require.Equal(t, DefaultTelemetryInterval, cfg.TelemetryInterval)
	require.Equal(t, DefaultRetentionDays, cfg.RetentionDays)
	require.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	require.Empty(t, cfg.JWTSecret)
	require.Empty(t, cfg.KafkaBrokers)
	require.Equal(t, "robot.telemetry", cfg.KafkaTopic)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROBOT_ID", "robot_042")
	t.Setenv("TELEMETRY_INTERVAL", "5")
	t.Setenv("TELEMETRY_RETENTION_DAYS", "30")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := LoadConfig(context.Background())
	require.Equal(t, "robot_042", cfg.RobotID)
	require.Equal(t, 5*time.Second, cfg.TelemetryInterval)
	require.Equal(t, 30, cfg.RetentionDays)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadConfigBadIntervalFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEMETRY_INTERVAL", "not-a-number")

	cfg := LoadConfig(context.Background())
	require.Equal(t, DefaultTelemetryInterval, cfg.TelemetryInterval)

	t.Setenv("TELEMETRY_INTERVAL", "-1")
	cfg = LoadConfig(context.Background())
	require.Equal(t, DefaultTelemetryInterval, cfg.TelemetryInterval)
}

func TestLoadConfigBuildsDBURL(t *testing.T) {
	t.Run("plain connection", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEMETRY_DB_HOST", "db.internal")
		t.Setenv("TELEMETRY_DB_USER", "telemetry")
		t.Setenv("TELEMETRY_DB_PASSWORD", "pw")
		t.Setenv("TELEMETRY_DB_NAME", "robots")

		cfg := LoadConfig(context.Background())
		require.Equal(t,
			"postgresql://telemetry:pw@db.internal:5432/robots?sslmode=disable",
			cfg.DBURL)
	})

	t.Run("CA cert switches sslmode", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEMETRY_DB_HOST", "db.internal")
		t.Setenv("TELEMETRY_DB_USER", "telemetry")
		t.Setenv("TELEMETRY_DB_PASSWORD", "pw")
		t.Setenv("TELEMETRY_DB_NAME", "robots")
		t.Setenv("TELEMETRY_DB_CA_CERT", "/etc/certs/ca.pem")

		cfg := LoadConfig(context.Background())
		require.Contains(t, cfg.DBURL, "sslmode=verify-full")
	})

	t.Run("explicit DATABASE_URL wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DATABASE_URL", "postgresql://u:p@h:5432/d")

		cfg := LoadConfig(context.Background())
		require.Equal(t, "postgresql://u:p@h:5432/d", cfg.DBURL)
	})
}

func TestLoadConfigKafkaBrokerList(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_BROKER", "broker-1:9092,broker-2:9092")
	t.Setenv("KAFKA_TOPIC", "fleet.telemetry")

	cfg := LoadConfig(context.Background())
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "fleet.telemetry", cfg.KafkaTopic)
}
