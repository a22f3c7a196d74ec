package db

import (
	"context"
	"errors"
	"strconv"
	"time"

	"robot-telemetry/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// HistoryFilter narrows a telemetry history query. Zero values mean
// "no constraint"; Limit is capped at 500.
type HistoryFilter struct {
	RobotID string
	Limit   int
	Start   time.Time
	End     time.Time
}

const maxHistoryLimit = 500

// CommandLogEntry is one row of the command audit log.
type CommandLogEntry struct {
	ID         int64     `json:"id"`
	RobotID    string    `json:"robot_id"`
	Command    string    `json:"command"`
	ExecutedAt time.Time `json:"executed_at"`
}

// EnsureSchema creates the telemetry tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zap.SugaredLogger) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS telemetry (
			id BIGSERIAL PRIMARY KEY,
			robot_id TEXT NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			battery INTEGER NOT NULL,
			motor_rpm INTEGER NOT NULL,
			status TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS telemetry_robot_ts_idx ON telemetry (robot_id, ts DESC)`,
		`CREATE TABLE IF NOT EXISTS commands (
			id BIGSERIAL PRIMARY KEY,
			robot_id TEXT NOT NULL,
			command TEXT NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Errorw("failed to ensure schema", "error", err)
			return err
		}
	}
	return nil
}

// InsertTelemetry writes one generated sample.
func InsertTelemetry(ctx context.Context, pool *pgxpool.Pool, robotID string, s model.TelemetrySample, logger *zap.SugaredLogger) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO telemetry (robot_id, temperature, battery, motor_rpm, status, ts)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, robotID, s.Temperature, s.Battery, s.MotorRPM, string(s.Status), s.Timestamp)

	if err != nil {
		logger.Errorw("failed to insert telemetry", "error", err, "robot", robotID)
	}
	return err
}

// LatestTelemetry returns the most recent sample for a robot, or nil
// when no rows exist yet.
func LatestTelemetry(ctx context.Context, pool *pgxpool.Pool, robotID string) (*model.TelemetrySample, error) {
	row := pool.QueryRow(ctx, `
		SELECT temperature, battery, motor_rpm, status, ts
		FROM telemetry WHERE robot_id = $1
		ORDER BY ts DESC LIMIT 1
	`, robotID)

	var s model.TelemetrySample
	var status string
	if err := row.Scan(&s.Temperature, &s.Battery, &s.MotorRPM, &status, &s.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Status = model.Mode(status)
	return &s, nil
}

// QueryTelemetryHistory returns samples matching the filter, newest first.
func QueryTelemetryHistory(ctx context.Context, pool *pgxpool.Pool, f HistoryFilter) ([]model.TelemetrySample, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `SELECT temperature, battery, motor_rpm, status, ts FROM telemetry WHERE 1=1`
	args := []any{}
	n := 0

	if f.RobotID != "" {
		n++
		query += ` AND robot_id = $` + strconv.Itoa(n)
		args = append(args, f.RobotID)
	}
	if !f.Start.IsZero() {
		n++
		query += ` AND ts >= $` + strconv.Itoa(n)
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		n++
		query += ` AND ts <= $` + strconv.Itoa(n)
		args = append(args, f.End)
	}
	n++
	query += ` ORDER BY ts DESC LIMIT $` + strconv.Itoa(n)
	args = append(args, limit)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []model.TelemetrySample
	for rows.Next() {
		var s model.TelemetrySample
		var status string
		if err := rows.Scan(&s.Temperature, &s.Battery, &s.MotorRPM, &status, &s.Timestamp); err != nil {
			return nil, err
		}
		s.Status = model.Mode(status)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// InsertCommandLog records an executed command.
func InsertCommandLog(ctx context.Context, pool *pgxpool.Pool, robotID, command string, logger *zap.SugaredLogger) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO commands (robot_id, command) VALUES ($1,$2)
	`, robotID, command)

	if err != nil {
		logger.Errorw("failed to insert command log", "error", err, "command", command)
	}
	return err
}

// QueryCommandHistory returns recent commands, newest first. Limit is
// capped at 100.
func QueryCommandHistory(ctx context.Context, pool *pgxpool.Pool, robotID string, limit int) ([]CommandLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := pool.Query(ctx, `
		SELECT id, robot_id, command, executed_at
		FROM commands WHERE robot_id = $1
		ORDER BY executed_at DESC LIMIT $2
	`, robotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CommandLogEntry
	for rows.Next() {
		var e CommandLogEntry
		if err := rows.Scan(&e.ID, &e.RobotID, &e.Command, &e.ExecutedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CleanupOldTelemetry removes samples older than the cutoff and returns
// the number of deleted rows.
func CleanupOldTelemetry(ctx context.Context, pool *pgxpool.Pool, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := pool.Exec(ctx, `DELETE FROM telemetry WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
