package db

import (
	"context"

	"robot-telemetry/internal/model"

	"go.uber.org/zap"
)

// RobotStore binds the store functions to one robot and pool, giving the
// scheduler its narrow save/log collaborator.
type RobotStore struct {
	mgr     *DBManager
	robotID string
	logger  *zap.SugaredLogger
}

func NewRobotStore(mgr *DBManager, robotID string, logger *zap.SugaredLogger) *RobotStore {
	return &RobotStore{mgr: mgr, robotID: robotID, logger: logger}
}

func (r *RobotStore) SaveTelemetry(ctx context.Context, s model.TelemetrySample) error {
	return InsertTelemetry(ctx, r.mgr.Pool(), r.robotID, s, r.logger)
}

func (r *RobotStore) LogCommand(ctx context.Context, command string) error {
	return InsertCommandLog(ctx, r.mgr.Pool(), r.robotID, command, r.logger)
}
