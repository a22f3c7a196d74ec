package main

import (
	"context"

	"go.uber.org/zap"

	"robot-telemetry/internal/api"
	"robot-telemetry/internal/app"
	"robot-telemetry/internal/config"
	"robot-telemetry/internal/db"
	"robot-telemetry/internal/foxglove"
	"robot-telemetry/internal/monitor"
	"robot-telemetry/internal/realtime"
)

func main() {
	logger, _ := zap.NewProduction(zap.AddStacktrace(zap.FatalLevel))
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()
	cfg := config.LoadConfig(ctx)

	// --- Initialize DBManager ---
	dbMgr, err := db.NewDBManager(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to create DBManager", "error", err)
	}
	defer dbMgr.Shutdown()

	if err := db.EnsureSchema(ctx, dbMgr.Pool(), sugar); err != nil {
		sugar.Fatalw("failed to ensure database schema", "error", err)
	}

	// --- Broadcast hub + telemetry service ---
	hub := realtime.NewHub(sugar)
	svc := app.BuildTelemetryService(cfg, dbMgr, hub, sugar)

	// --- HTTP server: health, metrics, REST API, /ws ---
	bridge := foxglove.NewBridge(cfg.RobotID)
	apiHandler := api.NewHandler(svc, dbMgr, bridge, sugar)
	monitor.StartServer(dbMgr, hub, apiHandler, cfg.JWTSecret, sugar, cfg.HTTPAddr)

	// --- Run telemetry generator (blocking) ---
	app.StartTelemetryApp(ctx, svc, dbMgr, cfg, sugar)
}
