package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"robot-telemetry/internal/config"
	"robot-telemetry/internal/db"
	"robot-telemetry/internal/realtime"
	"robot-telemetry/internal/service"
	"robot-telemetry/internal/simulator"

	"go.uber.org/zap"
)

// BuildTelemetryService assembles the simulator, scheduler, and optional
// Kafka firehose on top of the shared hub and database.
func BuildTelemetryService(cfg *config.Config, dbMgr *db.DBManager, hub *realtime.Hub, logger *zap.SugaredLogger) *service.TelemetryService {
	sim := simulator.New(nil, logger)
	store := db.NewRobotStore(dbMgr, cfg.RobotID, logger)
	producer := service.NewKafkaProducer(cfg, logger)

	return service.NewTelemetryService(sim, hub, store, producer, cfg.TelemetryInterval, cfg.RobotID, logger)
}

// StartTelemetryApp runs the generation loop and the retention sweeper
// until a shutdown signal arrives. Blocking.
func StartTelemetryApp(ctx context.Context, svc *service.TelemetryService, dbMgr *db.DBManager, cfg *config.Config, logger *zap.SugaredLogger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()

	go retentionSweeper(ctx, dbMgr, cfg, logger)

	// --- Graceful shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		logger.Infow("signal received, shutting down telemetry generator", "signal", sig)
		cancel()
	case <-done:
		logger.Info("telemetry generator finished, exiting")
	}

	select {
	case <-done:
		logger.Info("telemetry generator stopped gracefully")
	case <-time.After(10 * time.Second):
		logger.Warn("timeout waiting for telemetry generator to stop")
	}

	fmt.Println("✅ Telemetry application shutdown completed")
}

// retentionSweeper removes old telemetry once a day.
func retentionSweeper(ctx context.Context, dbMgr *db.DBManager, cfg *config.Config, logger *zap.SugaredLogger) {
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := db.CleanupOldTelemetry(ctx, dbMgr.Pool(), retention)
			if err != nil {
				logger.Errorw("retention sweep failed", "error", err)
				continue
			}
			logger.Infow("retention sweep completed", "deleted", deleted, "retention", retention)
		}
	}
}
