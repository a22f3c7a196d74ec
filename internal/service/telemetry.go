package service

import (
	"context"
	"time"

	"robot-telemetry/internal/alert"
	"robot-telemetry/internal/model"
	"robot-telemetry/internal/observability"
	"robot-telemetry/internal/simulator"

	"go.uber.org/zap"
)

const saveTimeout = 2 * time.Second

// Store is the persistence collaborator. The generation loop only ever
// writes through it; history queries belong to the REST layer.
type Store interface {
	SaveTelemetry(ctx context.Context, s model.TelemetrySample) error
	LogCommand(ctx context.Context, command string) error
}

// Broadcaster fans generated samples, alerts, and command results out to
// live subscribers. Satisfied by *realtime.Hub.
type Broadcaster interface {
	PublishTelemetry(sample model.TelemetrySample)
	PublishAlert(event model.AlertEvent)
	PublishCommandResult(result model.CommandResult)
}

// TelemetryService drives the periodic generation loop and is the
// command submission surface for the REST layer.
type TelemetryService struct {
	sim      *simulator.StateMachine
	hub      Broadcaster
	store    Store
	producer *KafkaProducer // nil when no broker configured
	logger   *zap.SugaredLogger
	interval time.Duration
	robotID  string
}

func NewTelemetryService(sim *simulator.StateMachine, hub Broadcaster, store Store, producer *KafkaProducer, interval time.Duration, robotID string, logger *zap.SugaredLogger) *TelemetryService {
	return &TelemetryService{
		sim:      sim,
		hub:      hub,
		store:    store,
		producer: producer,
		logger:   logger,
		interval: interval,
		robotID:  robotID,
	}
}

// Run executes the generation loop until the context is cancelled. The
// loop is a single goroutine, so at most one generation is ever in
// flight; a slow tick delays the next rather than overlapping it.
func (s *TelemetryService) Run(ctx context.Context) {
	s.logger.Infow("starting telemetry generator", "interval", s.interval, "robot", s.robotID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("telemetry generator stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one generation: sample, persist (best-effort), evaluate
// alerts, broadcast. Collaborator failures never abort the loop.
func (s *TelemetryService) tick(ctx context.Context) {
	sample := s.sim.Generate()

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	if err := s.store.SaveTelemetry(saveCtx, sample); err != nil {
		observability.SaveFailuresTotal.Inc()
		s.logger.Errorw("failed to save telemetry, continuing", "error", err)
	}
	cancel()

	if s.producer != nil {
		s.producer.Publish(ctx, s.robotID, sample)
	}

	alerts := alert.Evaluate(sample)

	s.hub.PublishTelemetry(sample)
	for _, a := range alerts {
		s.hub.PublishAlert(a)
		observability.AlertsTotal.WithLabelValues(a.Type).Inc()
		s.logger.Warnw("alert raised", "category", a.Category, "severity", a.Type, "message", a.Message)
	}

	observability.TicksTotal.Inc()
}

// SubmitCommand validates and executes a robot command. Unknown tokens
// are rejected here with no state change; executed results are logged
// and broadcast to all subscribers.
func (s *TelemetryService) SubmitCommand(ctx context.Context, name string) model.CommandResult {
	cmd, err := model.ParseCommand(name)
	if err != nil {
		s.logger.Warnw("rejected command", "command", name, "error", err)
		return model.CommandResult{Success: false, Message: err.Error()}
	}

	res := s.sim.Execute(cmd)

	logCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	if logErr := s.store.LogCommand(logCtx, cmd.String()); logErr != nil {
		s.logger.Errorw("failed to log command", "command", cmd.String(), "error", logErr)
	}
	cancel()

	s.hub.PublishCommandResult(res)
	s.logger.Infow("command executed", "command", cmd.String(), "success", res.Success)
	return res
}

// Generate produces a fresh sample outside the scheduled loop, used by
// the REST layer when no persisted telemetry exists yet.
func (s *TelemetryService) Generate() model.TelemetrySample {
	return s.sim.Generate()
}

// Status returns a copy of the simulator state.
func (s *TelemetryService) Status() simulator.State {
	return s.sim.Snapshot()
}

// RobotID returns the robot this service simulates.
func (s *TelemetryService) RobotID() string {
	return s.robotID
}
