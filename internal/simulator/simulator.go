package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"robot-telemetry/internal/model"

	"go.uber.org/zap"
)

// Telemetry ranges per mode.
const (
	tempIdleMin    = 35.0
	tempIdleMax    = 42.0
	tempWorkingMin = 40.0
	tempWorkingMax = 55.0
	tempErrorMin   = 50.0
	tempErrorMax   = 60.0

	batteryFloor   = 20.0
	batterySeedMin = 70
	batterySeedMax = 100
	batteryDrawMax = 0.5

	rpmWorkingMin = 1200
	rpmWorkingMax = 1800
	rpmErrorMax   = 500
	rpmIdleMin    = 800
	rpmIdleMax    = 1000

	driftProbability    = 0.1
	lowBatteryThreshold = 30
	lowBatteryErrorProb = 0.3
)

// driftChoices weights mode drift toward working; error stays rare.
var driftChoices = []model.Mode{
	model.ModeIdle,
	model.ModeWorking,
	model.ModeWorking,
	model.ModeWorking,
	model.ModeError,
}

// State is a read-only copy of the machine's internals.
type State struct {
	Running bool
	Mode    model.Mode
	Battery float64
}

// StateMachine owns the simulated operating state. All mutation happens
// under its mutex: commands and scheduler ticks serialize, never
// interleave mid-mutation.
type StateMachine struct {
	mu      sync.Mutex
	rng     *rand.Rand
	running bool
	mode    model.Mode
	battery float64
	logger  *zap.SugaredLogger
}

// New creates a state machine in the idle mode with a battery seeded in
// [70,100]. Pass a seeded rng for deterministic tests; nil time-seeds one.
func New(rng *rand.Rand, logger *zap.SugaredLogger) *StateMachine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &StateMachine{
		rng:    rng,
		logger: logger,
	}
	s.running = true
	s.mode = model.ModeIdle
	s.battery = float64(batterySeedMin + rng.Intn(batterySeedMax-batterySeedMin+1))
	return s
}

// Start transitions to working. Total: never fails.
func (s *StateMachine) Start() model.CommandResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.mode = model.ModeWorking
	return model.CommandResult{Success: true, Message: "Robot started"}
}

// Stop transitions to idle and halts battery draw.
func (s *StateMachine) Stop() model.CommandResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.mode = model.ModeIdle
	return model.CommandResult{Success: true, Message: "Robot stopped"}
}

// Reset returns to the initial state with a fresh battery in [70,100].
func (s *StateMachine) Reset() model.CommandResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.mode = model.ModeIdle
	s.battery = float64(batterySeedMin + s.rng.Intn(batterySeedMax-batterySeedMin+1))
	return model.CommandResult{Success: true, Message: "Robot reset"}
}

// Execute dispatches a validated command. The switch is exhaustive over
// the command enum; ParseCommand has already rejected unknown tokens.
func (s *StateMachine) Execute(cmd model.Command) model.CommandResult {
	var res model.CommandResult
	switch cmd {
	case model.CommandStart:
		res = s.Start()
	case model.CommandStop:
		res = s.Stop()
	case model.CommandReset:
		res = s.Reset()
	default:
		res = model.CommandResult{Success: false, Message: "Unknown command: " + cmd.String()}
	}
	res.Command = cmd.String()
	return res
}

// Generate produces the next telemetry sample and applies post-sample
// mode drift. The mode carried by the sample is the post-drift mode.
func (s *StateMachine) Generate() model.TelemetrySample {
	s.mu.Lock()
	defer s.mu.Unlock()

	var temperature float64
	switch s.mode {
	case model.ModeWorking:
		temperature = tempWorkingMin + s.rng.Float64()*(tempWorkingMax-tempWorkingMin)
	case model.ModeError:
		temperature = tempErrorMin + s.rng.Float64()*(tempErrorMax-tempErrorMin)
	default:
		temperature = tempIdleMin + s.rng.Float64()*(tempIdleMax-tempIdleMin)
	}

	// Battery drains only while actively working, floored so the
	// simulated robot never fully dies.
	if s.running && s.mode == model.ModeWorking {
		s.battery = math.Max(batteryFloor, s.battery-s.rng.Float64()*batteryDrawMax)
	}
	battery := int(s.battery)

	var motorRPM int
	switch s.mode {
	case model.ModeWorking:
		motorRPM = rpmWorkingMin + s.rng.Intn(rpmWorkingMax-rpmWorkingMin+1)
	case model.ModeError:
		motorRPM = s.rng.Intn(rpmErrorMax + 1)
	default:
		motorRPM = rpmIdleMin + s.rng.Intn(rpmIdleMax-rpmIdleMin+1)
	}

	// Low-probability mode drift, weighted toward working.
	if s.running && s.rng.Float64() < driftProbability {
		s.mode = driftChoices[s.rng.Intn(len(driftChoices))]
	}

	// A draining battery makes error states more likely.
	if battery < lowBatteryThreshold && s.rng.Float64() < lowBatteryErrorProb {
		s.mode = model.ModeError
	}

	return model.TelemetrySample{
		Temperature: math.Round(temperature*10) / 10,
		Battery:     battery,
		MotorRPM:    motorRPM,
		Status:      s.mode,
		Timestamp:   time.Now().UTC(),
	}
}

// Snapshot returns a copy of the current state. The internals are never
// exposed by reference.
func (s *StateMachine) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Running: s.running, Mode: s.mode, Battery: s.battery}
}

// IsRunning reports whether the simulation is running.
func (s *StateMachine) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
