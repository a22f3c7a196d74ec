package model

import "time"

// Mode is the robot's operating state.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeWorking Mode = "working"
	ModeError   Mode = "error"
)

// TelemetrySample is one generated reading. Immutable once produced;
// downstream consumers receive copies, never shared references.
type TelemetrySample struct {
	Temperature float64   `json:"temperature"`
	Battery     int       `json:"battery"`
	MotorRPM    int       `json:"motor_rpm"`
	Status      Mode      `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Alert severities.
const (
	AlertWarning  = "warning"
	AlertCritical = "critical"
)

// Alert categories.
const (
	CategoryTemperature = "temperature"
	CategoryBattery     = "battery"
	CategoryStatus      = "status"
)

// AlertEvent is derived from a single sample by the evaluator.
// Threshold and Value are omitted for status-category alerts.
type AlertEvent struct {
	Type      string  `json:"type"`
	Category  string  `json:"category"`
	Message   string  `json:"message"`
	Threshold float64 `json:"threshold,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// CommandResult reports the outcome of a robot command.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
}
