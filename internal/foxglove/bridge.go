// Package foxglove converts telemetry samples into Foxglove
// Studio-compatible message shapes.
//
// Foxglove WebSocket Protocol: https://docs.foxglove.dev/docs/connecting-to-data/frameworks/websocket
package foxglove

import (
	"fmt"
	"math"
	"time"

	"robot-telemetry/internal/model"
)

// Stamp is a ROS-style timestamp.
type Stamp struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

// Header carries the stamp and coordinate frame of a message.
type Header struct {
	Stamp   Stamp  `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Message is one Foxglove channel message.
type Message struct {
	Topic     string `json:"topic"`
	Timestamp Stamp  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Channel describes one Foxglove channel.
type Channel struct {
	ID         int    `json:"id"`
	Topic      string `json:"topic"`
	Encoding   string `json:"encoding"`
	SchemaName string `json:"schemaName"`
	Schema     string `json:"schema"`
}

// ServerInfo announces the bridge's capabilities.
type ServerInfo struct {
	Name               string            `json:"name"`
	Capabilities       []string          `json:"capabilities"`
	SupportedEncodings []string          `json:"supportedEncodings"`
	Metadata           map[string]string `json:"metadata"`
	SessionID          string            `json:"sessionId"`
}

// ExportBundle is the recorded-history export shape consumed by MCAP
// tooling.
type ExportBundle struct {
	Format   string            `json:"format"`
	Version  string            `json:"version"`
	Channels []Channel         `json:"channels"`
	Messages []Message         `json:"messages"`
	Metadata map[string]string `json:"metadata"`
}

var channels = []Channel{
	{
		ID:         1,
		Topic:      "/robot/telemetry",
		Encoding:   "json",
		SchemaName: "robot_telemetry/Telemetry",
		Schema:     `{"type":"object","properties":{"header":{"type":"object"},"temperature":{"type":"object"},"battery":{"type":"object"},"motor":{"type":"object"},"status":{"type":"object"}}}`,
	},
	{
		ID:         2,
		Topic:      "/diagnostics",
		Encoding:   "json",
		SchemaName: "diagnostic_msgs/DiagnosticArray",
		Schema:     `{"type":"object","properties":{"header":{"type":"object"},"status":{"type":"array"}}}`,
	},
	{
		ID:         3,
		Topic:      "/robot/pose",
		Encoding:   "json",
		SchemaName: "geometry_msgs/PoseStamped",
		Schema:     `{"type":"object","properties":{"header":{"type":"object"},"pose":{"type":"object"}}}`,
	},
}

// Bridge converts samples to Foxglove channel messages.
type Bridge struct {
	robotID string
}

func NewBridge(robotID string) *Bridge {
	return &Bridge{robotID: robotID}
}

// Channels returns the static channel table.
func (b *Bridge) Channels() []Channel {
	return channels
}

// Info returns the bridge's server announcement.
func (b *Bridge) Info() ServerInfo {
	return ServerInfo{
		Name:               "Robot Telemetry Bridge",
		Capabilities:       []string{"clientPublish", "time", "parameters"},
		SupportedEncodings: []string{"json"},
		Metadata: map[string]string{
			"version":  "1.0.0",
			"robot_id": b.robotID,
		},
		SessionID: fmt.Sprintf("session_%d", time.Now().Unix()),
	}
}

// Convert maps one sample onto all three channels.
func (b *Bridge) Convert(s model.TelemetrySample) []Message {
	return []Message{
		b.telemetryMessage(s),
		b.diagnosticMessage(s),
		b.poseMessage(s),
	}
}

// Export bundles a telemetry history for MCAP recording.
func (b *Bridge) Export(history []model.TelemetrySample, interval time.Duration) ExportBundle {
	messages := make([]Message, 0, len(history)*3)
	for _, s := range history {
		messages = append(messages, b.Convert(s)...)
	}

	return ExportBundle{
		Format:   "foxglove_bridge_export",
		Version:  "1.0",
		Channels: channels,
		Messages: messages,
		Metadata: map[string]string{
			"exported_at":   time.Now().UTC().Format(time.RFC3339),
			"message_count": fmt.Sprintf("%d", len(messages)),
			"duration_sec":  fmt.Sprintf("%.0f", float64(len(history))*interval.Seconds()),
		},
	}
}

func stampNow() Stamp {
	now := time.Now().UTC().UnixNano()
	return Stamp{Sec: now / 1e9, Nsec: now % 1e9}
}

func (b *Bridge) telemetryMessage(s model.TelemetrySample) Message {
	stamp := stampNow()
	batteryFrac := float64(s.Battery) / 100.0

	powerStatus := 2
	if s.Battery <= 20 {
		powerStatus = 1
	}

	return Message{
		Topic:     "/robot/telemetry",
		Timestamp: stamp,
		Data: map[string]any{
			"header": Header{Stamp: stamp, FrameID: "robot_base"},
			"temperature": map[string]any{
				"value":    s.Temperature,
				"unit":     "celsius",
				"variance": 0.1,
			},
			"battery": map[string]any{
				"percentage":          batteryFrac,
				"voltage":             12.0 + batteryFrac*2.0,
				"current":             1.5,
				"charge":              batteryFrac * 5.0,
				"capacity":            5.0,
				"power_supply_status": powerStatus,
			},
			"motor": map[string]any{
				"rpm":      s.MotorRPM,
				"velocity": float64(s.MotorRPM) * 0.1047, // rad/s
				"effort":   math.Abs(float64(s.MotorRPM)) / 1800.0 * 100.0,
			},
			"status": map[string]any{
				"level":   statusLevel(s.Status),
				"name":    string(s.Status),
				"message": fmt.Sprintf("Robot is %s", s.Status),
			},
		},
	}
}

func (b *Bridge) diagnosticMessage(s model.TelemetrySample) Message {
	stamp := stampNow()

	level := 0
	if s.Status == model.ModeError {
		level = 2
	}

	return Message{
		Topic:     "/diagnostics",
		Timestamp: stamp,
		Data: map[string]any{
			"header": Header{Stamp: stamp},
			"status": []map[string]any{
				{
					"level":       level,
					"name":        "Robot Status",
					"message":     fmt.Sprintf("Robot is %s", s.Status),
					"hardware_id": b.robotID,
					"values": []map[string]string{
						{"key": "temperature", "value": fmt.Sprintf("%g", s.Temperature)},
						{"key": "battery", "value": fmt.Sprintf("%d", s.Battery)},
						{"key": "motor_rpm", "value": fmt.Sprintf("%d", s.MotorRPM)},
						{"key": "status", "value": string(s.Status)},
					},
				},
			},
		},
	}
}

func (b *Bridge) poseMessage(s model.TelemetrySample) Message {
	stamp := stampNow()

	// Simple position simulation driven by rpm while working.
	var x, y float64
	if s.Status == model.ModeWorking {
		t := float64(time.Now().Unix())
		rpmFrac := float64(s.MotorRPM) / 1800.0
		x = 2.0 * rpmFrac * math.Abs((math.Mod(t, 10)-5)/5)
		y = 1.0 * rpmFrac * math.Abs((math.Mod(t, 8)-4)/4)
	}

	return Message{
		Topic:     "/robot/pose",
		Timestamp: stamp,
		Data: map[string]any{
			"header": Header{Stamp: stamp, FrameID: "world"},
			"pose": map[string]any{
				"position":    map[string]float64{"x": x, "y": y, "z": 0.0},
				"orientation": map[string]float64{"x": 0.0, "y": 0.0, "z": 0.0, "w": 1.0},
			},
		},
	}
}

func statusLevel(m model.Mode) int {
	switch m {
	case model.ModeWorking:
		return 1
	case model.ModeError:
		return 2
	default:
		return 0
	}
}
