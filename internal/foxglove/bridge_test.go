package foxglove

import (
	"testing"
	"time"

	"robot-telemetry/internal/model"

	"github.com/stretchr/testify/require"
)

func sample(mode model.Mode, battery, rpm int) model.TelemetrySample {
	return model.TelemetrySample{
		Temperature: 45.3,
		Battery:     battery,
		MotorRPM:    rpm,
		Status:      mode,
		Timestamp:   time.Now().UTC(),
	}
}

func TestChannelsAreStable(t *testing.T) {
	b := NewBridge("robot_001")
	chans := b.Channels()
	require.Len(t, chans, 3)

	topics := make([]string, 0, len(chans))
	for i, ch := range chans {
		require.Equal(t, i+1, ch.ID)
		require.Equal(t, "json", ch.Encoding)
		topics = append(topics, ch.Topic)
	}
	require.Equal(t, []string{"/robot/telemetry", "/diagnostics", "/robot/pose"}, topics)
}

func TestInfoCarriesRobotID(t *testing.T) {
	b := NewBridge("robot_042")
	info := b.Info()
	require.Equal(t, "robot_042", info.Metadata["robot_id"])
	require.Contains(t, info.SupportedEncodings, "json")
	require.NotEmpty(t, info.SessionID)
}

func TestConvertProducesOneMessagePerChannel(t *testing.T) {
	b := NewBridge("robot_001")
	msgs := b.Convert(sample(model.ModeWorking, 80, 1500))
	require.Len(t, msgs, 3)
	require.Equal(t, "/robot/telemetry", msgs[0].Topic)
	require.Equal(t, "/diagnostics", msgs[1].Topic)
	require.Equal(t, "/robot/pose", msgs[2].Topic)
}

func TestTelemetryMessageFields(t *testing.T) {
	b := NewBridge("robot_001")

	t.Run("healthy battery", func(t *testing.T) {
		msg := b.telemetryMessage(sample(model.ModeWorking, 80, 1500))
		data := msg.Data.(map[string]any)

		battery := data["battery"].(map[string]any)
		require.InDelta(t, 0.8, battery["percentage"], 1e-9)
		require.InDelta(t, 13.6, battery["voltage"], 1e-9)
		require.Equal(t, 2, battery["power_supply_status"])

		motor := data["motor"].(map[string]any)
		require.Equal(t, 1500, motor["rpm"])
		require.InDelta(t, 1500*0.1047, motor["velocity"].(float64), 1e-9)

		status := data["status"].(map[string]any)
		require.Equal(t, 1, status["level"])
	})

	t.Run("low battery flips power supply status", func(t *testing.T) {
		msg := b.telemetryMessage(sample(model.ModeIdle, 15, 900))
		battery := msg.Data.(map[string]any)["battery"].(map[string]any)
		require.Equal(t, 1, battery["power_supply_status"])
	})
}

func TestDiagnosticLevels(t *testing.T) {
	b := NewBridge("robot_001")

	for _, tc := range []struct {
		mode  model.Mode
		level int
	}{
		{model.ModeIdle, 0},
		{model.ModeWorking, 0},
		{model.ModeError, 2},
	} {
		t.Run(string(tc.mode), func(t *testing.T) {
			msg := b.diagnosticMessage(sample(tc.mode, 50, 1000))
			statuses := msg.Data.(map[string]any)["status"].([]map[string]any)
			require.Len(t, statuses, 1)
			require.Equal(t, tc.level, statuses[0]["level"])
			require.Equal(t, "robot_001", statuses[0]["hardware_id"])
		})
	}
}

func TestPoseStationaryUnlessWorking(t *testing.T) {
	b := NewBridge("robot_001")

	for _, mode := range []model.Mode{model.ModeIdle, model.ModeError} {
		msg := b.poseMessage(sample(mode, 50, 1500))
		pose := msg.Data.(map[string]any)["pose"].(map[string]any)
		pos := pose["position"].(map[string]float64)
		require.Zero(t, pos["x"])
		require.Zero(t, pos["y"])
	}
}

func TestExportBundle(t *testing.T) {
	b := NewBridge("robot_001")
	history := []model.TelemetrySample{
		sample(model.ModeIdle, 90, 900),
		sample(model.ModeWorking, 85, 1400),
	}

	bundle := b.Export(history, 2*time.Second)
	require.Equal(t, "foxglove_bridge_export", bundle.Format)
	require.Len(t, bundle.Messages, len(history)*3)
	require.Equal(t, channels, bundle.Channels)
	require.Equal(t, "6", bundle.Metadata["message_count"])
	require.Equal(t, "4", bundle.Metadata["duration_sec"])
}
