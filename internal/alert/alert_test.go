package alert

import (
	"testing"
	"time"

	"robot-telemetry/internal/model"

	"github.com/stretchr/testify/require"
)

func sample(temp float64, battery, rpm int, mode model.Mode) model.TelemetrySample {
	return model.TelemetrySample{
		Temperature: temp,
		Battery:     battery,
		MotorRPM:    rpm,
		Status:      mode,
		Timestamp:   time.Now().UTC(),
	}
}

func TestEvaluateTemperature(t *testing.T) {
	alerts := Evaluate(sample(56, 50, 100, model.ModeWorking))

	require.Len(t, alerts, 2)

	require.Equal(t, model.AlertWarning, alerts[0].Type)
	require.Equal(t, model.CategoryTemperature, alerts[0].Category)
	require.Equal(t, 50.0, alerts[0].Threshold)
	require.Equal(t, 56.0, alerts[0].Value)

	require.Equal(t, model.AlertCritical, alerts[1].Type)
	require.Equal(t, model.CategoryTemperature, alerts[1].Category)
	require.Equal(t, 55.0, alerts[1].Threshold)
	require.Equal(t, 56.0, alerts[1].Value)
}

func TestEvaluateBattery(t *testing.T) {
	alerts := Evaluate(sample(40, 5, 100, model.ModeIdle))

	require.Len(t, alerts, 2)

	require.Equal(t, model.AlertWarning, alerts[0].Type)
	require.Equal(t, model.CategoryBattery, alerts[0].Category)
	require.Equal(t, 20.0, alerts[0].Threshold)
	require.Equal(t, 5.0, alerts[0].Value)

	require.Equal(t, model.AlertCritical, alerts[1].Type)
	require.Equal(t, model.CategoryBattery, alerts[1].Category)
	require.Equal(t, 10.0, alerts[1].Threshold)
}

func TestEvaluateErrorStatus(t *testing.T) {
	alerts := Evaluate(sample(45, 80, 100, model.ModeError))

	require.Len(t, alerts, 1)
	require.Equal(t, model.AlertCritical, alerts[0].Type)
	require.Equal(t, model.CategoryStatus, alerts[0].Category)
	require.Equal(t, "Robot in ERROR state", alerts[0].Message)
	// threshold/value omitted for the status category
	require.Zero(t, alerts[0].Threshold)
	require.Zero(t, alerts[0].Value)
}

func TestEvaluateNominal(t *testing.T) {
	require.Empty(t, Evaluate(sample(45, 80, 1400, model.ModeWorking)))
}

func TestEvaluateAllRulesOrdered(t *testing.T) {
	alerts := Evaluate(sample(58, 5, 0, model.ModeError))

	require.Len(t, alerts, 5)
	require.Equal(t, model.CategoryTemperature, alerts[0].Category)
	require.Equal(t, model.AlertWarning, alerts[0].Type)
	require.Equal(t, model.CategoryTemperature, alerts[1].Category)
	require.Equal(t, model.AlertCritical, alerts[1].Type)
	require.Equal(t, model.CategoryBattery, alerts[2].Category)
	require.Equal(t, model.AlertWarning, alerts[2].Type)
	require.Equal(t, model.CategoryBattery, alerts[3].Category)
	require.Equal(t, model.AlertCritical, alerts[3].Type)
	require.Equal(t, model.CategoryStatus, alerts[4].Category)
}

// Thresholds are strict comparisons: values at the threshold raise nothing.
func TestEvaluateBoundaries(t *testing.T) {
	t.Run("temperature at warning threshold", func(t *testing.T) {
		require.Empty(t, Evaluate(sample(50, 80, 100, model.ModeWorking)))
	})

	t.Run("temperature above warning only", func(t *testing.T) {
		alerts := Evaluate(sample(55, 80, 100, model.ModeWorking))
		require.Len(t, alerts, 1)
		require.Equal(t, model.AlertWarning, alerts[0].Type)
	})

	t.Run("battery at warning threshold", func(t *testing.T) {
		require.Empty(t, Evaluate(sample(45, 20, 100, model.ModeWorking)))
	})

	t.Run("battery below warning only", func(t *testing.T) {
		alerts := Evaluate(sample(45, 10, 100, model.ModeWorking))
		require.Len(t, alerts, 1)
		require.Equal(t, model.AlertWarning, alerts[0].Type)
		require.Equal(t, model.CategoryBattery, alerts[0].Category)
	})
}

// The evaluator is stateless: re-evaluating the same qualifying sample
// re-raises the same alerts every time.
func TestEvaluateLevelTriggered(t *testing.T) {
	s := sample(56, 50, 100, model.ModeWorking)
	first := Evaluate(s)
	second := Evaluate(s)
	require.Equal(t, first, second)
}
