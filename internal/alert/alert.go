// Package alert turns telemetry samples into alert events.
//
// Evaluation is stateless and level-triggered: every sample that meets a
// condition re-raises the alert, with no debouncing between ticks.
package alert

import (
	"fmt"

	"robot-telemetry/internal/model"
)

// Thresholds for the alert rules.
const (
	TempWarningThreshold     = 50.0
	TempCriticalThreshold    = 55.0
	BatteryWarningThreshold  = 20
	BatteryCriticalThreshold = 10
)

// Evaluate applies every rule independently and returns all matching
// alerts: temperature rules first, then battery, then status.
func Evaluate(s model.TelemetrySample) []model.AlertEvent {
	var alerts []model.AlertEvent

	if s.Temperature > TempWarningThreshold {
		alerts = append(alerts, model.AlertEvent{
			Type:      model.AlertWarning,
			Category:  model.CategoryTemperature,
			Message:   fmt.Sprintf("High temperature: %.1f°C", s.Temperature),
			Threshold: TempWarningThreshold,
			Value:     s.Temperature,
		})
	}
	if s.Temperature > TempCriticalThreshold {
		alerts = append(alerts, model.AlertEvent{
			Type:      model.AlertCritical,
			Category:  model.CategoryTemperature,
			Message:   fmt.Sprintf("Critical temperature: %.1f°C", s.Temperature),
			Threshold: TempCriticalThreshold,
			Value:     s.Temperature,
		})
	}

	if s.Battery < BatteryWarningThreshold {
		alerts = append(alerts, model.AlertEvent{
			Type:      model.AlertWarning,
			Category:  model.CategoryBattery,
			Message:   fmt.Sprintf("Low battery: %d%%", s.Battery),
			Threshold: BatteryWarningThreshold,
			Value:     float64(s.Battery),
		})
	}
	if s.Battery < BatteryCriticalThreshold {
		alerts = append(alerts, model.AlertEvent{
			Type:      model.AlertCritical,
			Category:  model.CategoryBattery,
			Message:   fmt.Sprintf("Critical battery: %d%%", s.Battery),
			Threshold: BatteryCriticalThreshold,
			Value:     float64(s.Battery),
		})
	}

	if s.Status == model.ModeError {
		alerts = append(alerts, model.AlertEvent{
			Type:     model.AlertCritical,
			Category: model.CategoryStatus,
			Message:  "Robot in ERROR state",
		})
	}

	return alerts
}
