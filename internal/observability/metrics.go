package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics for the generation loop and the broadcast hub.
var (
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "robot_telemetry_ticks_total",
		Help: "Total telemetry generation ticks completed.",
	})
	SaveFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "robot_telemetry_save_failures_total",
		Help: "Telemetry persistence writes that failed and were skipped.",
	})
	AlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "robot_telemetry_alerts_total",
		Help: "Alerts emitted by the evaluator, by severity.",
	}, []string{"severity"})
	BroadcastDropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "robot_telemetry_broadcast_drops_total",
		Help: "Messages dropped because a subscriber's send buffer was full.",
	})
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "robot_telemetry_connected_clients",
		Help: "Currently connected WebSocket subscribers.",
	})
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		SaveFailuresTotal,
		AlertsTotal,
		BroadcastDropsTotal,
		ConnectedClients,
	)
}
