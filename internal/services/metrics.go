package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Turn metrics
	TurnsProcessed  *prometheus.CounterVec
	TurnLatency     prometheus.Histogram
	TurnErrors      *prometheus.CounterVec
	EmergencyTurns  prometheus.Counter
	OnboardingSteps *prometheus.CounterVec

	// Memory metrics
	MemoriesExtracted prometheus.Counter
	MemoriesDeduped   prometheus.Counter

	// Protocol metrics
	ProtocolMatches *prometheus.CounterVec

	// WebSocket metrics
	WebSocketMessages *prometheus.CounterVec
}

// InitMetrics initializes the Prometheus metrics. The connection manager is
// sampled by a gauge collector so active socket counts stay live.
func InitMetrics(connManager *ConnectionManager) *Metrics {
	metrics := &Metrics{
		TurnsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "disha_turns_processed_total",
			Help: "Total number of chat turns processed by branch",
		}, []string{"branch"}), // "onboarding", "chat", "emergency"

		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "disha_turn_duration_seconds",
			Help:    "End-to-end turn latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		TurnErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "disha_turn_errors_total",
			Help: "Total number of turn failures by type",
		}, []string{"error_type"}),

		EmergencyTurns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "disha_emergency_turns_total",
			Help: "Total number of turns short-circuited by the emergency check",
		}),

		OnboardingSteps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "disha_onboarding_steps_total",
			Help: "Onboarding step transitions by outcome",
		}, []string{"outcome"}), // "advanced", "retried", "completed"

		MemoriesExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "disha_memories_extracted_total",
			Help: "Total number of newly stored long-term memories",
		}),

		MemoriesDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "disha_memories_deduplicated_total",
			Help: "Total number of extracted memories dropped as duplicates",
		}),

		ProtocolMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "disha_protocol_matches_total",
			Help: "Protocol matches injected into context by protocol name",
		}, []string{"protocol"}),

		WebSocketMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "disha_websocket_messages_total",
			Help: "Total number of WebSocket messages by type",
		}, []string{"type", "direction"}),
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "disha_websocket_connections_current",
			Help: "Current number of active WebSocket connections",
		},
		func() float64 {
			if connManager != nil {
				return float64(connManager.Count())
			}
			return 0
		},
	))

	return metrics
}
