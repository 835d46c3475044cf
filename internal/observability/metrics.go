package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	TurnOutcomes     *prometheus.CounterVec
	CaptureErrors    *prometheus.CounterVec
	PhaseTransitions *prometheus.CounterVec
	WSWriteErrors    *prometheus.CounterVec
	OutboundQueue    *prometheus.CounterVec
	FeedbackLatency  prometheus.Histogram

	stageWindow *StageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active practice sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		TurnOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_outcomes_total",
			Help:      "Conversation turn outcomes by label.",
		}, []string{"outcome"}),
		CaptureErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Capture errors by classified code.",
		}, []string{"code"}),
		PhaseTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Turn machine transitions by source and target phase.",
		}, []string{"from", "to"}),
		WSWriteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_write_errors_total",
			Help:      "WebSocket write failures by kind.",
		}, []string{"kind"}),
		OutboundQueue: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_queue_total",
			Help:      "Outbound message queueing results by type.",
		}, []string{"type", "result"}),
		FeedbackLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feedback_latency_ms",
			Help:      "Latency of the remote feedback call in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000},
		}),
		stageWindow: NewStageWindow(256),
	}
}

// ObserveOutboundMessage records whether an outbound message was queued or
// dropped because the connection's send buffer was full.
func (m *Metrics) ObserveOutboundMessage(msgType, result string) {
	m.OutboundQueue.WithLabelValues(msgType, result).Inc()
}

func (m *Metrics) ObserveFeedbackLatency(d time.Duration) {
	m.FeedbackLatency.Observe(float64(d.Milliseconds()))
}

// ObserveStage records one turn-stage duration in both the histogramless
// rolling window and, for the processing stage, the latency histogram.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageWindow.Observe(stage, float64(d.Milliseconds()))
	if stage == "process" {
		m.ObserveFeedbackLatency(d)
	}
}

// StageSnapshot exposes the rolling turn-stage latency stats.
func (m *Metrics) StageSnapshot() StageWindowSnapshot {
	return m.stageWindow.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
