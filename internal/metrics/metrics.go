package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcomes.
const (
	OutcomeIdle         = "idle"
	OutcomeIncident     = "incident"
	OutcomeUnclassified = "unclassified"
	OutcomeError        = "error"
)

var (
	cyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incident_agent",
		Name:      "cycles_total",
		Help:      "Total number of correlation cycles, partitioned by outcome.",
	}, []string{"outcome"})

	cycleDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "incident_agent",
		Name:      "cycle_seconds",
		Help:      "Correlation cycle latency in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	incidentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "incident_agent",
		Name:      "incidents_total",
		Help:      "Total number of incidents created.",
	})

	actionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incident_agent",
		Name:      "actions_total",
		Help:      "Total number of resolved actions, partitioned by type and status.",
	}, []string{"type", "status"})

	liveSubscribers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "incident_agent",
		Name:      "live_subscribers",
		Help:      "Currently connected live update subscribers per topic.",
	}, []string{"topic"})

	liveDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incident_agent",
		Name:      "live_dropped_total",
		Help:      "Live update messages dropped because a subscriber queue was full.",
	}, []string{"topic"})

	blockedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "incident_agent",
		Name:      "blocked_requests_total",
		Help:      "API requests rejected because the caller address has a block decision.",
	})
)

// Register attaches the agent collectors to the supplied registerer. Safe to call twice.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		cyclesTotal,
		cycleDurationSeconds,
		incidentsTotal,
		actionsTotal,
		liveSubscribers,
		liveDroppedTotal,
		blockedRequestsTotal,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCycle records a cycle duration and outcome label.
func ObserveCycle(duration time.Duration, outcome string) {
	cyclesTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	cycleDurationSeconds.Observe(duration.Seconds())
}

// IncIncident increments the created incidents counter.
func IncIncident() { incidentsTotal.Inc() }

// IncAction counts a resolved action.
func IncAction(actionType, status string) { actionsTotal.WithLabelValues(actionType, status).Inc() }

// SetSubscribers sets the subscriber gauge for a topic.
func SetSubscribers(topic string, n int) { liveSubscribers.WithLabelValues(topic).Set(float64(n)) }

// IncDropped counts a message dropped for a slow subscriber.
func IncDropped(topic string) { liveDroppedTotal.WithLabelValues(topic).Inc() }

// IncBlockedRequest counts an API request rejected by the block list guard.
func IncBlockedRequest() { blockedRequestsTotal.Inc() }
