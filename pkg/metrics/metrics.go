package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Topic metrics
	TopicsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "topicgate_topics_active",
			Help: "Current number of tracked topics in the registry",
		},
	)

	TopicsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topicgate_topics_created_total",
			Help: "Total number of topics allocated via CreateTopic",
		},
	)

	TopicsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topicgate_topics_deleted_total",
			Help: "Total number of accepted DeleteTopic requests, including requests for unknown topics",
		},
	)

	SubscriberCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topicgate_topic_subscriber_count",
			Help: "Current subscriber count for a given topic",
		},
		[]string{"topic_id"},
	)

	// Lifecycle action metrics
	ManagementActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicgate_management_actions_total",
			Help: "Total number of START/STOP/DELETE actions emitted by the topic manager",
		},
		[]string{"action"},
	)

	CallbackDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topicgate_callback_dispatch_duration_seconds",
			Help:    "Time taken to deliver a ManageTopic callback to a publisher",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	CallbackFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicgate_callback_failures_total",
			Help: "Total number of failed publisher callback deliveries",
		},
		[]string{"action"},
	)

	// Broker connector metrics
	BrokerReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topicgate_broker_reconnects_total",
			Help: "Total number of broker connector reconnect attempts",
		},
	)

	BrokerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicgate_broker_events_total",
			Help: "Total number of events received from the broker connector by kind",
		},
		[]string{"kind"},
	)

	// Cleanup sweep metrics
	CleanupSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topicgate_cleanup_sweep_duration_seconds",
			Help:    "Time taken for one cleanup sweep pass over the registry",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RPC metrics
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicgate_rpc_requests_total",
			Help: "Total number of PubSub RPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topicgate_rpc_request_duration_seconds",
			Help:    "PubSub RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(TopicsActive)
	prometheus.MustRegister(TopicsCreatedTotal)
	prometheus.MustRegister(TopicsDeletedTotal)
	prometheus.MustRegister(SubscriberCount)
	prometheus.MustRegister(ManagementActionsTotal)
	prometheus.MustRegister(CallbackDispatchDuration)
	prometheus.MustRegister(CallbackFailuresTotal)
	prometheus.MustRegister(BrokerReconnectsTotal)
	prometheus.MustRegister(BrokerEventsTotal)
	prometheus.MustRegister(CleanupSweepDuration)
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
