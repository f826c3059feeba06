package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the console's collectors.
	Registry = prometheus.NewRegistry()

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_console",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Inbound realtime events by channel domain and event name.",
		},
		[]string{"domain", "event"},
	)

	realtimeStates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_console",
			Subsystem: "realtime",
			Name:      "state_transitions_total",
			Help:      "Realtime connection state changes by domain and target state.",
		},
		[]string{"domain", "state"},
	)

	realtimeMalformed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_console",
			Subsystem: "realtime",
			Name:      "malformed_frames_total",
			Help:      "Frames that could not be decoded.",
		},
		[]string{"domain"},
	)

	cacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_console",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Query invalidations by key prefix and origin.",
		},
		[]string{"prefix", "origin"},
	)

	toasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_console",
			Subsystem: "notify",
			Name:      "toasts_total",
			Help:      "Transient alerts shown by level.",
		},
		[]string{"level"},
	)

	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_console",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status change attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		realtimeEvents,
		realtimeStates,
		realtimeMalformed,
		cacheInvalidations,
		toasts,
		orderTransitions,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// OtherEvent label for events nobody listens to, so server-chosen names
// cannot grow the series count.
const OtherEvent = "other"

// ObserveEvent counts an inbound realtime event. event must be a name with a
// registered handler or OtherEvent.
func ObserveEvent(domain, event string) {
	realtimeEvents.WithLabelValues(domain, event).Inc()
}

// ObserveState counts a connection state change.
func ObserveState(domain, state string) {
	realtimeStates.WithLabelValues(domain, state).Inc()
}

// ObserveMalformed counts an undecodable frame.
func ObserveMalformed(domain string) {
	realtimeMalformed.WithLabelValues(domain).Inc()
}

// ObserveInvalidation counts a cache invalidation. prefix is a key family,
// never a key carrying an id.
func ObserveInvalidation(prefix, origin string) {
	cacheInvalidations.WithLabelValues(prefix, origin).Inc()
}

// ObserveToast counts a toast.
func ObserveToast(level string) {
	toasts.WithLabelValues(level).Inc()
}

// Order transition outcomes.
const (
	OutcomeApplied        = "applied"
	OutcomeLocalRejected  = "local_rejected"
	OutcomeRemoteRejected = "remote_rejected"
	OutcomeFailed         = "failed"
)

// ObserveTransition counts an order status change attempt.
func ObserveTransition(outcome string) {
	orderTransitions.WithLabelValues(outcome).Inc()
}
