package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast and delivery confirmation are best-effort: their failures are
// observed here and in logs, never through a request's result.
var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spill_messages_sent_total",
		Help: "Messages persisted by the delivery pipeline.",
	})

	DeliveryConfirmations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spill_delivery_confirmations_total",
		Help: "Deferred delivery confirmations applied.",
	})

	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spill_delivery_failures_total",
		Help: "Deferred delivery confirmations that failed and were dropped.",
	})

	RelayPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spill_relay_publish_failures_total",
		Help: "Relay broadcasts that failed after the operation was persisted.",
	})

	RelayDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spill_relay_dropped_frames_total",
		Help: "Inbound relay frames dropped as malformed.",
	})
)
