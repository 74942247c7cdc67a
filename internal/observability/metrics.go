package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tpkit",
			Subsystem: "transport",
			Name:      "frames_received_total",
			Help:      "Inbound frames split from the host stream.",
		},
		[]string{"plugin"},
	)
	malformedFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tpkit",
			Subsystem: "transport",
			Name:      "malformed_frames_total",
			Help:      "Inbound frames skipped because they failed to decode.",
		},
		[]string{"plugin"},
	)
	inboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tpkit",
			Subsystem: "dispatch",
			Name:      "messages_total",
			Help:      "Decoded inbound messages by type.",
		},
		[]string{"plugin", "type"},
	)
	outboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tpkit",
			Subsystem: "outbound",
			Name:      "messages_total",
			Help:      "Outbound messages handed to the transport by type.",
		},
		[]string{"plugin", "type"},
	)
	writes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tpkit",
			Subsystem: "outbound",
			Name:      "writes_total",
			Help:      "Transport writes by batch size class and result.",
		},
		[]string{"plugin", "batched", "success"},
	)
	writeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tpkit",
			Subsystem: "outbound",
			Name:      "write_duration_seconds",
			Help:      "Transport write duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"plugin"},
	)
	customStates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tpkit",
			Subsystem: "states",
			Name:      "registered",
			Help:      "Custom states currently registered by the client.",
		},
		[]string{"plugin"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tpkit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tpkit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesReceived,
			malformedFrames,
			inboundMessages,
			outboundMessages,
			writes,
			writeDuration,
			customStates,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordFrames(plugin string, n int) {
	RegisterMetrics()
	framesReceived.WithLabelValues(plugin).Add(float64(n))
}

func RecordMalformed(plugin string) {
	RegisterMetrics()
	malformedFrames.WithLabelValues(plugin).Inc()
}

// RecordInbound counts one dispatched message; msgType should already be
// bounded to known types.
func RecordInbound(plugin, msgType string) {
	RegisterMetrics()
	inboundMessages.WithLabelValues(plugin, msgType).Inc()
}

func RecordWrite(plugin string, types []string, duration time.Duration, success bool) {
	RegisterMetrics()
	batched := strconv.FormatBool(len(types) > 1)
	writes.WithLabelValues(plugin, batched, strconv.FormatBool(success)).Inc()
	writeDuration.WithLabelValues(plugin).Observe(duration.Seconds())
	if !success {
		return
	}
	for _, t := range types {
		outboundMessages.WithLabelValues(plugin, t).Inc()
	}
}

func SetCustomStates(plugin string, n int) {
	RegisterMetrics()
	customStates.WithLabelValues(plugin).Set(float64(n))
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
