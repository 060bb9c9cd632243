package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netmsg",
			Subsystem: "transport",
			Name:      "frames_total",
			Help:      "Framed messages read or written.",
		},
		[]string{"network", "direction"},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "netmsg",
			Subsystem: "transport",
			Name:      "frame_bytes",
			Help:      "Payload size of framed messages in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 11),
		},
		[]string{"direction"},
	)
	connectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "netmsg",
			Subsystem: "transport",
			Name:      "connections_active",
			Help:      "Open client connections.",
		},
		[]string{"network"},
	)
	codecErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netmsg",
			Subsystem: "codec",
			Name:      "errors_total",
			Help:      "Message codec failures by kind.",
		},
		[]string{"kind"},
	)
	adminRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netmsg",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin HTTP requests.",
		},
		[]string{"node", "method", "route", "status"},
	)
	adminDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "netmsg",
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "route", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, frameBytes, connectionsActive, codecErrors, adminRequests, adminDuration)
	})
}

func RecordFrame(network, direction string, payloadBytes int) {
	RegisterMetrics()
	framesTotal.WithLabelValues(network, direction).Inc()
	frameBytes.WithLabelValues(direction).Observe(float64(payloadBytes))
}

func RecordCodecError(kind string) {
	RegisterMetrics()
	codecErrors.WithLabelValues(kind).Inc()
}

// TrackConnection bumps the open-connection gauge and returns its release.
func TrackConnection(network string) func() {
	RegisterMetrics()
	g := connectionsActive.WithLabelValues(network)
	g.Inc()
	var once sync.Once
	return func() {
		once.Do(g.Dec)
	}
}

func RecordAdminRequest(node, method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	adminRequests.WithLabelValues(node, method, route, statusLabel).Inc()
	adminDuration.WithLabelValues(node, method, route, statusLabel).Observe(duration.Seconds())
}
