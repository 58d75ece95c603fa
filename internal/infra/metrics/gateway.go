package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(gatewayCallLatencyMs) }

var gatewayCallLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gateway_call_latency_ms",
		Help:    "External gateway call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 15000},
	},
	[]string{"gateway", "op", "success"},
)

func ObserveGatewayCall(gateway, op string, elapsed time.Duration, success bool) {
	gatewayCallLatencyMs.WithLabelValues(norm(gateway), norm(op), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}
