package middleware

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	latencyBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10}

	inFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paygateway",
		Name:      "in_flight_requests",
		Help:      "A gauge of requests currently being served by the wrapped handler.",
	})
)

func init() {
	prometheus.MustRegister(inFlightGauge)
}

// registerOrExisting registers c, returning the already registered
// collector when an identical one exists.
func registerOrExisting[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// InstrumentHandler records request counts and latency for h under name
func InstrumentHandler(name string, h http.Handler) http.Handler {
	requests := registerOrExisting(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "paygateway",
			Name:        "api_requests_total",
			Help:        "Number of requests per handler.",
			ConstLabels: prometheus.Labels{"handler": name},
		},
		[]string{"code", "method"},
	))

	latency := registerOrExisting(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "paygateway",
			Name:        "request_duration_seconds",
			Help:        "A histogram of latencies for requests.",
			Buckets:     latencyBuckets,
			ConstLabels: prometheus.Labels{"handler": name},
		},
		[]string{"method"},
	))

	return promhttp.InstrumentHandlerInFlight(inFlightGauge,
		promhttp.InstrumentHandlerCounter(requests, promhttp.InstrumentHandlerDuration(latency, h)),
	)
}

// Metrics returns the prometheus /metrics handler
func Metrics() http.Handler {
	return promhttp.Handler()
}
