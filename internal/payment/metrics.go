package payment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygateway",
			Name:      "payment_submissions_total",
			Help:      "Payment submissions by result.",
		},
		[]string{"result"},
	)
	idempotencyChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygateway",
			Name:      "idempotency_checks_total",
			Help:      "Idempotency key checks by result.",
		},
		[]string{"result"},
	)
	bankRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paygateway",
			Name:      "bank_request_duration_seconds",
			Help:      "Latency of acquiring bank calls by outcome.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(submissionsTotal, idempotencyChecksTotal, bankRequestDuration)
}
