package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	AppointmentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_transitions_total",
			Help: "Booking lifecycle transitions by kind and outcome",
		},
		[]string{"transition", "outcome"},
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_total",
			Help: "Dispatched notification emails by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

func Register() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AppointmentTransitions,
		EmailsSent,
	)
}
