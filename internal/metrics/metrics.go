package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airticket_booking_operations_total",
			Help: "Booking lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	SeatConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airticket_seat_conflicts_total",
			Help: "Inserts or seat moves rejected by the active seat unique index",
		},
	)

	PaymentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airticket_payment_charge_duration_seconds",
			Help:    "Duration of payment gateway charges",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airticket_notification_failures_total",
			Help: "Notifications that could not be handed to the sink",
		},
	)

	FlightsCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airticket_flights_cache_total",
			Help: "Flight list cache lookups",
		},
		[]string{"result"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airticket_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveBooking records the outcome of a lifecycle operation.
func ObserveBooking(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	BookingOperations.WithLabelValues(operation, outcome).Inc()
}

// HTTP records request latency labelled by route template.
func HTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
