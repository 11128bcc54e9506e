package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

// Metrics holds the Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	BorrowingsCreated    prometheus.Counter
	BorrowingsReturned   prometheus.Counter
	FinesCreated         prometheus.Counter
	PaymentFailures      *prometheus.CounterVec
	OverdueBorrowings    prometheus.Gauge
	Notifications        *prometheus.CounterVec
	UpdateProcessingTime prometheus.Histogram
	CommandsProcessed    *prometheus.CounterVec
}

// New registers the collectors in reg. Use a fresh registry per test.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BorrowingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "borrowings_created_total",
			Help:      "Borrowings created.",
		}),
		BorrowingsReturned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "borrowings_returned_total",
			Help:      "Borrowings returned.",
		}),
		FinesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fines_created_total",
			Help:      "Late-return fines issued.",
		}),
		PaymentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_failures_total",
			Help:      "Payment sessions that could not be created, by payment type.",
		}, []string{"type"}),
		OverdueBorrowings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overdue_borrowings",
			Help:      "Active borrowings past their expected return date at the last check.",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification delivery outcomes.",
		}, []string{"outcome"}),
		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bot_update_processing_seconds",
			Help:      "Time spent processing chat updates.",
			Buckets:   prometheus.DefBuckets,
		}),
		CommandsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_commands_total",
			Help:      "Chat commands processed.",
		}, []string{"command"}),
	}
}

func (m *Metrics) BorrowingCreated() {
	if m == nil {
		return
	}
	m.BorrowingsCreated.Inc()
}

func (m *Metrics) BorrowingReturned() {
	if m == nil {
		return
	}
	m.BorrowingsReturned.Inc()
}

func (m *Metrics) FineCreated() {
	if m == nil {
		return
	}
	m.FinesCreated.Inc()
}

func (m *Metrics) PaymentFailed(paymentType string) {
	if m == nil {
		return
	}
	m.PaymentFailures.WithLabelValues(paymentType).Inc()
}

func (m *Metrics) SetOverdue(n int) {
	if m == nil {
		return
	}
	m.OverdueBorrowings.Set(float64(n))
}

// NotificationOutcome counts queued, sent, retried and failed deliveries.
func (m *Metrics) NotificationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveUpdate(start time.Time) {
	if m == nil {
		return
	}
	m.UpdateProcessingTime.Observe(time.Since(start).Seconds())
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.CommandsProcessed.WithLabelValues(name).Inc()
}
