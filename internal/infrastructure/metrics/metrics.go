package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics holds every collector the checkout service exports.
type CheckoutMetrics struct {
	// Reservation
	LocksTotal         *prometheus.CounterVec
	ReservedUnitsTotal prometheus.Counter
	LockDuration       prometheus.Histogram

	// Finalization
	SessionsCreatedTotal *prometheus.CounterVec
	CheckoutAmountTotal  *prometheus.CounterVec

	// Terminal transitions
	TransactionsTotal  *prometheus.CounterVec
	ReleasedUnitsTotal prometheus.Counter

	// Webhooks
	WebhookEventsTotal *prometheus.CounterVec

	// Reaper
	ReaperSweepsTotal  *prometheus.CounterVec
	ReaperExpiredTotal prometheus.Counter
}

// NewCheckoutMetrics registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	factory := promauto.With(reg)
	return &CheckoutMetrics{
		LocksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_locks_total",
				Help: "Reservation attempts by outcome",
			},
			[]string{"outcome"},
		),
		ReservedUnitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_reserved_units_total",
				Help: "Units of stock reserved by successful locks",
			},
		),
		LockDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "checkout_lock_duration_seconds",
				Help:    "Time spent reserving a cart",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
		),
		SessionsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_payment_sessions_total",
				Help: "Proceed-to-payment requests by outcome",
			},
			[]string{"outcome"},
		),
		CheckoutAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_amount_total",
				Help: "Amount sent to the payment gateway",
			},
			[]string{"currency"},
		),
		TransactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_transactions_terminal_total",
				Help: "Transactions that reached a terminal status",
			},
			[]string{"status", "reason"},
		),
		ReleasedUnitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_released_units_total",
				Help: "Units of stock returned to inventory",
			},
		),
		WebhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_webhook_events_total",
				Help: "Gateway webhook events by type and result",
			},
			[]string{"type", "result"},
		),
		ReaperSweepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_reaper_sweeps_total",
				Help: "Timeout reaper runs by outcome",
			},
			[]string{"outcome"},
		),
		ReaperExpiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_reaper_expired_total",
				Help: "Transactions failed by the timeout reaper",
			},
		),
	}
}

func (m *CheckoutMetrics) RecordLock(outcome string, units int, durationSeconds float64) {
	m.LocksTotal.WithLabelValues(outcome).Inc()
	m.LockDuration.Observe(durationSeconds)
	if units > 0 {
		m.ReservedUnitsTotal.Add(float64(units))
	}
}

func (m *CheckoutMetrics) RecordSession(outcome, currency string, amount float64) {
	m.SessionsCreatedTotal.WithLabelValues(outcome).Inc()
	if amount > 0 {
		m.CheckoutAmountTotal.WithLabelValues(currency).Add(amount)
	}
}

func (m *CheckoutMetrics) RecordTerminal(status, reason string) {
	m.TransactionsTotal.WithLabelValues(status, reason).Inc()
}

func (m *CheckoutMetrics) RecordReleased(units int) {
	m.ReleasedUnitsTotal.Add(float64(units))
}

func (m *CheckoutMetrics) RecordWebhook(eventType, result string) {
	m.WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
}

func (m *CheckoutMetrics) RecordReaperSweep(outcome string, expired int) {
	m.ReaperSweepsTotal.WithLabelValues(outcome).Inc()
	m.ReaperExpiredTotal.Add(float64(expired))
}
