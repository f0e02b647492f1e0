package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes used as the "outcome" label.
const (
	OutcomeCreated   = "created"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// CheckoutMetrics tracks order creation.
type CheckoutMetrics struct {
	attempts   *prometheus.CounterVec
	duration   prometheus.Histogram
	orderValue prometheus.Histogram
	coupons    *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_attempts_total",
		Help: "Checkout attempts partitioned by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Time spent creating an order, transaction included.",
		Buckets: prometheus.DefBuckets,
	})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_order_grand_total",
		Help:    "Grand total of created orders in store currency.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	coupons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_coupon_rejections_total",
		Help: "Coupons rejected during cart evaluation or checkout, by reason.",
	}, []string{"reason"})
	reg.MustRegister(attempts, duration, orderValue, coupons)
	return &CheckoutMetrics{
		attempts:   attempts,
		duration:   duration,
		orderValue: orderValue,
		coupons:    coupons,
	}
}

// Observe records one finished checkout.
func (m *CheckoutMetrics) Observe(outcome string, elapsed time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *CheckoutMetrics) ObserveOrderValue(total float64) {
	if m == nil || m.orderValue == nil {
		return
	}
	m.orderValue.Observe(total)
}

func (m *CheckoutMetrics) IncCouponRejection(reason string) {
	if m == nil || m.coupons == nil {
		return
	}
	m.coupons.WithLabelValues(normalizeLabel(reason)).Inc()
}
