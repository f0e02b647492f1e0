package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCheckoutMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.Observe(OutcomeCreated, 40*time.Millisecond)
	m.Observe(OutcomeCreated, 10*time.Millisecond)
	m.Observe(OutcomeRejected, time.Millisecond)
	m.IncCouponRejection("expired")
	m.ObserveOrderValue(120.5)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_checkout_attempts_total", "outcome", OutcomeCreated); err != nil || got != 2 {
		t.Fatalf("expected created=2, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_coupon_rejections_total", "reason", "expired"); err != nil || got != 1 {
		t.Fatalf("expected expired=1, got %f err=%v", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var checkout *CheckoutMetrics
	checkout.Observe(OutcomeFailed, time.Second)
	checkout.IncCouponRejection("x")

	var outbox *OutboxMetrics
	outbox.IncPublished("order_created")

	unregistered := NewOutboxMetrics(nil)
	unregistered.IncDeadLetter("order_created", "max_attempts")
}

func TestOutboxMetricsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("order_created")
	m.IncDeadLetter("order_created", "non_retryable")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_outbox_published_total", "event_type", "order_created"); err != nil || got != 1 {
		t.Fatalf("expected published=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_outbox_dead_letters_total", "reason", "non_retryable"); err != nil || got != 1 {
		t.Fatalf("expected dead letter=1, got %f err=%v", got, err)
	}
}
