package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type fakeAbandoner struct {
	batches   []int
	idleSince time.Time
	err       error
}

func (f *fakeAbandoner) AbandonIdleGuests(_ context.Context, idleSince time.Time, _ int) (int, error) {
	f.idleSince = idleSince
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

type fakePurger struct {
	batches []int64
	before  time.Time
	calls   int
	err     error
}

func (f *fakePurger) PurgeClosed(_ context.Context, before time.Time, _ int) (int64, error) {
	f.calls++
	f.before = before
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func newCartJob(t *testing.T, carts *fakeAbandoner, purger *fakePurger) *cartLifecycleJob {
	t.Helper()
	job, err := NewCartLifecycleJob(CartLifecycleJobParams{
		Logger:    logger.Nop(),
		Carts:     carts,
		Purger:    purger,
		BatchSize: 2,
	})
	if err != nil {
		t.Fatalf("NewCartLifecycleJob: %v", err)
	}
	return job.(*cartLifecycleJob)
}

func TestCartLifecycleDrainsBatches(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	carts := &fakeAbandoner{batches: []int{2, 2, 1}}
	purger := &fakePurger{batches: []int64{2, 0}}
	job := newCartJob(t, carts, purger)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(carts.batches) != 0 {
		t.Fatalf("expected all abandon batches consumed, left %v", carts.batches)
	}
	if purger.calls != 2 {
		t.Fatalf("expected 2 purge calls, got %d", purger.calls)
	}
	if want := now.Add(-defaultGuestIdle); !carts.idleSince.Equal(want) {
		t.Fatalf("idleSince = %s, want %s", carts.idleSince, want)
	}
	if want := now.Add(-defaultClosedCartTTL); !purger.before.Equal(want) {
		t.Fatalf("before = %s, want %s", purger.before, want)
	}
}

func TestCartLifecycleRunsBothHalvesOnFailure(t *testing.T) {
	carts := &fakeAbandoner{err: errors.New("abandon boom")}
	purger := &fakePurger{err: errors.New("purge boom")}
	job := newCartJob(t, carts, purger)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if purger.calls != 1 {
		t.Fatalf("purge should still run, calls = %d", purger.calls)
	}
	for _, want := range []string{"abandon boom", "purge boom"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestCartLifecycleRequiresDeps(t *testing.T) {
	if _, err := NewCartLifecycleJob(CartLifecycleJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected missing dependency error")
	}
}
