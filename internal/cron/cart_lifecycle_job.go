package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultGuestIdle     = 7 * 24 * time.Hour
	defaultClosedCartTTL = 90 * 24 * time.Hour
	defaultCartBatch     = 200
	// caps a single run so one backlog cannot hold the cron lock forever
	maxCartBatches = 50
)

type guestCartAbandoner interface {
	AbandonIdleGuests(ctx context.Context, idleSince time.Time, limit int) (int, error)
}

type closedCartPurger interface {
	PurgeClosed(ctx context.Context, before time.Time, limit int) (int64, error)
}

type CartLifecycleJobParams struct {
	Logger    *logger.Logger
	Carts     guestCartAbandoner
	Purger    closedCartPurger
	GuestIdle time.Duration
	ClosedTTL time.Duration
	BatchSize int
}

// NewCartLifecycleJob builds the job that abandons idle guest carts and
// deletes long-closed ones.
func NewCartLifecycleJob(params CartLifecycleJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	job := &cartLifecycleJob{
		logg:      params.Logger,
		carts:     params.Carts,
		purger:    params.Purger,
		guestIdle: params.GuestIdle,
		closedTTL: params.ClosedTTL,
		batch:     params.BatchSize,
		now:       time.Now,
	}
	if job.guestIdle <= 0 {
		job.guestIdle = defaultGuestIdle
	}
	if job.closedTTL <= 0 {
		job.closedTTL = defaultClosedCartTTL
	}
	if job.batch <= 0 {
		job.batch = defaultCartBatch
	}
	return job, nil
}

type cartLifecycleJob struct {
	logg      *logger.Logger
	carts     guestCartAbandoner
	purger    closedCartPurger
	guestIdle time.Duration
	closedTTL time.Duration
	batch     int
	now       func() time.Time
}

func (j *cartLifecycleJob) Name() string { return "cart-lifecycle" }

// Run abandons first so the purge never races a cart it just closed; both
// halves run even when the other fails.
func (j *cartLifecycleJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	abandoned, abandonErr := j.abandonIdle(ctx, now.Add(-j.guestIdle))
	purged, purgeErr := j.purgeClosed(ctx, now.Add(-j.closedTTL))

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"carts_abandoned": abandoned,
		"carts_purged":    purged,
	}), "cart lifecycle sweep complete")

	return multierr.Combine(abandonErr, purgeErr)
}

func (j *cartLifecycleJob) abandonIdle(ctx context.Context, idleSince time.Time) (int, error) {
	total := 0
	for i := 0; i < maxCartBatches; i++ {
		n, err := j.carts.AbandonIdleGuests(ctx, idleSince, j.batch)
		total += n
		if err != nil {
			return total, fmt.Errorf("abandon idle guest carts: %w", err)
		}
		if n < j.batch {
			break
		}
	}
	return total, nil
}

func (j *cartLifecycleJob) purgeClosed(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for i := 0; i < maxCartBatches; i++ {
		n, err := j.purger.PurgeClosed(ctx, before, j.batch)
		total += n
		if err != nil {
			return total, fmt.Errorf("purge closed carts: %w", err)
		}
		if n < int64(j.batch) {
			break
		}
	}
	return total, nil
}
