package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RejectionObserver is told about every code coupon rejection.
type RejectionObserver interface {
	IncCouponRejection(reason string)
}

// Service loads coupons, evaluates them with the customer's usage history
// and records usage for committed orders.
type Service struct {
	repo     Repository
	logg     *logger.Logger
	observer RejectionObserver
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRejectionObserver(o RejectionObserver) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(repo Repository, logg *logger.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Service{repo: repo, logg: logg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lookup resolves a shopper-entered code.
func (s *Service) Lookup(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error) {
	coupon, err := s.repo.WithTx(tx).FindByCode(ctx, code)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.Violation("coupon_code", "invalid", "Coupon code is invalid")
	}
	return coupon, err
}

// Load fetches an attached coupon by id. A coupon deleted since it was
// attached reads as nil.
func (s *Service) Load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.WithTx(tx).FindByID(ctx, id)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, nil
	}
	return coupon, err
}

// Apply evaluates the code coupon (if any) and every automatic discount and
// combines them. A rejected code coupon is returned alongside the automatic
// result so callers can surface the reason.
func (s *Service) Apply(ctx context.Context, tx *gorm.DB, code *models.Coupon, lines []Line, shopper Shopper) (Applied, *Rejection, error) {
	now := s.now()
	repo := s.repo.WithTx(tx)

	var codeResult *Result
	var rejection *Rejection
	if code != nil {
		res, rej, err := s.evaluate(ctx, repo, *code, lines, shopper, now)
		if err != nil {
			return Applied{}, nil, err
		}
		if rej != nil {
			rejection = rej
			if s.observer != nil {
				s.observer.IncCouponRejection(string(rej.Reason))
			}
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"coupon_id": code.ID.String(),
				"reason":    string(rej.Reason),
			}), "coupon rejected")
		} else {
			codeResult = &res
		}
	}

	automatics, err := repo.ListAutomatic(ctx, now)
	if err != nil {
		return Applied{}, nil, err
	}
	candidates := make([]Result, 0, len(automatics))
	for _, auto := range automatics {
		res, rej, err := s.evaluate(ctx, repo, auto, lines, shopper, now)
		if err != nil {
			return Applied{}, nil, err
		}
		if rej == nil {
			candidates = append(candidates, res)
		}
	}

	return Combine(codeResult, candidates), rejection, nil
}

func (s *Service) evaluate(ctx context.Context, repo Repository, coupon models.Coupon, lines []Line, shopper Shopper, now time.Time) (Result, *Rejection, error) {
	shopper.PriorUses = 0
	if coupon.UsageLimitPerCustomer != nil && shopper.CustomerID != nil {
		uses, err := repo.CountCustomerUses(ctx, coupon.ID, *shopper.CustomerID)
		if err != nil {
			return Result{}, nil, err
		}
		shopper.PriorUses = uses
	}
	res, rej := Evaluate(coupon, lines, shopper, now)
	return res, rej, nil
}

// RecordUsage writes a usage row and bumps used_count for every applied
// coupon that actually changed the order. It must run inside the order
// transaction.
func (s *Service) RecordUsage(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, customerID *uuid.UUID, applied Applied) error {
	repo := s.repo.WithTx(tx)
	for _, res := range applied.Results() {
		if !res.Amount.IsPositive() && !res.FreeShipping {
			continue
		}
		usage := &models.CouponUsage{
			CouponID:       res.Coupon.ID,
			OrderID:        orderID,
			CustomerID:     customerID,
			DiscountAmount: res.Amount,
		}
		if err := repo.CreateUsage(ctx, usage); err != nil {
			return err
		}
		ok, err := repo.IncrementUsedCount(ctx, res.Coupon.ID)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.Violation("coupon_code", string(enums.CouponUsageExhausted), "Coupon usage limit has been reached")
		}
	}
	return nil
}

// RejectionError maps a rejection onto the API error taxonomy.
func RejectionError(rej *Rejection) error {
	if rej == nil {
		return nil
	}
	return pkgerrors.Violation("coupon_code", string(rej.Reason), rej.Message)
}
