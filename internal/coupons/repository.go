package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository persists coupons and their usage.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListAutomatic(ctx context.Context, now time.Time) ([]models.Coupon, error)
	CountCustomerUses(ctx context.Context, couponID, customerID uuid.UUID) (int, error)
	CreateUsage(ctx context.Context, usage *models.CouponUsage) error
	IncrementUsedCount(ctx context.Context, couponID uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
	tx *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base, tx: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.Conn(ctx, r.tx).Where("id = ?", id).Take(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return &coupon, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	var coupon models.Coupon
	err := r.Conn(ctx, r.tx).Where("UPPER(code) = ?", strings.ToUpper(code)).Take(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon by code")
	}
	return &coupon, nil
}

func (r *repository) ListAutomatic(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.Conn(ctx, r.tx).
		Where("code IS NULL AND is_active = ?", true).
		Order("priority DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list automatic discounts")
	}
	live := rows[:0]
	for _, c := range rows {
		if (c.StartDate == nil || !now.Before(*c.StartDate)) && (c.EndDate == nil || !now.After(*c.EndDate)) {
			live = append(live, c)
		}
	}
	return live, nil
}

// CountCustomerUses counts the customer's non-cancelled orders that used the coupon.
func (r *repository) CountCustomerUses(ctx context.Context, couponID, customerID uuid.UUID) (int, error) {
	var count int64
	err := r.Conn(ctx, r.tx).
		Model(&models.CouponUsage{}).
		Joins("JOIN orders ON orders.id = coupon_usages.order_id").
		Where("coupon_usages.coupon_id = ? AND coupon_usages.customer_id = ?", couponID, customerID).
		Where("orders.status <> ?", enums.OrderStatusCancelled).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon usage")
	}
	return int(count), nil
}

func (r *repository) CreateUsage(ctx context.Context, usage *models.CouponUsage) error {
	if err := r.Conn(ctx, r.tx).Create(usage).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon usage")
	}
	return nil
}

// IncrementUsedCount bumps used_count unless the global limit is reached.
// It reports false when the guard blocked the update.
func (r *repository) IncrementUsedCount(ctx context.Context, couponID uuid.UUID) (bool, error) {
	res := r.Conn(ctx, r.tx).
		Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment coupon usage")
	}
	return res.RowsAffected == 1, nil
}
