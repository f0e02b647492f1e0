package shipping

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository loads shipping and payment methods by code.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ShippingMethodByCode(ctx context.Context, code string) (*models.ShippingMethod, error)
	PaymentMethodByCode(ctx context.Context, code string) (*models.PaymentMethod, error)
	ListActive(ctx context.Context) ([]models.ShippingMethod, []models.PaymentMethod, error)
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

func (r *repository) ShippingMethodByCode(ctx context.Context, code string) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	err := r.Conn(ctx, r.tx).Where("code = ?", normalizeCode(code)).Take(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Violation("shipping_method", "shipping_method_invalid", "shipping method is invalid")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping method")
	}
	return &method, nil
}

func (r *repository) PaymentMethodByCode(ctx context.Context, code string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.Conn(ctx, r.tx).Where("code = ?", normalizeCode(code)).Take(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Violation("payment_method", "payment_method_invalid", "payment method is invalid")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	return &method, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.ShippingMethod, []models.PaymentMethod, error) {
	conn := r.Conn(ctx, r.tx)
	var shippingMethods []models.ShippingMethod
	if err := conn.Where("is_active = ?", true).Order("position ASC, code ASC").Find(&shippingMethods).Error; err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping methods")
	}
	var paymentMethods []models.PaymentMethod
	if err := conn.Where("is_active = ?", true).Order("position ASC, code ASC").Find(&paymentMethods).Error; err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return shippingMethods, paymentMethods, nil
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
