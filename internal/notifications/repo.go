package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository remembers which order messages went out.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Sent(ctx context.Context, orderID uuid.UUID, kind string) (bool, error)
	RecordSent(ctx context.Context, notification *models.OrderNotification) (bool, error)
}

type repository struct {
	repo.Base
	tx *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base, tx: tx}
}

func (r *repository) Sent(ctx context.Context, orderID uuid.UUID, kind string) (bool, error) {
	var count int64
	err := r.Conn(ctx, r.tx).Model(&models.OrderNotification{}).
		Where("order_id = ? AND kind = ?", orderID, kind).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order notification")
	}
	return count > 0, nil
}

// RecordSent stores the delivery. It reports false when the same order and
// kind were recorded before.
func (r *repository) RecordSent(ctx context.Context, notification *models.OrderNotification) (bool, error) {
	if err := r.Conn(ctx, r.tx).Create(notification).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order notification")
	}
	return true, nil
}
