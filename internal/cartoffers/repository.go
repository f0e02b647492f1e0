package cartoffers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, placement enums.OfferPlacement) ([]models.CartOffer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartOffer, error)
	Usage(ctx context.Context, identity cart.Identity, offerIDs []uuid.UUID) (map[uuid.UUID]Usage, error)
	RecordAccept(ctx context.Context, identity cart.Identity, offerID uuid.UUID, at time.Time) error
	RecordReject(ctx context.Context, identity cart.Identity, offerID uuid.UUID, at time.Time) error
}

type repository struct {
	repo.Base
	tx *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base, tx: tx}
}

// ListActive loads switched-on offers of a placement with their products.
// The schedule window is evaluated in memory by Rank.
func (r *repository) ListActive(ctx context.Context, placement enums.OfferPlacement) ([]models.CartOffer, error) {
	var offers []models.CartOffer
	err := r.Conn(ctx, r.tx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("is_active = ? AND placement = ?", true, placement).
		Find(&offers).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart offers")
	}
	return offers, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartOffer, error) {
	var offer models.CartOffer
	err := r.Conn(ctx, r.tx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		Take(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart offer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart offer")
	}
	return &offer, nil
}

func (r *repository) Usage(ctx context.Context, identity cart.Identity, offerIDs []uuid.UUID) (map[uuid.UUID]Usage, error) {
	out := make(map[uuid.UUID]Usage, len(offerIDs))
	if len(offerIDs) == 0 {
		return out, nil
	}
	var rows []models.CartOfferUsage
	err := scopeUsage(r.Conn(ctx, r.tx), identity).
		Where("cart_offer_id IN ?", offerIDs).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart offer usage")
	}
	for _, row := range rows {
		u := out[row.CartOfferID]
		u.Accepted += row.UsageCount
		u.Rejected += row.RejectedCount
		out[row.CartOfferID] = u
	}
	return out, nil
}

func (r *repository) RecordAccept(ctx context.Context, identity cart.Identity, offerID uuid.UUID, at time.Time) error {
	return r.bump(ctx, identity, offerID, "usage_count", at)
}

func (r *repository) RecordReject(ctx context.Context, identity cart.Identity, offerID uuid.UUID, at time.Time) error {
	return r.bump(ctx, identity, offerID, "rejected_count", at)
}

func (r *repository) bump(ctx context.Context, identity cart.Identity, offerID uuid.UUID, column string, at time.Time) error {
	conn := r.Conn(ctx, r.tx)
	res := scopeUsage(conn.Model(&models.CartOfferUsage{}), identity).
		Where("cart_offer_id = ?", offerID).
		Updates(map[string]any{
			column:         gorm.Expr(column + " + 1"),
			"last_used_at": at,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update cart offer usage")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	row := models.CartOfferUsage{CartOfferID: offerID, LastUsedAt: &at}
	if identity.CustomerID != nil {
		row.CustomerID = identity.CustomerID
	} else {
		sid := identity.SessionID
		row.SessionID = &sid
	}
	if column == "usage_count" {
		row.UsageCount = 1
	} else {
		row.RejectedCount = 1
	}
	if err := conn.Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart offer usage")
	}
	return nil
}

func scopeUsage(q *gorm.DB, identity cart.Identity) *gorm.DB {
	if identity.CustomerID != nil {
		return q.Where("customer_id = ?", *identity.CustomerID)
	}
	return q.Where("session_id = ? AND customer_id IS NULL", identity.SessionID)
}
