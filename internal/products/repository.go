package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository is the read side of the catalog used by cart and checkout, plus
// the stock counter update performed at order commit.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*Item, error)
	LoadItems(ctx context.Context, refs []Ref, lock bool) (map[Ref]Item, error)
	CategoryIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	AdjustStock(ctx context.Context, ref Ref, expected, delta decimal.Decimal) (bool, error)
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

func unavailable() error {
	return pkgerrors.Violation("product_id", "product_unavailable", "Product is no longer available")
}

// FindItem loads a product and, when requested, one of its variants. A
// variant belonging to another product reads as unavailable.
func (r *repository) FindItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*Item, error) {
	conn := r.Conn(ctx, r.tx)

	var product models.Product
	err := conn.Where("id = ?", productID).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unavailable()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	item := &Item{Product: product}
	if variantID == nil {
		return item, nil
	}

	var variant models.ProductVariant
	err = conn.Where("id = ? AND product_id = ?", *variantID, productID).Take(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Violation("variant_id", "product_unavailable", "Selected variant is no longer available")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
	}
	item.Variant = &variant
	return item, nil
}

// LoadItems fetches every referenced row in two queries. With lock set the
// rows are locked for the rest of the transaction on Postgres. Missing rows
// are simply absent from the result.
func (r *repository) LoadItems(ctx context.Context, refs []Ref, lock bool) (map[Ref]Item, error) {
	out := make(map[Ref]Item, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	productIDs := make([]uuid.UUID, 0, len(refs))
	variantIDs := make([]uuid.UUID, 0, len(refs))
	seenProducts := map[uuid.UUID]struct{}{}
	for _, ref := range refs {
		if _, ok := seenProducts[ref.ProductID]; !ok {
			seenProducts[ref.ProductID] = struct{}{}
			productIDs = append(productIDs, ref.ProductID)
		}
		if ref.VariantID != uuid.Nil {
			variantIDs = append(variantIDs, ref.VariantID)
		}
	}

	query := func() *gorm.DB {
		conn := r.Conn(ctx, r.tx)
		if lock {
			conn = db.ForUpdate(conn)
		}
		return conn
	}

	var products []models.Product
	if err := query().Where("id IN ?", productIDs).Order("id").Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	variants := map[uuid.UUID]models.ProductVariant{}
	if len(variantIDs) > 0 {
		var rows []models.ProductVariant
		if err := query().Where("id IN ?", variantIDs).Order("id").Find(&rows).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variants")
		}
		for _, v := range rows {
			variants[v.ID] = v
		}
	}

	for _, ref := range refs {
		product, ok := byID[ref.ProductID]
		if !ok {
			continue
		}
		item := Item{Product: product}
		if ref.VariantID != uuid.Nil {
			variant, ok := variants[ref.VariantID]
			if !ok || variant.ProductID != ref.ProductID {
				continue
			}
			item.Variant = &variant
		}
		out[ref] = item
	}
	return out, nil
}

func (r *repository) CategoryIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []models.ProductCategory
	if err := r.Conn(ctx, r.tx).Where("product_id IN ?", productIDs).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product categories")
	}
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row.CategoryID)
	}
	return out, nil
}

// AdjustStock adds delta to the stock counter only while it still holds the
// expected value. It reports false when another writer got there first.
func (r *repository) AdjustStock(ctx context.Context, ref Ref, expected, delta decimal.Decimal) (bool, error) {
	conn := r.Conn(ctx, r.tx)
	var res *gorm.DB
	if ref.VariantID != uuid.Nil {
		res = conn.Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ? AND stock_quantity = ?", ref.VariantID, ref.ProductID, expected).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	} else {
		res = conn.Model(&models.Product{}).
			Where("id = ? AND stock_quantity = ?", ref.ProductID, expected).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	}
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust stock")
	}
	return res.RowsAffected == 1, nil
}
