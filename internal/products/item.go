package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Ref addresses a purchasable row. VariantID is uuid.Nil for products sold
// without variants, which keeps Ref usable as a map key.
type Ref struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

func NewRef(productID uuid.UUID, variantID *uuid.UUID) Ref {
	ref := Ref{ProductID: productID}
	if variantID != nil {
		ref.VariantID = *variantID
	}
	return ref
}

// VariantPtr returns the variant id as stored on cart and order rows.
func (r Ref) VariantPtr() *uuid.UUID {
	if r.VariantID == uuid.Nil {
		return nil
	}
	id := r.VariantID
	return &id
}

// Stock is the effective inventory policy of a purchasable row.
type Stock struct {
	Available      decimal.Decimal
	AllowBackorder bool
	BackorderLimit int
}

// Item is a product with the variant the shopper picked, if any. The variant
// overrides price, stock and backorder policy of its product.
type Item struct {
	Product models.Product
	Variant *models.ProductVariant
}

func (i Item) Ref() Ref {
	ref := Ref{ProductID: i.Product.ID}
	if i.Variant != nil {
		ref.VariantID = i.Variant.ID
	}
	return ref
}

func (i Item) Active() bool {
	if !i.Product.IsActive {
		return false
	}
	return i.Variant == nil || i.Variant.IsActive
}

// Price is the current selling price.
func (i Item) Price() decimal.Decimal {
	if i.Variant != nil {
		return i.Variant.Price
	}
	return i.Product.Price
}

// RegularPrice is the pre-sale price, falling back to the selling price.
func (i Item) RegularPrice() decimal.Decimal {
	if i.Variant != nil {
		return i.Variant.BasePrice()
	}
	return i.Product.BasePrice()
}

func (i Item) Name() string {
	if i.Variant != nil && i.Variant.Name != "" {
		return i.Product.Name + " - " + i.Variant.Name
	}
	return i.Product.Name
}

func (i Item) SKU() string {
	if i.Variant != nil {
		return i.Variant.SKU
	}
	return i.Product.SKU
}

func (i Item) ImageURL() *string {
	if i.Variant != nil && i.Variant.ImageURL != nil {
		return i.Variant.ImageURL
	}
	return i.Product.ImageURL
}

func (i Item) Stock() Stock {
	if i.Variant != nil {
		return Stock{
			Available:      i.Variant.StockQuantity,
			AllowBackorder: i.Variant.AllowBackorder,
			BackorderLimit: i.Variant.BackorderLimit,
		}
	}
	return Stock{
		Available:      i.Product.StockQuantity,
		AllowBackorder: i.Product.AllowBackorder,
		BackorderLimit: i.Product.BackorderLimit,
	}
}
