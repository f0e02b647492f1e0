package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog row read by checkout. StockQuantity is a decimal so
// products sold by length or weight can hold fractional stock.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name           string           `gorm:"column:name;not null"`
	SKU            string           `gorm:"column:sku;not null;uniqueIndex"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	RegularPrice   *decimal.Decimal `gorm:"column:regular_price;type:numeric(12,2)"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	StockQuantity  decimal.Decimal  `gorm:"column:stock_quantity;type:numeric(12,3);not null;default:0"`
	AllowBackorder bool             `gorm:"column:allow_backorder;not null;default:false"`
	BackorderLimit int              `gorm:"column:backorder_limit;not null;default:0"`
	TaxClassID     *uuid.UUID       `gorm:"column:tax_class_id;type:uuid"`
	ImageURL       *string          `gorm:"column:image_url"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// BasePrice is the regular (pre-sale) price, falling back to the selling price.
func (p Product) BasePrice() decimal.Decimal {
	if p.RegularPrice != nil && p.RegularPrice.IsPositive() {
		return *p.RegularPrice
	}
	return p.Price
}

// ProductVariant overrides price and stock of its product.
type ProductVariant struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Name           string           `gorm:"column:name;not null"`
	SKU            string           `gorm:"column:sku;not null;uniqueIndex"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	RegularPrice   *decimal.Decimal `gorm:"column:regular_price;type:numeric(12,2)"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	StockQuantity  decimal.Decimal  `gorm:"column:stock_quantity;type:numeric(12,3);not null;default:0"`
	AllowBackorder bool             `gorm:"column:allow_backorder;not null;default:false"`
	BackorderLimit int              `gorm:"column:backorder_limit;not null;default:0"`
	ImageURL       *string          `gorm:"column:image_url"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

func (v ProductVariant) BasePrice() decimal.Decimal {
	if v.RegularPrice != nil && v.RegularPrice.IsPositive() {
		return *v.RegularPrice
	}
	return v.Price
}

type ProductCategory struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey;index"`
}
