package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type ShippingMethod struct {
	ID                    uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Code                  string                 `gorm:"column:code;not null;uniqueIndex"`
	Name                  string                 `gorm:"column:name;not null"`
	RateType              enums.ShippingRateType `gorm:"column:rate_type;type:shipping_rate_type;not null;default:'flat'"`
	Rate                  decimal.Decimal        `gorm:"column:rate;type:numeric(12,2);not null;default:0"`
	FreeShippingThreshold *decimal.Decimal       `gorm:"column:free_shipping_threshold;type:numeric(12,2)"`
	SupportsCOD           bool                   `gorm:"column:supports_cod;not null;default:false"`
	CODFee                decimal.Decimal        `gorm:"column:cod_fee;type:numeric(12,2);not null;default:0"`
	RequiresAddress       bool                   `gorm:"column:requires_address;not null;default:true"`
	IsActive              bool                   `gorm:"column:is_active;not null;default:true"`
	Position              int                    `gorm:"column:position;not null;default:0"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *ShippingMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

type PaymentMethod struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Code      string               `gorm:"column:code;not null;uniqueIndex"`
	Name      string               `gorm:"column:name;not null"`
	FeeType   enums.PaymentFeeType `gorm:"column:fee_type;type:payment_fee_type;not null;default:'none'"`
	FeeValue  decimal.Decimal      `gorm:"column:fee_value;type:numeric(12,2);not null;default:0"`
	IsCOD     bool                 `gorm:"column:is_cod;not null;default:false"`
	IsActive  bool                 `gorm:"column:is_active;not null;default:true"`
	Position  int                  `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *PaymentMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
