package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxRate is a percentage for one tax class in a jurisdiction. A nil State
// covers the whole country; the most specific, then highest priority, row wins.
type TaxRate struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TaxClassID uuid.UUID       `gorm:"column:tax_class_id;type:uuid;not null;index"`
	Country    string          `gorm:"column:country;not null"`
	State      *string         `gorm:"column:state"`
	Rate       decimal.Decimal `gorm:"column:rate;type:numeric(6,3);not null"`
	Priority   int             `gorm:"column:priority;not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *TaxRate) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
