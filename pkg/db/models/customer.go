package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer is the authenticated shopper. Identity is owned elsewhere; this row
// carries what checkout needs plus the lifetime stats refreshed after orders.
type Customer struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Email       string          `gorm:"column:email;not null;uniqueIndex"`
	FirstName   string          `gorm:"column:first_name;not null"`
	LastName    string          `gorm:"column:last_name;not null"`
	Phone       *string         `gorm:"column:phone"`
	TotalOrders int             `gorm:"column:total_orders;not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"column:total_spent;type:numeric(14,2);not null;default:0"`
	LastOrderAt *time.Time      `gorm:"column:last_order_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CustomerGroup grants a storewide percentage discount to its members.
type CustomerGroup struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *CustomerGroup) BeforeCreate(*gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

type CustomerGroupMember struct {
	CustomerGroupID uuid.UUID `gorm:"column:customer_group_id;type:uuid;primaryKey"`
	CustomerID      uuid.UUID `gorm:"column:customer_id;type:uuid;primaryKey;index"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
