package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderNotification records a customer message sent for an order. The unique
// (order_id, kind) pair keeps redelivered events from mailing twice.
type OrderNotification struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:order_notifications_order_kind_key,priority:1"`
	Kind      string    `gorm:"column:kind;not null;uniqueIndex:order_notifications_order_kind_key,priority:2"`
	Recipient string    `gorm:"column:recipient;not null"`
	Subject   string    `gorm:"column:subject;not null"`
	SentAt    time.Time `gorm:"column:sent_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (n *OrderNotification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
