package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutReceipt is the local audit row of an order placed through the storefront.
type CheckoutReceipt struct {
	ID            uuid.UUID `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID       string    `gorm:"column:order_id;not null"`
	UserID        string    `gorm:"column:user_id;not null"`
	ShopCount     int       `gorm:"column:shop_count;not null"`
	ItemCount     int       `gorm:"column:item_count;not null"`
	TotalPrice    int64     `gorm:"column:total_price;not null"`
	PaymentMethod string    `gorm:"column:payment_method;not null"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (CheckoutReceipt) TableName() string {
	return "checkout_receipts"
}
