package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusConfirmRequired = "confirm_required"
	OrderStatusConfirmed       = "confirmed"
	OrderStatusPaid            = "paid"
	OrderStatusSent            = "sent"
	OrderStatusDelivered       = "delivered"
	OrderStatusCancel          = "cancel"
)

// BasketLine belongs either to a user or to an anonymous session, never both.
type BasketLine struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                                   json:"id"`
	UserID     *uint     `gorm:"uniqueIndex:idx_basket_user_product"                        json:"user_id,omitempty"`
	SessionKey *string   `gorm:"size:64;uniqueIndex:idx_basket_session_product"             json:"-"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_basket_user_product;uniqueIndex:idx_basket_session_product" json:"product_id"`
	Count      int       `gorm:"not null;check:count > 0"                                   json:"count"`
	CreatedAt  time.Time `                                                                  json:"created_at"`

	Product Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Order struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID       uint            `gorm:"index;not null"              json:"user_id"`
	CreatedAt    time.Time       `                                   json:"created_at"`
	FullName     string          `                                   json:"full_name"`
	Email        string          `                                   json:"email"`
	Phone        string          `gorm:"size:11"                     json:"phone"`
	DeliveryType string          `gorm:"size:16"                     json:"delivery_type"`
	PaymentType  string          `gorm:"size:16"                     json:"payment_type"`
	City         string          `                                   json:"city"`
	Address      string          `                                   json:"address"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_cost"`
	Status       string          `gorm:"size:32;index;not null"      json:"status"`
	Comment      string          `                                   json:"comment"`

	Items   []OrderItem `json:"items"`
	Payment *Payment    `json:"payment,omitempty"`
}

// OrderItem is a snapshot taken at confirmation and is never updated afterwards.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	ProductID *uint           `gorm:"index"                       json:"product_id"`
	Name      string          `gorm:"not null"                    json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Count     int             `gorm:"not null;check:count > 0"    json:"count"`
}

type Payment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint      `gorm:"uniqueIndex;not null"     json:"order_id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Number    string    `gorm:"size:16;not null"         json:"number"`
	Month     int       `gorm:"not null"                 json:"month"`
	Year      int       `gorm:"not null"                 json:"year"`
	Code      string    `gorm:"size:3;not null"          json:"-"`
	IsPaid    bool      `gorm:"not null;default:false"   json:"is_paid"`
	Error     string    `                                json:"error,omitempty"`
	UpdatedAt time.Time `                                json:"updated_at"`
}

type DeliveryCost struct {
	ID                   uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	DeliveryPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"delivery_price"`
	ExpressDeliveryPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"express_delivery_price"`
	FreeDeliveryBorder   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"free_delivery_border"`
	IsActive             bool            `gorm:"index;not null;default:false" json:"is_active"`
}
