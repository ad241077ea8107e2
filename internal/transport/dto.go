package transport

import (
	"github.com/shopspring/decimal"
)

type SignUpRequest struct {
	Name     string `json:"name"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
}

type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AddToBasketRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Count     int  `json:"count"      validate:"required,min=1"`
}

type RemoveFromBasketRequest struct {
	Count *int `json:"count" validate:"omitempty,min=1"`
}

type ConfirmOrderRequest struct {
	FullName     string `json:"fullName"     validate:"required"`
	Email        string `json:"email"        validate:"required,email"`
	Phone        string `json:"phone"        validate:"required"`
	DeliveryType string `json:"deliveryType" validate:"required"`
	PaymentType  string `json:"paymentType"  validate:"required"`
	City         string `json:"city"         validate:"required"`
	Address      string `json:"address"      validate:"required"`
	Comment      string `json:"comment"      validate:"max=1000"`
}

type PaymentRequest struct {
	Number FlexString `json:"number"`
	Name   string     `json:"name"`
	Month  FlexString `json:"month"`
	Year   FlexString `json:"year"`
	Code   FlexString `json:"code"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ProductInput struct {
	Title           string          `json:"title"            validate:"required,max=255"`
	Description     string          `json:"description"`
	FullDescription string          `json:"full_description"`
	Price           decimal.Decimal `json:"price"`
	Count           int             `json:"count"            validate:"min=0"`
	CategoryID      *uint           `json:"category_id"`
	SubcategoryID   *uint           `json:"subcategory_id"`
	FreeDelivery    bool            `json:"free_delivery"`
	IsLimited       bool            `json:"is_limited"`
	Available       *bool           `json:"available"`
	TagIDs          []uint          `json:"tags"`
	Specifications  []SpecInput     `json:"specifications"   validate:"dive"`
	Images          []ImageInput    `json:"images"           validate:"dive"`
}

type SpecInput struct {
	Name  string `json:"name"  validate:"required"`
	Value string `json:"value" validate:"required"`
}

type ImageInput struct {
	Src string `json:"src" validate:"required"`
	Alt string `json:"alt"`
}

type ProductPatch struct {
	Title           *string          `json:"title"            validate:"omitempty,min=1,max=255"`
	Description     *string          `json:"description"`
	FullDescription *string          `json:"full_description"`
	Price           *decimal.Decimal `json:"price"`
	Count           *int             `json:"count"            validate:"omitempty,min=0"`
	CategoryID      *uint            `json:"category_id"`
	SubcategoryID   *uint            `json:"subcategory_id"`
	FreeDelivery    *bool            `json:"free_delivery"`
	IsLimited       *bool            `json:"is_limited"`
	Available       *bool            `json:"available"`
	TagIDs          []uint           `json:"tags"`
}

type SaleInput struct {
	Discount int    `json:"discount" validate:"min=0,max=100"`
	DateFrom string `json:"dateFrom" validate:"required"`
	DateTo   string `json:"dateTo"   validate:"required"`
}

type ReviewInput struct {
	Author string `json:"author"`
	Email  string `json:"email" validate:"omitempty,email"`
	Text   string `json:"text"  validate:"required"`
	Rate   int    `json:"rate"  validate:"min=0,max=5"`
}

type CategoryInput struct {
	Title         string   `json:"title" validate:"required"`
	Image         string   `json:"image"`
	Subcategories []string `json:"subcategories"`
}

type TagInput struct {
	Name string `json:"name" validate:"required"`
}

type DeliveryCostInput struct {
	DeliveryPrice        decimal.Decimal `json:"delivery_price"`
	ExpressDeliveryPrice decimal.Decimal `json:"express_delivery_price"`
	FreeDeliveryBorder   decimal.Decimal `json:"free_delivery_border"`
	Activate             bool            `json:"activate"`
}

type ProfileRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Phone    string `json:"phone"    validate:"required"`
	Avatar   string `json:"avatar"`
}

type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required"`
}
