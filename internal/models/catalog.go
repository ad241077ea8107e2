package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID            uint          `gorm:"primaryKey;autoIncrement"                json:"id"`
	Title         string        `gorm:"not null;uniqueIndex"                    json:"title"`
	Image         string        `                                               json:"image"`
	Subcategories []Subcategory `gorm:"many2many:category_subcategories"        json:"subcategories"`
}

type Subcategory struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title string `gorm:"not null"                 json:"title"`
	Image string `                                json:"image"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null;uniqueIndex"     json:"name"`
}

type Product struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"              json:"id"`
	CategoryID      *uint           `gorm:"index"                                 json:"category_id"`
	SubcategoryID   *uint           `gorm:"index"                                 json:"subcategory_id"`
	Title           string          `gorm:"not null"                              json:"title"`
	Description     string          `                                             json:"description"`
	FullDescription string          `                                             json:"full_description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null"           json:"price"`
	Count           int             `gorm:"not null;default:0;check:count >= 0"   json:"count"`
	FreeDelivery    bool            `gorm:"not null;default:false"                json:"free_delivery"`
	IsLimited       bool            `gorm:"not null;default:false"                json:"is_limited"`
	Available       bool            `gorm:"not null;default:true"                 json:"available"`
	CreatedAt       time.Time       `                                             json:"created_at"`

	Category       *Category       `gorm:"constraint:OnDelete:SET NULL"       json:"-"`
	Subcategory    *Subcategory    `gorm:"constraint:OnDelete:SET NULL"       json:"-"`
	Tags           []Tag           `gorm:"many2many:product_tags"             json:"tags"`
	Images         []ProductImage  `                                          json:"images"`
	Specifications []Specification `                                          json:"specifications"`
	Reviews        []Review        `                                          json:"reviews"`
	Sale           *Sale           `                                          json:"sale,omitempty"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	Src       string `gorm:"not null"                 json:"src"`
	Alt       string `                                json:"alt"`
}

type Specification struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	Name      string `gorm:"not null"                 json:"name"`
	Value     string `gorm:"not null"                 json:"value"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"             json:"id"`
	ProductID uint      `gorm:"index;not null"                       json:"product_id"`
	UserID    *uint     `gorm:"index"                                json:"user_id"`
	Author    string    `gorm:"not null"                             json:"author"`
	Email     string    `                                            json:"email"`
	Text      string    `gorm:"not null"                             json:"text"`
	Rate      int       `gorm:"not null;check:rate >= 0 AND rate <= 5" json:"rate"`
	CreatedAt time.Time `                                            json:"date"`
}

// Sale is an optional discount attached to exactly one product.
type Sale struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                        json:"id"`
	ProductID uint      `gorm:"uniqueIndex;not null"                            json:"product_id"`
	Discount  int       `gorm:"not null;check:discount >= 0 AND discount <= 100" json:"discount"`
	DateFrom  time.Time `gorm:"not null"                                        json:"date_from"`
	DateTo    time.Time `gorm:"not null"                                        json:"date_to"`
}
