package transport

import (
	"math"
	"time"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/shopspring/decimal"
)

func Money(d decimal.Decimal) string { return d.StringFixed(2) }

type ImageResponse struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ProductCard struct {
	ID           uint            `json:"id"`
	Category     *uint           `json:"category"`
	Price        string          `json:"price"`
	SalePrice    string          `json:"salePrice"`
	Count        int             `json:"count"`
	Date         time.Time       `json:"date"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	FreeDelivery bool            `json:"freeDelivery"`
	Available    bool            `json:"available"`
	Images       []ImageResponse `json:"images"`
	Tags         []TagResponse   `json:"tags"`
	Reviews      int64           `json:"reviews"`
	Rating       float64         `json:"rating"`
}

type SpecResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ReviewResponse struct {
	Author string    `json:"author"`
	Email  string    `json:"email"`
	Text   string    `json:"text"`
	Rate   int       `json:"rate"`
	Date   time.Time `json:"date"`
}

type ProductDetail struct {
	ProductCard
	FullDescription string           `json:"fullDescription"`
	Specifications  []SpecResponse   `json:"specifications"`
	ReviewList      []ReviewResponse `json:"reviewList"`
}

type SaleItem struct {
	ID        uint            `json:"id"`
	Price     string          `json:"price"`
	SalePrice string          `json:"salePrice"`
	Discount  int             `json:"discount"`
	DateFrom  string          `json:"dateFrom"`
	DateTo    string          `json:"dateTo"`
	Title     string          `json:"title"`
	Images    []ImageResponse `json:"images"`
}

type BasketLineResponse struct {
	ID        uint   `json:"id"`
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
	Count     int    `json:"count"`
	Price     string `json:"price"`
	Total     string `json:"total"`
	InStock   int    `json:"in_stock"`
}

type BasketResponse struct {
	Items     []BasketLineResponse `json:"items"`
	TotalCost string               `json:"totalCost"`
}

type OrderItemResponse struct {
	ProductID *uint  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Count     int    `json:"count"`
}

type PaymentResponse struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`
	IsPaid bool   `json:"isPaid"`
	Error  string `json:"error,omitempty"`
}

type OrderResponse struct {
	ID           uint                `json:"id"`
	CreatedAt    time.Time           `json:"createdAt"`
	FullName     string              `json:"fullName"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	DeliveryType string              `json:"deliveryType"`
	PaymentType  string              `json:"paymentType"`
	TotalCost    string              `json:"totalCost"`
	Status       string              `json:"status"`
	City         string              `json:"city"`
	Address      string              `json:"address"`
	Comment      string              `json:"comment"`
	Items        []OrderItemResponse `json:"products"`
	Payment      *PaymentResponse    `json:"payment,omitempty"`
}

type ProfileResponse struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
}

func images(in []models.ProductImage) []ImageResponse {
	out := make([]ImageResponse, 0, len(in))
	for _, img := range in {
		out = append(out, ImageResponse{Src: img.Src, Alt: img.Alt})
	}
	return out
}

func tags(in []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(in))
	for _, t := range in {
		out = append(out, TagResponse{ID: t.ID, Name: t.Name})
	}
	return out
}

// RoundRating keeps one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

func NewProductCard(p models.Product, salePrice decimal.Decimal, reviews int64, rating float64) ProductCard {
	return ProductCard{
		ID:           p.ID,
		Category:     p.CategoryID,
		Price:        Money(p.Price),
		SalePrice:    Money(salePrice),
		Count:        p.Count,
		Date:         p.CreatedAt,
		Title:        p.Title,
		Description:  p.Description,
		FreeDelivery: p.FreeDelivery,
		Available:    p.Available && p.Count > 0,
		Images:       images(p.Images),
		Tags:         tags(p.Tags),
		Reviews:      reviews,
		Rating:       RoundRating(rating),
	}
}

func NewProductDetail(card ProductCard, p models.Product) ProductDetail {
	specs := make([]SpecResponse, 0, len(p.Specifications))
	for _, s := range p.Specifications {
		specs = append(specs, SpecResponse{Name: s.Name, Value: s.Value})
	}
	reviews := make([]ReviewResponse, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, ReviewResponse{Author: r.Author, Email: r.Email, Text: r.Text, Rate: r.Rate, Date: r.CreatedAt})
	}
	return ProductDetail{
		ProductCard:     card,
		FullDescription: p.FullDescription,
		Specifications:  specs,
		ReviewList:      reviews,
	}
}

func NewSaleItem(p models.Product, salePrice decimal.Decimal) SaleItem {
	item := SaleItem{
		ID:        p.ID,
		Price:     Money(p.Price),
		SalePrice: Money(salePrice),
		Title:     p.Title,
		Images:    images(p.Images),
	}
	if p.Sale != nil {
		item.Discount = p.Sale.Discount
		item.DateFrom = p.Sale.DateFrom.Format("01-02")
		item.DateTo = p.Sale.DateTo.Format("01-02")
	}
	return item
}

func NewPaymentResponse(p *models.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		Name:   p.Name,
		Number: p.Number,
		Month:  p.Month,
		Year:   p.Year,
		IsPaid: p.IsPaid,
		Error:  p.Error,
	}
}

func NewOrderResponse(o models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{ProductID: it.ProductID, Name: it.Name, Price: Money(it.Price), Count: it.Count})
	}
	return OrderResponse{
		ID:           o.ID,
		CreatedAt:    o.CreatedAt,
		FullName:     o.FullName,
		Email:        o.Email,
		Phone:        o.Phone,
		DeliveryType: o.DeliveryType,
		PaymentType:  o.PaymentType,
		TotalCost:    Money(o.TotalCost),
		Status:       o.Status,
		City:         o.City,
		Address:      o.Address,
		Comment:      o.Comment,
		Items:        items,
		Payment:      NewPaymentResponse(o.Payment),
	}
}

func NewOrderList(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

func NewProfileResponse(u models.User, p *models.Profile) ProfileResponse {
	resp := ProfileResponse{}
	middle := ""
	if p != nil {
		middle = p.MiddleName
		resp.Avatar = p.Avatar
		if p.Email != nil {
			resp.Email = *p.Email
		}
		if p.Phone != nil {
			resp.Phone = *p.Phone
		}
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{u.LastName, u.FirstName, middle} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	for i, s := range parts {
		if i > 0 {
			resp.FullName += " "
		}
		resp.FullName += s
	}
	return resp
}
