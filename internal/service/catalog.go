package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/mykafka"
	"github.com/Skotchmaster/ozonilberries/internal/redisx"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/Skotchmaster/ozonilberries/internal/service/search"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
)

const (
	PopularLimit = 8
	LimitedLimit = 16
	BannersLimit = 3

	dateLayout = "2006-01-02"
)

// ProductSearcher is the full-text index of products, see search.Index.
type ProductSearcher interface {
	IndexProduct(ctx context.Context, doc search.ProductDoc) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  *redisx.Cache
	Search ProductSearcher
	Events EventPublisher
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if s.cached(ctx, redisx.KeyCategories, &cats) {
		return cats, nil
	}
	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, redisx.KeyCategories, cats)
	return cats, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in transport.CategoryInput) (*models.Category, error) {
	c := &models.Category{Title: strings.TrimSpace(in.Title), Image: in.Image}
	for _, title := range in.Subcategories {
		if title = strings.TrimSpace(title); title != "" {
			c.Subcategories = append(c.Subcategories, models.Subcategory{Title: title})
		}
	}
	if c.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, translate(err, "category")
	}
	s.invalidate(ctx, redisx.KeyCategories)
	return c, nil
}

func (s *CatalogService) Tags(ctx context.Context, categoryID *uint) ([]models.Tag, error) {
	return s.Repo.ListTags(ctx, categoryID)
}

func (s *CatalogService) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	t := &models.Tag{Name: strings.TrimSpace(name)}
	if t.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.Repo.CreateTag(ctx, t); err != nil {
		return nil, translate(err, "tag")
	}
	return t, nil
}

func (s *CatalogService) Catalog(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []transport.ProductCard, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return 0, nil, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrValidation)
	}
	total, products, err := s.Repo.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	cards, err := s.cards(ctx, products)
	if err != nil {
		return 0, nil, err
	}
	return total, cards, nil
}

// SearchProducts queries elasticsearch when configured and falls back to a
// database LIKE search otherwise or when the index is unreachable.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []transport.ProductCard, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: q is required", ErrValidation)
	}

	var (
		total    int64
		products []models.Product
		err      error
	)
	if s.Search != nil {
		var ids []uint
		total, ids, err = s.Search.Search(ctx, q, offset, limit)
		if err == nil {
			products, err = s.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
		} else {
			l.Warn("search_index_error", "reason", "falling back to database", "error", err)
		}
	}
	if s.Search == nil || err != nil {
		total, products, err = s.Repo.SearchProductsLike(ctx, q, offset, limit)
		if err != nil {
			return 0, nil, err
		}
	}

	cards, err := s.cards(ctx, products)
	if err != nil {
		return 0, nil, err
	}
	return total, cards, nil
}

func (s *CatalogService) Product(ctx context.Context, id uint) (*transport.ProductDetail, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}
	cards, err := s.cards(ctx, []models.Product{*p})
	if err != nil {
		return nil, err
	}
	detail := transport.NewProductDetail(cards[0], *p)
	return &detail, nil
}

func (s *CatalogService) AddReview(ctx context.Context, caller Caller, productID uint, in transport.ReviewInput) (*models.Review, error) {
	if in.Rate < 0 || in.Rate > 5 {
		return nil, fmt.Errorf("%w: rate must be between 0 and 5", ErrValidation)
	}
	if _, err := s.Repo.FindProduct(ctx, productID); err != nil {
		return nil, translate(err, "product")
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		u, err := s.Repo.UserByID(ctx, caller.UserID)
		if err != nil {
			return nil, translate(err, "user")
		}
		author = u.Username
	}

	userID := caller.UserID
	rv := &models.Review{
		ProductID: productID,
		UserID:    &userID,
		Author:    author,
		Email:     in.Email,
		Text:      in.Text,
		Rate:      in.Rate,
	}
	if err := s.Repo.CreateReview(ctx, rv); err != nil {
		return nil, err
	}
	s.invalidate(ctx, redisx.KeyPopularProducts)
	return rv, nil
}

func (s *CatalogService) Popular(ctx context.Context) ([]transport.ProductCard, error) {
	return s.cachedCards(ctx, redisx.KeyPopularProducts, func() ([]models.Product, error) {
		return s.Repo.PopularProducts(ctx, PopularLimit)
	})
}

func (s *CatalogService) Limited(ctx context.Context) ([]transport.ProductCard, error) {
	return s.cachedCards(ctx, redisx.KeyLimitedProducts, func() ([]models.Product, error) {
		return s.Repo.LimitedProducts(ctx, LimitedLimit)
	})
}

func (s *CatalogService) Banners(ctx context.Context) ([]transport.ProductCard, error) {
	products, err := s.Repo.RandomProducts(ctx, BannersLimit)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, products)
}

// Sales lists products whose sale ends today or later.
func (s *CatalogService) Sales(ctx context.Context, offset, limit int) (int64, []transport.SaleItem, error) {
	y, m, d := time.Now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	total, products, err := s.Repo.SaleProducts(ctx, today, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	items := make([]transport.SaleItem, 0, len(products))
	for _, p := range products {
		items = append(items, transport.NewSaleItem(p, effectivePrice(p)))
	}
	return total, items, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in transport.ProductInput) (*models.Product, error) {
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	tags, err := s.tagsByIDs(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		CategoryID:      in.CategoryID,
		SubcategoryID:   in.SubcategoryID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		FullDescription: in.FullDescription,
		Price:           in.Price,
		Count:           in.Count,
		FreeDelivery:    in.FreeDelivery,
		IsLimited:       in.IsLimited,
		Available:       true,
		Tags:            tags,
	}
	for _, sp := range in.Specifications {
		p.Specifications = append(p.Specifications, models.Specification{Name: sp.Name, Value: sp.Value})
	}
	for _, img := range in.Images {
		p.Images = append(p.Images, models.ProductImage{Src: img.Src, Alt: img.Alt})
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, translate(err, "product")
	}
	// a false value never reaches the insert because the column has a default
	if in.Available != nil && !*in.Available {
		p.Available = false
		if err := s.Repo.SaveProduct(ctx, p, nil); err != nil {
			return nil, err
		}
	}

	s.productChanged(ctx, "product_created", p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, in transport.ProductPatch) (*models.Product, error) {
	p, err := s.Repo.FindProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}

	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.FullDescription != nil {
		p.FullDescription = *in.FullDescription
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		p.Price = *in.Price
	}
	if in.Count != nil {
		if *in.Count < 0 {
			return nil, fmt.Errorf("%w: count must not be negative", ErrValidation)
		}
		p.Count = *in.Count
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.SubcategoryID != nil {
		p.SubcategoryID = in.SubcategoryID
	}
	if in.FreeDelivery != nil {
		p.FreeDelivery = *in.FreeDelivery
	}
	if in.IsLimited != nil {
		p.IsLimited = *in.IsLimited
	}
	if in.Available != nil {
		p.Available = *in.Available
	}

	var tags []models.Tag
	if in.TagIDs != nil {
		if tags, err = s.tagsByIDs(ctx, in.TagIDs); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.SaveProduct(ctx, p, tags); err != nil {
		return nil, translate(err, "product")
	}

	updated, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.productChanged(ctx, "product_updated", updated)
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return translate(err, "product")
	}

	s.invalidate(ctx, redisx.ProductListKeys...)
	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_delete_error", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicProduct, id, mykafka.NewEvent("product_deleted", map[string]any{
		"productID": id,
	}))
	return nil
}

func (s *CatalogService) SetSale(ctx context.Context, productID uint, in transport.SaleInput) (*models.Sale, error) {
	if in.Discount < 0 || in.Discount > 100 {
		return nil, fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	}
	from, err := time.Parse(dateLayout, in.DateFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: dateFrom must look like %s", ErrValidation, dateLayout)
	}
	to, err := time.Parse(dateLayout, in.DateTo)
	if err != nil {
		return nil, fmt.Errorf("%w: dateTo must look like %s", ErrValidation, dateLayout)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: dateTo is before dateFrom", ErrValidation)
	}

	p, err := s.Repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, translate(err, "product")
	}

	sale := &models.Sale{ProductID: productID, Discount: in.Discount, DateFrom: from, DateTo: to}
	if err := s.Repo.UpsertSale(ctx, sale); err != nil {
		return nil, err
	}
	p.Sale = sale
	s.productChanged(ctx, "product_sale_changed", p)
	return sale, nil
}

func (s *CatalogService) tagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	found, err := s.Repo.TagsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w: unknown tag in %v", ErrValidation, ids)
	}
	return found, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// productChanged drops cached listings, re-indexes the product and
// publishes the change.
func (s *CatalogService) productChanged(ctx context.Context, eventType string, p *models.Product) {
	l := logging.FromContext(ctx)

	s.invalidate(ctx, redisx.ProductListKeys...)

	if s.Search != nil {
		names := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			names = append(names, t.Name)
		}
		doc := search.ProductDoc{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			CategoryID:  p.CategoryID,
			Price:       p.Price.StringFixed(2),
			Tags:        names,
		}
		if err := s.Search.IndexProduct(ctx, doc); err != nil {
			l.Error("search_index_error", "product_id", p.ID, "error", err)
		}
	}

	publish(ctx, s.Events, mykafka.TopicProduct, p.ID, mykafka.NewEvent(eventType, map[string]any{
		"productID": p.ID,
		"title":     p.Title,
		"price":     p.Price.StringFixed(2),
		"salePrice": effectivePrice(*p).StringFixed(2),
		"count":     p.Count,
	}))
}

func (s *CatalogService) cards(ctx context.Context, products []models.Product) ([]transport.ProductCard, error) {
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	stats, err := s.Repo.Ratings(ctx, ids)
	if err != nil {
		return nil, err
	}

	cards := make([]transport.ProductCard, 0, len(products))
	for _, p := range products {
		st := stats[p.ID]
		cards = append(cards, transport.NewProductCard(p, effectivePrice(p), st.Reviews, st.Rating))
	}
	return cards, nil
}

func (s *CatalogService) cachedCards(ctx context.Context, key string, load func() ([]models.Product, error)) ([]transport.ProductCard, error) {
	var cards []transport.ProductCard
	if s.cached(ctx, key, &cards) {
		return cards, nil
	}
	products, err := load()
	if err != nil {
		return nil, err
	}
	cards, err = s.cards(ctx, products)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, cards)
	return cards, nil
}

func (s *CatalogService) cached(ctx context.Context, key string, dst any) bool {
	ok, err := s.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		logging.FromContext(ctx).Warn("cache_get_error", "key", key, "error", err)
		return false
	}
	return ok
}

func (s *CatalogService) store(ctx context.Context, key string, v any) {
	if err := s.Cache.SetJSON(ctx, key, v); err != nil {
		logging.FromContext(ctx).Warn("cache_set_error", "key", key, "error", err)
	}
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("cache_delete_error", "keys", keys, "error", err)
	}
}
