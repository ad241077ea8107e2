package repo

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ratingExpr  = "(SELECT COALESCE(AVG(reviews.rate), 0) FROM reviews WHERE reviews.product_id = products.id)"
	reviewsExpr = "(SELECT COUNT(*) FROM reviews WHERE reviews.product_id = products.id)"
)

type ProductFilter struct {
	CategoryID   *uint
	Name         string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	FreeDelivery bool
	Available    bool
	TagIDs       []uint
	Sort         string
}

// RatingStat is the review aggregate of one product.
type RatingStat struct {
	ProductID uint
	Rating    float64
	Reviews   int64
}

func withCard(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags").Preload("Images").Preload("Sale")
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Preload("Subcategories").Order("id ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) ListTags(ctx context.Context, categoryID *uint) ([]models.Tag, error) {
	q := r.DB.WithContext(ctx).Model(&models.Tag{}).Order("tags.id ASC")
	if categoryID != nil {
		q = q.Where("tags.id IN (?)",
			r.DB.Table("product_tags").
				Select("product_tags.tag_id").
				Joins("JOIN products ON products.id = product_tags.product_id").
				Where("products.category_id = ?", *categoryID))
	}
	var tags []models.Tag
	if err := q.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormRepo) TagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error
	return tags, err
}

func (r *GormRepo) CreateTag(ctx context.Context, t *models.Tag) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func applyFilter(q *gorm.DB, f ProductFilter) *gorm.DB {
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where("LOWER(products.title) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.FreeDelivery {
		q = q.Where("products.free_delivery = ?", true)
	}
	if f.Available {
		q = q.Where("products.available = ? AND products.count > 0", true)
	}
	if len(f.TagIDs) > 0 {
		q = q.Where("products.id IN (SELECT product_id FROM product_tags WHERE tag_id IN ?)", f.TagIDs)
	}
	return q
}

func sortClause(sort string) string {
	desc := strings.HasPrefix(sort, "-")
	key := strings.TrimPrefix(sort, "-")

	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	switch key {
	case "price":
		return "products.price" + dir + ", products.id ASC"
	case "date":
		return "products.created_at" + dir + ", products.id ASC"
	case "rating":
		return ratingExpr + dir + ", products.id ASC"
	case "reviews":
		return reviewsExpr + dir + ", products.id ASC"
	default:
		return "products.id ASC"
	}
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := applyFilter(r.DB.WithContext(ctx).Model(&models.Product{}), f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	err := withCard(applyFilter(r.DB.WithContext(ctx).Model(&models.Product{}), f)).
		Order(sortClause(f.Sort)).
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SearchProductsLike(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	where := "LOWER(products.title) LIKE ? OR LOWER(products.description) LIKE ?"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where(where, like, like).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	err := withCard(r.DB.WithContext(ctx)).
		Where(where, like, like).
		Order("products.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ProductsByIDs loads products keeping the order of ids; missing ids are skipped.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := withCard(r.DB.WithContext(ctx)).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := withCard(r.DB.WithContext(ctx)).
		Preload("Specifications").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) Ratings(ctx context.Context, ids []uint) (map[uint]RatingStat, error) {
	out := make(map[uint]RatingStat, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []RatingStat
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("product_id, AVG(rate) AS rating, COUNT(*) AS reviews").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}

func (r *GormRepo) PopularProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := withCard(r.DB.WithContext(ctx)).
		Order(ratingExpr + " DESC, products.id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *GormRepo) LimitedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := withCard(r.DB.WithContext(ctx)).
		Where("is_limited = ?", true).
		Order("products.id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *GormRepo) RandomProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := withCard(r.DB.WithContext(ctx)).
		Order("RANDOM()").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// SaleProducts lists products whose sale has not ended by day.
func (r *GormRepo) SaleProducts(ctx context.Context, day time.Time, offset, limit int) (int64, []models.Product, error) {
	base := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&models.Product{}).
			Joins("JOIN sales ON sales.product_id = products.id").
			Where("sales.date_to >= ?", day)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	err := withCard(base()).
		Order("sales.date_to ASC, products.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// SaveProduct writes scalar columns and, when tags is non-nil, replaces the tag set.
func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product, tags []models.Tag) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		if tags != nil {
			if err := tx.Model(p).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteProduct removes a product with its dependent rows. Order items keep
// their snapshot but lose the product reference.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Clauses(forUpdate()).First(&p, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}
		for _, m := range []any{&models.BasketLine{}, &models.Sale{}, &models.ProductImage{}, &models.Specification{}, &models.Review{}} {
			if err := tx.Where("product_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&p).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
}

func (r *GormRepo) UpsertSale(ctx context.Context, s *models.Sale) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"discount", "date_from", "date_to"}),
	}).Create(s).Error
}

func (r *GormRepo) CreateReview(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}

func (r *GormRepo) CreateSpecification(ctx context.Context, s *models.Specification) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) CreateImage(ctx context.Context, img *models.ProductImage) error {
	return r.DB.WithContext(ctx).Create(img).Error
}

// LockProduct reads a product row FOR UPDATE together with its sale.
func (r *GormRepo) LockProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Clauses(forUpdate()).First(&p, id).Error; err != nil {
		return nil, err
	}
	var sale models.Sale
	err := r.DB.WithContext(ctx).Where("product_id = ?", id).Limit(1).Find(&sale).Error
	if err != nil {
		return nil, err
	}
	if sale.ID != 0 {
		p.Sale = &sale
	}
	return &p, nil
}

func (r *GormRepo) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Sale").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// DecrementStock subtracts n from the stock only while enough is left.
// It reports false when the guard did not match.
func (r *GormRepo) DecrementStock(ctx context.Context, id uint, n int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND count >= ?", id, n).
		Update("count", gorm.Expr("count - ?", n))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
