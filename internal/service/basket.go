package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/ozonilberries/internal/domain"
	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/mykafka"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BasketService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

// PricedBasketLine is a basket line with its unit price resolved.
type PricedBasketLine struct {
	models.BasketLine
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

type Basket struct {
	Lines []PricedBasketLine
	Total decimal.Decimal
}

func ownerKey(o repo.Owner) uint { return o.UserID }

func (s *BasketService) AddToBasket(ctx context.Context, owner repo.Owner, productID uint, count int) (*models.BasketLine, error) {
	l := logging.FromContext(ctx).With("svc", "basket.add", "product_id", productID)

	if !owner.Valid() {
		return nil, fmt.Errorf("%w: basket owner is required", ErrValidation)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", ErrValidation)
	}

	product, err := s.Repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, translate(err, "product")
	}
	// reservations are not tracked: only the requested amount is checked
	if count > product.Count {
		l.Info("add_to_basket_rejected", "requested", count, "in_stock", product.Count)
		return nil, fmt.Errorf("%w: not enough %q in stock, available %d", ErrValidation, product.Title, product.Count)
	}

	line := &models.BasketLine{ProductID: productID, Count: count}
	if owner.IsUser() {
		line.UserID = &owner.UserID
	} else {
		key := owner.SessionKey
		line.SessionKey = &key
	}
	if err := s.Repo.AddToBasket(ctx, line); err != nil {
		return nil, translate(err, "product")
	}

	publish(ctx, s.Events, mykafka.TopicBasket, ownerKey(owner), mykafka.NewEvent("line_added", map[string]any{
		"userID":    owner.UserID,
		"productID": productID,
		"count":     line.Count,
	}))
	return line, nil
}

// RemoveFromBasket deletes the line, or lowers its count when count is set
// and smaller than the line's count. It reports whether the line is gone.
func (s *BasketService) RemoveFromBasket(ctx context.Context, owner repo.Owner, lineID uint, count *int) (bool, *models.BasketLine, error) {
	if !owner.Valid() {
		return false, nil, fmt.Errorf("%w: basket owner is required", ErrValidation)
	}
	if count != nil && *count < 1 {
		return false, nil, fmt.Errorf("%w: count must be at least 1", ErrValidation)
	}

	deleted, line, err := s.Repo.RemoveFromBasket(ctx, owner, lineID, count)
	if err != nil {
		return false, nil, translate(err, "basket line")
	}

	publish(ctx, s.Events, mykafka.TopicBasket, ownerKey(owner), mykafka.NewEvent("line_removed", map[string]any{
		"userID":    owner.UserID,
		"productID": line.ProductID,
		"deleted":   deleted,
	}))
	return deleted, line, nil
}

func (s *BasketService) GetBasket(ctx context.Context, owner repo.Owner) (*Basket, error) {
	if !owner.Valid() {
		return &Basket{Total: decimal.Zero}, nil
	}
	lines, err := s.Repo.BasketLines(ctx, owner)
	if err != nil {
		return nil, err
	}
	return priceBasket(lines), nil
}

func priceBasket(lines []models.BasketLine) *Basket {
	b := &Basket{Lines: make([]PricedBasketLine, 0, len(lines))}
	priced := make([]domain.PricedLine, 0, len(lines))
	for _, ln := range lines {
		unit := effectivePrice(ln.Product)
		b.Lines = append(b.Lines, PricedBasketLine{
			BasketLine: ln,
			UnitPrice:  unit,
			Total:      domain.LineTotal(unit, ln.Count),
		})
		priced = append(priced, domain.PricedLine{UnitPrice: unit, Count: ln.Count})
	}
	b.Total = domain.BasketTotal(priced)
	return b
}

// MergeSessionBasket moves an anonymous basket to the user who just signed in.
func (s *BasketService) MergeSessionBasket(ctx context.Context, sessionKey string, userID uint) error {
	if sessionKey == "" || userID == 0 {
		return nil
	}
	moved, err := s.Repo.MergeBasket(ctx, sessionKey, userID)
	if err != nil {
		return err
	}
	if moved > 0 {
		publish(ctx, s.Events, mykafka.TopicBasket, userID, mykafka.NewEvent("basket_merged", map[string]any{
			"userID": userID,
			"lines":  moved,
		}))
	}
	return nil
}

func effectivePrice(p models.Product) decimal.Decimal {
	if p.Sale == nil {
		return domain.EffectivePrice(p.Price, 0)
	}
	return domain.EffectivePrice(p.Price, p.Sale.Discount)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
