package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/shopspring/decimal"
)

type DeliveryService struct {
	Repo *repo.GormRepo
}

type DeliveryCostInput struct {
	DeliveryPrice        decimal.Decimal
	ExpressDeliveryPrice decimal.Decimal
	FreeDeliveryBorder   decimal.Decimal
	Activate             bool
}

func (s *DeliveryService) List(ctx context.Context) ([]models.DeliveryCost, error) {
	return s.Repo.ListDeliveryCosts(ctx)
}

func (s *DeliveryService) Create(ctx context.Context, in DeliveryCostInput) (*models.DeliveryCost, error) {
	if in.DeliveryPrice.IsNegative() || in.ExpressDeliveryPrice.IsNegative() || in.FreeDeliveryBorder.IsNegative() {
		return nil, fmt.Errorf("%w: delivery prices must not be negative", ErrValidation)
	}

	dc := &models.DeliveryCost{
		DeliveryPrice:        in.DeliveryPrice,
		ExpressDeliveryPrice: in.ExpressDeliveryPrice,
		FreeDeliveryBorder:   in.FreeDeliveryBorder,
	}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreateDeliveryCost(ctx, dc); err != nil {
			return err
		}
		if !in.Activate {
			return nil
		}
		return tx.ActivateDeliveryCost(ctx, dc.ID)
	})
	if err != nil {
		return nil, err
	}
	dc.IsActive = in.Activate
	return dc, nil
}

// Activate leaves id as the single active delivery configuration.
func (s *DeliveryService) Activate(ctx context.Context, id uint) error {
	return translate(s.Repo.ActivateDeliveryCost(ctx, id), "delivery cost")
}
