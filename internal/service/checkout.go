package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/ozonilberries/internal/domain"
	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/metrics"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/mykafka"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/shopspring/decimal"
)

type CheckoutService struct {
	Repo    *repo.GormRepo
	Events  EventPublisher
	Metrics *metrics.Checkout
}

// ConfirmInput carries the contact and delivery fields of a confirmation.
type ConfirmInput struct {
	FullName     string
	Email        string
	Phone        string
	DeliveryType string
	PaymentType  string
	City         string
	Address      string
	Comment      string
}

func (s *CheckoutService) CreateOrder(ctx context.Context, caller Caller) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.create_order", "user_id", caller.UserID)

	n, err := s.Repo.CountBasketLines(ctx, repo.Owner{UserID: caller.UserID})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: basket is empty", ErrValidation)
	}

	order := &models.Order{
		UserID:    caller.UserID,
		Status:    models.OrderStatusConfirmRequired,
		TotalCost: decimal.Zero,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	l.Info("order_created", "order_id", order.ID)

	publish(ctx, s.Events, mykafka.TopicOrder, order.ID, mykafka.NewEvent("order_created", map[string]any{
		"orderID": order.ID,
		"userID":  order.UserID,
	}))
	return order, nil
}

// GetOrder returns the order when the caller owns it or is an admin.
func (s *CheckoutService) GetOrder(ctx context.Context, caller Caller, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "order")
	}
	if !caller.Owns(order.UserID) && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return order, nil
}

// ListOrders returns the caller's orders that still need attention.
func (s *CheckoutService) ListOrders(ctx context.Context, caller Caller) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, caller.UserID, domain.ListedStatuses)
}

func (s *CheckoutService) ListAllOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	if status != "" && !domain.IsKnownStatus(status) {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Repo.ListAllOrders(ctx, status, offset, limit)
}

// UpdateStatus applies an administrative transition.
func (s *CheckoutService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !domain.IsKnownStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var from string
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return translate(err, "order")
		}
		from = order.Status
		if !domain.CanTransition(order.Status, status) {
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrValidation, order.Status, status)
		}
		return tx.UpdateOrderStatus(ctx, id, status)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicOrder, id, mykafka.NewEvent("order_status_changed", map[string]any{
		"orderID": id,
		"from":    from,
		"to":      status,
	}))
	return s.Repo.GetOrder(ctx, id)
}

// AwaitingConfirmation resolves an order the caller may confirm: it must
// exist in confirm_required status and belong to the caller unless the
// caller is an admin.
func (s *CheckoutService) AwaitingConfirmation(ctx context.Context, caller Caller, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		s.Metrics.Confirmation("not_found")
		return nil, translate(err, "order")
	}
	if order.Status != models.OrderStatusConfirmRequired {
		s.Metrics.Confirmation("not_found")
		return nil, fmt.Errorf("%w: no order %d awaiting confirmation", ErrNotFound, orderID)
	}
	if !caller.Owns(order.UserID) && !caller.IsAdmin() {
		s.Metrics.Confirmation("forbidden")
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return order, nil
}

// ConfirmOrder turns the owner's basket into order items, charges delivery
// and moves the order to confirmed. Everything happens in one transaction:
// a failing line leaves no stock decrement and no item behind.
func (s *CheckoutService) ConfirmOrder(ctx context.Context, caller Caller, orderID uint, in ConfirmInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.confirm_order", "order_id", orderID)

	if _, err := s.AwaitingConfirmation(ctx, caller, orderID); err != nil {
		return nil, err
	}

	name, deliveryType, paymentType, err := parseConfirmInput(in)
	if err != nil {
		s.Metrics.Confirmation("invalid")
		return nil, err
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		locked, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return translate(err, "order")
		}
		if locked.Status != models.OrderStatusConfirmRequired {
			return fmt.Errorf("%w: no order %d awaiting confirmation", ErrNotFound, orderID)
		}

		cfg, err := loadDeliveryConfig(ctx, tx)
		if err != nil {
			return err
		}

		// an admin confirming someone else's order uses the owner's basket
		owner := repo.Owner{UserID: locked.UserID}
		lines, err := tx.BasketLines(ctx, owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: basket is empty", ErrValidation)
		}

		items, subtotal, err := reserveLines(ctx, tx, orderID, lines)
		if err != nil {
			return err
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return err
		}
		if err := tx.ClearBasket(ctx, owner); err != nil {
			return err
		}

		locked.FullName = name.String()
		locked.Email = in.Email
		locked.Phone = in.Phone
		locked.DeliveryType = string(deliveryType)
		locked.PaymentType = string(paymentType)
		locked.City = in.City
		locked.Address = in.Address
		locked.Comment = in.Comment
		locked.TotalCost = domain.ApplyDelivery(subtotal, deliveryType, cfg)
		locked.Status = models.OrderStatusConfirmed
		if err := tx.SaveOrder(ctx, locked); err != nil {
			return err
		}

		return syncProfile(ctx, tx, locked.UserID, name, in.Email, in.Phone)
	})
	if err != nil {
		s.Metrics.Confirmation(confirmResult(err))
		l.Warn("confirm_order_failed", "error", err)
		return nil, err
	}
	s.Metrics.Confirmation("confirmed")

	confirmed, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	l.Info("order_confirmed", "total", confirmed.TotalCost.StringFixed(2), "items", len(confirmed.Items))

	publish(ctx, s.Events, mykafka.TopicOrder, orderID, mykafka.NewEvent("order_confirmed", map[string]any{
		"orderID":      orderID,
		"userID":       confirmed.UserID,
		"totalCost":    confirmed.TotalCost.StringFixed(2),
		"deliveryType": confirmed.DeliveryType,
		"items":        len(confirmed.Items),
	}))
	return confirmed, nil
}

func parseConfirmInput(in ConfirmInput) (domain.FullName, domain.DeliveryType, domain.PaymentType, error) {
	var errs []error

	name, err := domain.SplitFullName(in.FullName)
	if err != nil {
		errs = append(errs, err)
	}
	if err := domain.ValidatePhone(in.Phone); err != nil {
		errs = append(errs, err)
	}
	deliveryType, err := domain.ParseDeliveryType(in.DeliveryType)
	if err != nil {
		errs = append(errs, err)
	}
	paymentType, err := domain.ParsePaymentType(in.PaymentType)
	if err != nil {
		errs = append(errs, err)
	}
	if in.Email == "" {
		errs = append(errs, errors.New("email is required"))
	}
	if in.City == "" || in.Address == "" {
		errs = append(errs, errors.New("city and address are required"))
	}

	if len(errs) > 0 {
		return domain.FullName{}, "", "", fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return name, deliveryType, paymentType, nil
}

func loadDeliveryConfig(ctx context.Context, tx *repo.GormRepo) (domain.DeliveryConfig, error) {
	rows, err := tx.ActiveDeliveryCosts(ctx)
	if err != nil {
		return domain.DeliveryConfig{}, err
	}
	active := make([]domain.DeliveryConfig, 0, len(rows))
	for _, r := range rows {
		active = append(active, domain.DeliveryConfig{
			DeliveryPrice:        r.DeliveryPrice,
			ExpressDeliveryPrice: r.ExpressDeliveryPrice,
			FreeDeliveryBorder:   r.FreeDeliveryBorder,
		})
	}
	cfg, err := domain.ActiveDeliveryConfig(active)
	if err != nil {
		return domain.DeliveryConfig{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return cfg, nil
}

// reserveLines locks every product of the basket in product id order,
// checks and decrements its stock and snapshots an order item per line.
func reserveLines(ctx context.Context, tx *repo.GormRepo, orderID uint, lines []models.BasketLine) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(lines))
	priced := make([]domain.PricedLine, 0, len(lines))

	for _, ln := range lines {
		p, err := tx.LockProduct(ctx, ln.ProductID)
		if err != nil {
			return nil, decimal.Zero, translate(err, "product")
		}
		if ln.Count > p.Count {
			return nil, decimal.Zero, fmt.Errorf("%w: not enough %q in stock, available %d", ErrValidation, p.Title, p.Count)
		}
		ok, err := tx.DecrementStock(ctx, p.ID, ln.Count)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: not enough %q in stock", ErrValidation, p.Title)
		}

		unit := effectivePrice(*p)
		productID := p.ID
		items = append(items, models.OrderItem{
			OrderID:   orderID,
			ProductID: &productID,
			Name:      p.Title,
			Price:     unit,
			Count:     ln.Count,
		})
		priced = append(priced, domain.PricedLine{UnitPrice: unit, Count: ln.Count})
	}
	return items, domain.BasketTotal(priced), nil
}

// syncProfile copies the confirmed contact fields into the owner's profile.
func syncProfile(ctx context.Context, tx *repo.GormRepo, userID uint, name domain.FullName, email, phone string) error {
	other, err := tx.ContactOwner(ctx, userID, email, phone)
	if err != nil {
		return err
	}
	if other != 0 {
		return fmt.Errorf("%w: email or phone is already used by another account", ErrValidation)
	}
	if err := tx.UpdateUserNames(ctx, userID, name.First, name.Last); err != nil {
		return err
	}
	return translate(tx.UpsertProfile(ctx, &models.Profile{
		UserID:     userID,
		MiddleName: name.Middle,
		Email:      &email,
		Phone:      &phone,
	}), "profile contact")
}

func confirmResult(err error) string {
	var cfgErr *domain.DeliveryConfigError
	switch {
	case errors.As(err, &cfgErr):
		return "misconfigured"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
