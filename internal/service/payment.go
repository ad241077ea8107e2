package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/ozonilberries/internal/domain"
	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/metrics"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/mykafka"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
)

type PaymentService struct {
	Repo    *repo.GormRepo
	Events  EventPublisher
	Metrics *metrics.Checkout
	Now     func() time.Time
}

type PaymentResult struct {
	Order   *models.Order
	Payment *models.Payment
}

func (r *PaymentResult) Paid() bool {
	return r.Payment != nil && r.Payment.IsPaid
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AwaitingPayment resolves a confirmed order the caller may pay for.
func (s *PaymentService) AwaitingPayment(ctx context.Context, caller Caller, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err, "order")
	}
	if order.Status != models.OrderStatusConfirmed {
		return nil, fmt.Errorf("%w: no order %d awaiting payment", ErrNotFound, orderID)
	}
	if !caller.Owns(order.UserID) && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return order, nil
}

// SubmitPayment runs the simulated charge for a confirmed order. The single
// payment row of the order is replaced on every attempt; on success the
// order moves to paid, otherwise it stays confirmed and may be retried.
func (s *PaymentService) SubmitPayment(ctx context.Context, caller Caller, orderID uint, card domain.Card) (*PaymentResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.submit", "order_id", orderID)

	order, err := s.AwaitingPayment(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	valid, err := domain.ValidateCard(card, s.now())
	if err != nil {
		s.Metrics.Payment("invalid")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	paid, reason := domain.SimulateCharge(valid.Number)
	payment := &models.Payment{
		OrderID: orderID,
		Name:    valid.Name,
		Number:  domain.MaskCardNumber(valid.Number),
		Month:   valid.Month,
		Year:    valid.Year,
		Code:    valid.Code,
		IsPaid:  paid,
		Error:   reason,
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		locked, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return translate(err, "order")
		}
		if locked.Status != models.OrderStatusConfirmed {
			return fmt.Errorf("%w: no order %d awaiting payment", ErrNotFound, orderID)
		}
		if err := tx.UpsertPayment(ctx, payment); err != nil {
			return err
		}
		if !paid {
			return nil
		}
		return tx.UpdateOrderStatus(ctx, orderID, models.OrderStatusPaid)
	})
	if err != nil {
		return nil, err
	}

	topicEvent := "payment_failed"
	if paid {
		topicEvent = "payment_succeeded"
		s.Metrics.Payment("paid")
		l.Info("payment_succeeded")
	} else {
		s.Metrics.Payment("declined")
		l.Info("payment_declined", "reason", reason)
	}
	publish(ctx, s.Events, mykafka.TopicPayment, orderID, mykafka.NewEvent(topicEvent, map[string]any{
		"orderID": orderID,
		"userID":  order.UserID,
		"error":   reason,
	}))

	updated, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Order: updated, Payment: updated.Payment}, nil
}
