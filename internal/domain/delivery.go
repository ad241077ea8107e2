package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DeliveryType string

const (
	DeliveryStandard DeliveryType = "standard"
	DeliveryExpress  DeliveryType = "express"
)

type PaymentType string

const (
	PaymentCard    PaymentType = "card"
	PaymentAccount PaymentType = "account"
)

var deliveryAliases = map[string]DeliveryType{
	"standard": DeliveryStandard,
	"delivery": DeliveryStandard,
	"express":  DeliveryExpress,
}

var paymentAliases = map[string]PaymentType{
	"card":           PaymentCard,
	"online_card":    PaymentCard,
	"account":        PaymentAccount,
	"online_account": PaymentAccount,
}

func ParseDeliveryType(s string) (DeliveryType, error) {
	if t, ok := deliveryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown delivery type %q", s)
}

func ParsePaymentType(s string) (PaymentType, error) {
	if t, ok := paymentAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown payment type %q", s)
}

// DeliveryConfig is the single active delivery pricing row.
type DeliveryConfig struct {
	DeliveryPrice        decimal.Decimal
	ExpressDeliveryPrice decimal.Decimal
	FreeDeliveryBorder   decimal.Decimal
}

// DeliveryConfigError reports that the number of active delivery rows is not one.
type DeliveryConfigError struct {
	Active int
}

func (e *DeliveryConfigError) Error() string {
	if e.Active == 0 {
		return "no active delivery cost is configured, an administrator must activate one"
	}
	return fmt.Sprintf("%d active delivery costs are configured, an administrator must leave exactly one active", e.Active)
}

func ActiveDeliveryConfig(active []DeliveryConfig) (DeliveryConfig, error) {
	if len(active) != 1 {
		return DeliveryConfig{}, &DeliveryConfigError{Active: len(active)}
	}
	return active[0], nil
}

// ApplyDelivery adds the delivery surcharges to a basket subtotal. Both the
// base price (below the free threshold) and the express price can apply.
func ApplyDelivery(subtotal decimal.Decimal, t DeliveryType, cfg DeliveryConfig) decimal.Decimal {
	total := subtotal
	if subtotal.LessThan(cfg.FreeDeliveryBorder) {
		total = total.Add(cfg.DeliveryPrice)
	}
	if t == DeliveryExpress {
		total = total.Add(cfg.ExpressDeliveryPrice)
	}
	return total
}
