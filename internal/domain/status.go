package domain

import "github.com/Skotchmaster/ozonilberries/internal/models"

var validNext = map[string]map[string]bool{
	models.OrderStatusConfirmRequired: {models.OrderStatusConfirmed: true, models.OrderStatusCancel: true},
	models.OrderStatusConfirmed:       {models.OrderStatusPaid: true, models.OrderStatusSent: true, models.OrderStatusCancel: true},
	models.OrderStatusPaid:            {models.OrderStatusSent: true, models.OrderStatusCancel: true},
	models.OrderStatusSent:            {models.OrderStatusDelivered: true, models.OrderStatusCancel: true},
	models.OrderStatusDelivered:       {},
	models.OrderStatusCancel:          {},
}

func CanTransition(from, to string) bool {
	return validNext[from][to]
}

func IsKnownStatus(s string) bool {
	_, ok := validNext[s]
	return ok
}

// ListedStatuses are the statuses shown in a customer's order list.
var ListedStatuses = []string{models.OrderStatusConfirmRequired, models.OrderStatusConfirmed}
