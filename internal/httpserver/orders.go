package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ozonilberries/internal/domain"
	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
)

type OrderHandler struct {
	Checkout *service.CheckoutService
	Payments *service.PaymentService
}

func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.Checkout.ListOrders(c.Request().Context(), authmw.Caller(c))
	if err != nil {
		return fail(c, "list_orders", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *OrderHandler) Create(c echo.Context) error {
	order, err := h.Checkout.CreateOrder(c.Request().Context(), authmw.Caller(c))
	if err != nil {
		return fail(c, "create_order", err)
	}
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(*order))
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.Checkout.GetOrder(c.Request().Context(), authmw.Caller(c), id)
	if err != nil {
		return fail(c, "get_order", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(*order))
}

func (h *OrderHandler) Confirm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, caller := c.Request().Context(), authmw.Caller(c)
	if _, err := h.Checkout.AwaitingConfirmation(ctx, caller, id); err != nil {
		return fail(c, "confirm_order", err)
	}

	var req transport.ConfirmOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.Checkout.ConfirmOrder(ctx, caller, id, service.ConfirmInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		DeliveryType: req.DeliveryType,
		PaymentType:  req.PaymentType,
		City:         req.City,
		Address:      req.Address,
		Comment:      req.Comment,
	})
	if err != nil {
		return fail(c, "confirm_order", err)
	}
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(*order))
}

// Pay answers 200 when the order ends up paid and 400 with the decline
// message otherwise.
func (h *OrderHandler) Pay(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, caller := c.Request().Context(), authmw.Caller(c)
	if _, err := h.Payments.AwaitingPayment(ctx, caller, id); err != nil {
		return fail(c, "submit_payment", err)
	}

	var req transport.PaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.Payments.SubmitPayment(ctx, caller, id, domain.Card{
		Name:   req.Name,
		Number: string(req.Number),
		Month:  string(req.Month),
		Year:   string(req.Year),
		Code:   string(req.Code),
	})
	if err != nil {
		return fail(c, "submit_payment", err)
	}

	order := transport.NewOrderResponse(*res.Order)
	if !res.Paid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": res.Payment.Error, "order": order})
	}
	return c.JSON(http.StatusOK, order)
}
