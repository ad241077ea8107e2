package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
)

type BasketHandler struct {
	Baskets *service.BasketService
}

func newBasketResponse(b *service.Basket) transport.BasketResponse {
	items := make([]transport.BasketLineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		items = append(items, transport.BasketLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Title:     l.Product.Title,
			Count:     l.Count,
			Price:     transport.Money(l.UnitPrice),
			Total:     transport.Money(l.Total),
			InStock:   l.Product.Count,
		})
	}
	return transport.BasketResponse{Items: items, TotalCost: transport.Money(b.Total)}
}

func (h *BasketHandler) respond(c echo.Context, status int) error {
	b, err := h.Baskets.GetBasket(c.Request().Context(), authmw.Owner(c))
	if err != nil {
		return fail(c, "get_basket", err)
	}
	return c.JSON(status, newBasketResponse(b))
}

func (h *BasketHandler) Get(c echo.Context) error {
	return h.respond(c, http.StatusOK)
}

func (h *BasketHandler) Add(c echo.Context) error {
	var req transport.AddToBasketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if _, err := h.Baskets.AddToBasket(c.Request().Context(), authmw.Owner(c), req.ProductID, req.Count); err != nil {
		return fail(c, "add_to_basket", err)
	}
	return h.respond(c, http.StatusCreated)
}

func (h *BasketHandler) Remove(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transport.RemoveFromBasketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if _, _, err := h.Baskets.RemoveFromBasket(c.Request().Context(), authmw.Owner(c), id, req.Count); err != nil {
		return fail(c, "remove_from_basket", err)
	}
	return h.respond(c, http.StatusOK)
}
