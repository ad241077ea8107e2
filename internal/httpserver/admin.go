package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
	"github.com/Skotchmaster/ozonilberries/internal/util"
)

type AdminHandler struct {
	Catalog  *service.CatalogService
	Delivery *service.DeliveryService
	Checkout *service.CheckoutService
}

func (h *AdminHandler) productDetail(c echo.Context, status int, id uint) error {
	detail, err := h.Catalog.Product(c.Request().Context(), id)
	if err != nil {
		return fail(c, "product", err)
	}
	return c.JSON(status, detail)
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var req transport.ProductInput
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.Catalog.CreateProduct(c.Request().Context(), req)
	if err != nil {
		return fail(c, "create_product", err)
	}
	return h.productDetail(c, http.StatusCreated, p.ID)
}

func (h *AdminHandler) PatchProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transport.ProductPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := h.Catalog.PatchProduct(c.Request().Context(), id, req); err != nil {
		return fail(c, "patch_product", err)
	}
	return h.productDetail(c, http.StatusOK, id)
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return fail(c, "delete_product", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) SetSale(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transport.SaleInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := h.Catalog.SetSale(c.Request().Context(), id, req); err != nil {
		return fail(c, "set_sale", err)
	}
	return h.productDetail(c, http.StatusOK, id)
}

func (h *AdminHandler) CreateCategory(c echo.Context) error {
	var req transport.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.Catalog.CreateCategory(c.Request().Context(), req)
	if err != nil {
		return fail(c, "create_category", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminHandler) CreateTag(c echo.Context) error {
	var req transport.TagInput
	if err := bind(c, &req); err != nil {
		return err
	}
	tag, err := h.Catalog.CreateTag(c.Request().Context(), req.Name)
	if err != nil {
		return fail(c, "create_tag", err)
	}
	return c.JSON(http.StatusCreated, tag)
}

func (h *AdminHandler) DeliveryCosts(c echo.Context) error {
	rows, err := h.Delivery.List(c.Request().Context())
	if err != nil {
		return fail(c, "delivery_costs", err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *AdminHandler) CreateDeliveryCost(c echo.Context) error {
	var req transport.DeliveryCostInput
	if err := bind(c, &req); err != nil {
		return err
	}
	dc, err := h.Delivery.Create(c.Request().Context(), service.DeliveryCostInput{
		DeliveryPrice:        req.DeliveryPrice,
		ExpressDeliveryPrice: req.ExpressDeliveryPrice,
		FreeDeliveryBorder:   req.FreeDeliveryBorder,
		Activate:             req.Activate,
	})
	if err != nil {
		return fail(c, "create_delivery_cost", err)
	}
	return c.JSON(http.StatusCreated, dc)
}

func (h *AdminHandler) ActivateDeliveryCost(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Delivery.Activate(c.Request().Context(), id); err != nil {
		return fail(c, "activate_delivery_cost", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Orders(c echo.Context) error {
	p, offset, limit := page(c)
	total, orders, err := h.Checkout.ListAllOrders(c.Request().Context(), c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(c, "admin_orders", err)
	}
	return c.JSON(http.StatusOK, listResponse[transport.OrderResponse]{
		Items: transport.NewOrderList(orders),
		Meta:  util.NewMeta(p, offset, limit, total),
	})
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transport.OrderStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.Checkout.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return fail(c, "update_order_status", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(*order))
}
