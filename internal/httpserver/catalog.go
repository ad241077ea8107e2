package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
	"github.com/Skotchmaster/ozonilberries/internal/util"
)

type CatalogHandler struct {
	Svc *service.CatalogService
}

type listResponse[T any] struct {
	Items []T       `json:"items"`
	Meta  util.Meta `json:"meta"`
}

func page(c echo.Context) (int, int, int) {
	p := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(p, size)
	return p, offset, limit
}

func (h *CatalogHandler) Categories(c echo.Context) error {
	cats, err := h.Svc.Categories(c.Request().Context())
	if err != nil {
		return fail(c, "categories", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHandler) Tags(c echo.Context) error {
	var categoryID *uint
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		v := uint(id)
		categoryID = &v
	}
	tags, err := h.Svc.Tags(c.Request().Context(), categoryID)
	if err != nil {
		return fail(c, "tags", err)
	}
	return c.JSON(http.StatusOK, tags)
}

// parseFilter reads the catalog query string.
func parseFilter(c echo.Context) (repo.ProductFilter, error) {
	f := repo.ProductFilter{
		Name: strings.TrimSpace(c.QueryParam("name")),
		Sort: c.QueryParam("sort"),
	}

	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		v := uint(id)
		f.CategoryID = &v
	}
	for name, dst := range map[string]**decimal.Decimal{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = &d
	}
	for name, dst := range map[string]*bool{"freeDelivery": &f.FreeDelivery, "available": &f.Available} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = b
	}
	for _, raw := range c.QueryParams()["tags"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return f, echo.NewHTTPError(http.StatusBadRequest, "invalid tags")
			}
			f.TagIDs = append(f.TagIDs, uint(id))
		}
	}
	return f, nil
}

func (h *CatalogHandler) Catalog(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	p, offset, limit := page(c)

	total, cards, err := h.Svc.Catalog(c.Request().Context(), f, offset, limit)
	if err != nil {
		return fail(c, "catalog", err)
	}
	return c.JSON(http.StatusOK, listResponse[transport.ProductCard]{Items: cards, Meta: util.NewMeta(p, offset, limit, total)})
}

func (h *CatalogHandler) Search(c echo.Context) error {
	p, offset, limit := page(c)

	total, cards, err := h.Svc.SearchProducts(c.Request().Context(), c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(c, "search", err)
	}
	return c.JSON(http.StatusOK, listResponse[transport.ProductCard]{Items: cards, Meta: util.NewMeta(p, offset, limit, total)})
}

func (h *CatalogHandler) Product(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.Svc.Product(c.Request().Context(), id)
	if err != nil {
		return fail(c, "product", err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *CatalogHandler) AddReview(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transport.ReviewInput
	if err := bind(c, &req); err != nil {
		return err
	}

	rv, err := h.Svc.AddReview(c.Request().Context(), authmw.Caller(c), id, req)
	if err != nil {
		return fail(c, "add_review", err)
	}
	return c.JSON(http.StatusCreated, transport.ReviewResponse{
		Author: rv.Author,
		Email:  rv.Email,
		Text:   rv.Text,
		Rate:   rv.Rate,
		Date:   rv.CreatedAt,
	})
}

func (h *CatalogHandler) Popular(c echo.Context) error {
	cards, err := h.Svc.Popular(c.Request().Context())
	if err != nil {
		return fail(c, "popular", err)
	}
	return c.JSON(http.StatusOK, cards)
}

func (h *CatalogHandler) Limited(c echo.Context) error {
	cards, err := h.Svc.Limited(c.Request().Context())
	if err != nil {
		return fail(c, "limited", err)
	}
	return c.JSON(http.StatusOK, cards)
}

func (h *CatalogHandler) Banners(c echo.Context) error {
	cards, err := h.Svc.Banners(c.Request().Context())
	if err != nil {
		return fail(c, "banners", err)
	}
	return c.JSON(http.StatusOK, cards)
}

func (h *CatalogHandler) Sales(c echo.Context) error {
	p, offset, limit := page(c)

	total, items, err := h.Svc.Sales(c.Request().Context(), offset, limit)
	if err != nil {
		return fail(c, "sales", err)
	}
	return c.JSON(http.StatusOK, listResponse[transport.SaleItem]{Items: items, Meta: util.NewMeta(p, offset, limit, total)})
}
