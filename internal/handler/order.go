package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// OrderHandler exposes order creation and tracking. Items reference
// the catalog at order time: name and unit price are copied from the
// product row so later catalog edits never rewrite an open order.
type OrderHandler struct {
	Orders   *repository.OrderRepo
	Tables   *repository.TableRepo
	Products *repository.ProductRepo
}

func NewOrderHandler(orders *repository.OrderRepo, tables *repository.TableRepo, products *repository.ProductRepo) *OrderHandler {
	if orders == nil || tables == nil || products == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders, Tables: tables, Products: products}
}

type orderItemReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  uint32 `json:"quantity"`
}

type orderItemResp struct {
	ProductName    string `json:"product_name"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type orderResp struct {
	ID         uint64          `json:"id"`
	TableID    uint64          `json:"table_id"`
	ServerID   uint64          `json:"server_id"`
	Status     string          `json:"status"`
	TotalCents int64           `json:"total_cents"`
	Items      []orderItemResp `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toOrderResp(o model.Order) orderResp {
	items := make([]orderItemResp, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResp{
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  it.SubtotalCents,
		}
	}
	return orderResp{
		ID:         o.ID,
		TableID:    o.TableID,
		ServerID:   o.ServerID,
		Status:     o.Status,
		TotalCents: o.TotalCents,
		Items:      items,
		CreatedAt:  o.CreatedAt,
	}
}

// List handles GET /v1/orders with an optional ?table_id= filter.
func (h *OrderHandler) List(c echo.Context) error {
	var tableID *uint64
	if s := c.QueryParam("table_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
		}
		tableID = &id
	}
	orders, err := h.Orders.List(c.Request().Context(), tableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list orders"})
	}
	out := make([]orderResp, len(orders))
	for i, o := range orders {
		out[i] = toOrderResp(o)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	return c.JSON(http.StatusOK, toOrderResp(o))
}

// Create handles POST /v1/orders. The authenticated waiter becomes
// the order's server; the table must exist and is marked occupied by
// that waiter when still free. Items must reference available
// products with positive quantities.
func (h *OrderHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		TableID uint64         `json:"table_id"`
		Items   []orderItemReq `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
	}

	ctx := c.Request().Context()
	table, err := h.Tables.GetByID(ctx, body.TableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load table"})
	}

	items := make([]model.OrderItem, 0, len(body.Items))
	for _, it := range body.Items {
		if it.ProductID == 0 || it.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "item product_id and quantity must be greater than zero"})
		}
		p, err := h.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown product in items"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
		}
		if !p.Available {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": p.Name + " is not available"})
		}
		items = append(items, model.OrderItem{
			ProductName:    p.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
			SubtotalCents:  p.PriceCents * int64(it.Quantity),
		})
	}

	o, err := h.Orders.Create(ctx, body.TableID, uid, items)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}

	// First order on a free table claims it for this waiter. A table
	// with open orders must be occupied, so the claim keeps that
	// invariant without asking the client for a second call.
	if table.Status != model.TableOccupied {
		if _, err := h.Tables.Occupy(ctx, table.ID, uid); err != nil && !errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to occupy table"})
		}
	}

	return c.JSON(http.StatusCreated, toOrderResp(o))
}

// UpdateStatus handles PUT /v1/orders/:id. Only the lifecycle status
// can change after creation; line items are immutable.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidOrderStatus(body.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order status"})
	}
	o, err := h.Orders.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}
	return c.JSON(http.StatusOK, toOrderResp(o))
}

// Delete handles DELETE /v1/orders/:id.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	if err := h.Orders.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete order"})
	}
	return c.NoContent(http.StatusNoContent)
}
