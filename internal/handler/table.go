package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// TableHandler exposes the floor plan: table CRUD for admins, plus
// the occupancy actions waiters drive during a shift. Closing a table
// lives in BillingHandler.
type TableHandler struct {
	Tables *repository.TableRepo
	Orders *repository.OrderRepo
}

func NewTableHandler(tables *repository.TableRepo, orders *repository.OrderRepo) *TableHandler {
	if tables == nil || orders == nil {
		panic("nil repository passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables, Orders: orders}
}

type tableReq struct {
	Number   uint32  `json:"number"`
	Capacity uint32  `json:"capacity"`
	Location string  `json:"location"`
	Status   string  `json:"status"`
	ServerID *uint64 `json:"assigned_server_id"`
}

type tableResp struct {
	ID               uint64    `json:"id"`
	Number           uint32    `json:"number"`
	Capacity         uint32    `json:"capacity"`
	Location         string    `json:"location"`
	Status           string    `json:"status"`
	AssignedServerID *uint64   `json:"assigned_server_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toTableResp(t model.Table) tableResp {
	return tableResp{
		ID:               t.ID,
		Number:           t.Number,
		Capacity:         t.Capacity,
		Location:         t.Location,
		Status:           t.Status,
		AssignedServerID: t.AssignedServerID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// List handles GET /v1/tables.
func (h *TableHandler) List(c echo.Context) error {
	tables, err := h.Tables.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tables"})
	}
	out := make([]tableResp, len(tables))
	for i, t := range tables {
		out[i] = toTableResp(t)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load table"})
	}
	return c.JSON(http.StatusOK, toTableResp(t))
}

// Create handles POST /v1/tables (admin only).
func (h *TableHandler) Create(c echo.Context) error {
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Number == 0 || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number and capacity must be greater than zero"})
	}
	if req.Location == "" {
		req.Location = "interior"
	}
	t, err := h.Tables.Create(c.Request().Context(), req.Number, req.Capacity, req.Location)
	if err != nil {
		if errors.Is(err, repository.ErrTableNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create table"})
	}
	return c.JSON(http.StatusCreated, toTableResp(t))
}

// Update handles PUT /v1/tables/:id. Missing fields keep their
// current value; the client sends partial bodies when toggling
// status from the floor screen.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	cur, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load table"})
	}

	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Number == 0 {
		req.Number = cur.Number
	}
	if req.Capacity == 0 {
		req.Capacity = cur.Capacity
	}
	if req.Location == "" {
		req.Location = cur.Location
	}
	if req.Status == "" {
		req.Status = cur.Status
	}
	if !model.ValidTableStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table status"})
	}
	server := req.ServerID
	if server == nil && req.Status == model.TableOccupied {
		server = cur.AssignedServerID
	}
	if req.Status != model.TableOccupied {
		server = nil // assigned server is only meaningful while occupied
	}

	t, err := h.Tables.Update(c.Request().Context(), id, req.Number, req.Capacity, req.Location, req.Status, server)
	if err != nil {
		if errors.Is(err, repository.ErrTableNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update table"})
	}
	return c.JSON(http.StatusOK, toTableResp(t))
}

// Occupy handles POST /v1/tables/:id/occupy: the authenticated waiter
// takes the table. Taken tables answer 409.
func (h *TableHandler) Occupy(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.Occupy(c.Request().Context(), id, uid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "table is already occupied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to occupy table"})
	}
	return c.JSON(http.StatusOK, toTableResp(t))
}

// ListOrders handles GET /v1/tables/:id/orders.
func (h *TableHandler) ListOrders(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if _, err := h.Tables.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load table"})
	}
	orders, err := h.Orders.ListByTable(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list orders"})
	}
	out := make([]orderResp, len(orders))
	for i, o := range orders {
		out[i] = toOrderResp(o)
	}
	return c.JSON(http.StatusOK, out)
}

// Delete handles DELETE /v1/tables/:id (admin only).
func (h *TableHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "table has order history"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete table"})
	}
	return c.NoContent(http.StatusNoContent)
}
