package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// ProductHandler exposes the catalog. Reads are open to all staff;
// writes are admin only (enforced by route middleware).
type ProductHandler struct {
	Products *repository.ProductRepo
}

func NewProductHandler(products *repository.ProductRepo) *ProductHandler {
	if products == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: products}
}

type productReq struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
}

type productResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	Description string    `json:"description,omitempty"`
	Available   bool      `json:"available"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResp(p model.Product) productResp {
	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		Description: p.Description,
		Available:   p.Available,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// List handles GET /v1/products. ?available=true narrows to items the
// order screen may offer.
func (h *ProductHandler) List(c echo.Context) error {
	availableOnly := strings.EqualFold(c.QueryParam("available"), "true")
	products, err := h.Products.List(c.Request().Context(), availableOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list products"})
	}
	out := make([]productResp, len(products))
	for i, p := range products {
		out[i] = toProductResp(p)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	p, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Create handles POST /v1/products (admin only).
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" || req.PriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, category and a positive price_cents are required"})
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	p, err := h.Products.Create(c.Request().Context(), req.Name, req.Category, req.PriceCents, req.Description, available)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
	}
	return c.JSON(http.StatusCreated, toProductResp(p))
}

// Update handles PUT /v1/products/:id (admin only). Missing fields
// keep their current value so the client can toggle availability with
// a one-field body.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	cur, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}

	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = cur.Name
	}
	if strings.TrimSpace(req.Category) == "" {
		req.Category = cur.Category
	}
	if req.PriceCents == 0 {
		req.PriceCents = cur.PriceCents
	}
	if req.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be positive"})
	}
	if req.Description == "" {
		req.Description = cur.Description
	}
	available := cur.Available
	if req.Available != nil {
		available = *req.Available
	}

	p, err := h.Products.Update(c.Request().Context(), id, req.Name, req.Category, req.PriceCents, req.Description, available)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// SetImage handles PUT /v1/products/:id/image (admin only). The body
// carries the image URL produced by the upload pipeline; the pipeline
// itself is outside this service.
func (h *ProductHandler) SetImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var body struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.ImageURL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image_url required"})
	}
	if _, err := h.Products.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}
	url := strings.TrimSpace(body.ImageURL)
	if err := h.Products.SetImageURL(c.Request().Context(), id, &url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to set image"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteImage handles DELETE /v1/products/:id/image (admin only).
func (h *ProductHandler) DeleteImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if _, err := h.Products.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}
	if err := h.Products.SetImageURL(c.Request().Context(), id, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear image"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/products/:id (admin only).
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if err := h.Products.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}
	return c.NoContent(http.StatusNoContent)
}
