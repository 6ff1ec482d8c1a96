package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// SaleHandler exposes the recorded-sales ledger: listing, lookups and
// the daily totals used by the reporting screen.
type SaleHandler struct {
	Sales *repository.SaleRepo
}

func NewSaleHandler(sales *repository.SaleRepo) *SaleHandler {
	return &SaleHandler{Sales: sales}
}

type saleItemResp struct {
	ProductName    string `json:"product_name"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type saleResp struct {
	ID            uint64         `json:"id"`
	TableID       uint64         `json:"table_id"`
	ServerID      uint64         `json:"server_id"`
	PaymentMethod string         `json:"payment_method"`
	TotalCents    int64          `json:"total_cents"`
	AttemptKey    string         `json:"attempt_key"`
	Items         []saleItemResp `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
}

func toSaleResp(s model.Sale) saleResp {
	items := make([]saleItemResp, len(s.Items))
	for i, it := range s.Items {
		items[i] = saleItemResp{
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  it.SubtotalCents,
		}
	}
	return saleResp{
		ID:            s.ID,
		TableID:       s.TableID,
		ServerID:      s.ServerID,
		PaymentMethod: s.PaymentMethod,
		TotalCents:    s.TotalCents,
		AttemptKey:    s.AttemptKey,
		Items:         items,
		CreatedAt:     s.CreatedAt,
	}
}

// List handles GET /v1/sales. Optional ?from=YYYY-MM-DD&to=YYYY-MM-DD
// narrows the range; both bounds must be present together.
func (h *SaleHandler) List(c echo.Context) error {
	from := c.QueryParam("from")
	to := c.QueryParam("to")

	var (
		sales []model.Sale
		err   error
	)
	switch {
	case from == "" && to == "":
		sales, err = h.Sales.List(c.Request().Context())
	case from != "" && to != "":
		var start, end time.Time
		start, err = time.Parse("2006-01-02", from)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
		}
		end, err = time.Parse("2006-01-02", to)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
		}
		// End bound is inclusive of the whole day.
		sales, err = h.Sales.ListByDateRange(c.Request().Context(), start, end.Add(24*time.Hour))
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to must be provided together"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list sales"})
	}

	out := make([]saleResp, len(sales))
	for i, s := range sales {
		out[i] = toSaleResp(s)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/sales/:id.
func (h *SaleHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sale id"})
	}
	sale, err := h.Sales.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sale not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch sale"})
	}
	return c.JSON(http.StatusOK, toSaleResp(sale))
}

type saleItemReq struct {
	ProductName    string `json:"product_name"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type saleCreateReq struct {
	TableID       uint64        `json:"table_id"`
	PaymentMethod string        `json:"payment_method"`
	AttemptKey    string        `json:"attempt_key"`
	Items         []saleItemReq `json:"items"`
}

// Create handles POST /v1/sales: a direct ledger write outside the
// table-closing flow, for corrections and walk-in charges. The caller
// may supply an attempt key to make retries idempotent; without one a
// fresh key is generated and the write happens at most once.
func (h *SaleHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req saleCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment method"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sale requires at least one item"})
	}

	var total int64
	items := make([]model.SaleItem, len(req.Items))
	for i, it := range req.Items {
		if it.ProductName == "" || it.Quantity == 0 || it.UnitPriceCents < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sale item"})
		}
		sub := int64(it.Quantity) * it.UnitPriceCents
		items[i] = model.SaleItem{
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  sub,
		}
		total += sub
	}

	key := req.AttemptKey
	if key == "" {
		key = uuid.NewString()
	}

	sale, err := h.Sales.Create(c.Request().Context(), model.Sale{
		TableID:       req.TableID,
		ServerID:      uid,
		PaymentMethod: req.PaymentMethod,
		TotalCents:    total,
		AttemptKey:    key,
		Items:         items,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record sale"})
	}
	return c.JSON(http.StatusCreated, toSaleResp(sale))
}

// Stats handles GET /v1/sales/stats?date=YYYY-MM-DD, defaulting to
// today. Returns total, count and average for the day.
func (h *SaleHandler) Stats(c echo.Context) error {
	day := time.Now().UTC()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	stats, err := h.Sales.Stats(c.Request().Context(), start, start.Add(24*time.Hour))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":          start.Format("2006-01-02"),
		"total_cents":   stats.TotalCents,
		"count":         stats.Count,
		"average_cents": stats.AverageCents,
	})
}
