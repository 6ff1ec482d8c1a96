package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/billing"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	queue_publisher "github.com/iliyamo/restaurant-pos/internal/service"
)

// BillingHandler drives the table-closing workflow over HTTP: the
// ticket preview and the close action. It depends on the billing
// collaborator interfaces rather than concrete repositories so the
// workflow wiring stays the same in tests and in production.
type BillingHandler struct {
	Store  billing.TableOrderStore
	Ledger billing.SalesLedger

	// Publish announces a recorded sale on the broker. Failures are
	// logged and ignored; the sale is already durable in MySQL.
	// Replaceable in tests.
	Publish func(ctx context.Context, ev queue.SaleRecordedEvent) error
}

func NewBillingHandler(store billing.TableOrderStore, ledger billing.SalesLedger) *BillingHandler {
	if store == nil || ledger == nil {
		panic("nil collaborator passed to NewBillingHandler")
	}
	return &BillingHandler{
		Store:   store,
		Ledger:  ledger,
		Publish: queue_publisher.PublishSaleRecorded,
	}
}

type billLineResp struct {
	ProductName    string `json:"product_name"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type billResp struct {
	TableID         uint64         `json:"table_id"`
	TableNumber     uint32         `json:"table_number"`
	Lines           []billLineResp `json:"lines"`
	GrandTotalCents int64          `json:"grand_total_cents"`
	OpenOrders      int            `json:"open_orders"`
}

func toBillResp(t model.Table, b billing.Bill, openOrders int) billResp {
	lines := make([]billLineResp, len(b.Lines))
	for i, ln := range b.Lines {
		lines[i] = billLineResp(ln)
	}
	return billResp{
		TableID:         b.TableID,
		TableNumber:     t.Number,
		Lines:           lines,
		GrandTotalCents: b.GrandTotalCents,
		OpenOrders:      openOrders,
	}
}

// GetBill handles GET /v1/tables/:id/bill: the ticket preview the
// client shows before asking for a payment method. A table without
// orders yields an empty bill, not an error.
func (h *BillingHandler) GetBill(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}

	w := billing.New(h.Store, h.Ledger)
	if err := w.Load(c.Request().Context(), id); err != nil {
		return billingError(c, err)
	}

	open := 0
	for _, o := range w.Orders() {
		if o.Status != model.OrderCancelled {
			open++
		}
	}
	bill := billing.Aggregate(w.Table().ID, w.Orders())
	return c.JSON(http.StatusOK, toBillResp(w.Table(), bill, open))
}

// CloseTable handles POST /v1/tables/:id/close: runs one full billing
// workflow invocation (load, aggregate, record the sale, delete the
// table's orders, release the table) and answers with the sale and
// the released table.
func (h *BillingHandler) CloseTable(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	w := billing.New(h.Store, h.Ledger)
	if err := w.Load(ctx, id); err != nil {
		return billingError(c, err)
	}
	if _, err := w.BeginClose(); err != nil {
		return billingError(c, err)
	}
	res, err := w.Confirm(ctx, uid, body.PaymentMethod)
	if err != nil {
		return billingError(c, err)
	}

	h.publishSale(ctx, c, res)

	return c.JSON(http.StatusOK, echo.Map{
		"sale":  toSaleResp(res.Sale),
		"table": toTableResp(res.Table),
	})
}

func (h *BillingHandler) publishSale(ctx context.Context, c echo.Context, res billing.Result) {
	if h.Publish == nil {
		return
	}
	name, _ := c.Get("user_name").(string)
	lines := make([]queue.SaleEventLine, len(res.Bill.Lines))
	for i, ln := range res.Bill.Lines {
		lines[i] = queue.SaleEventLine(ln)
	}
	ev := queue.SaleRecordedEvent{
		SaleID:        res.Sale.ID,
		TableID:       res.Table.ID,
		TableNumber:   res.Table.Number,
		ServerID:      res.Sale.ServerID,
		ServerName:    name,
		PaymentMethod: res.Sale.PaymentMethod,
		TotalCents:    res.Sale.TotalCents,
		Lines:         lines,
		RecordedAt:    res.Sale.CreatedAt.Format(time.RFC3339),
	}
	if err := h.Publish(ctx, ev); err != nil {
		log.Printf("billing: publish sale event failed: %v", err)
	}
}

// billingError maps workflow failures to HTTP responses. The message
// tells the client whether re-running the whole close is safe
// (nothing recorded) or only the cleanup may be retried (sale already
// recorded).
func billingError(c echo.Context, err error) error {
	var be *billing.Error
	if !errors.As(err, &be) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "billing failed"})
	}
	switch be.Kind {
	case billing.KindFetch:
		if errors.Is(be.Err, billing.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load table data"})
	case billing.KindValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": be.Err.Error()})
	case billing.KindSaleSubmission:
		// Nothing was recorded: the whole close may be retried.
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":     "could not record sale",
			"retryable": "full",
		})
	case billing.KindOrderCleanup:
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":     "sale recorded, but order cleanup failed",
			"retryable": "cleanup_only",
		})
	case billing.KindTableRelease:
		if errors.Is(be.Err, billing.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "sale recorded, but the table was no longer occupied",
				"retryable": "none",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":     "sale recorded, but table release failed",
			"retryable": "cleanup_only",
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "billing failed"})
}
