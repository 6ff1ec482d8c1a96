package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-pos/internal/billing"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
)

type stubStore struct {
	table  model.Table
	orders []model.Order

	deleteErr error
	updateErr error

	deleted []uint64
}

func (s *stubStore) FetchTable(_ context.Context, tableID uint64) (model.Table, error) {
	if s.table.ID != tableID {
		return model.Table{}, billing.ErrTableNotFound
	}
	return s.table, nil
}

func (s *stubStore) FetchOrdersForTable(_ context.Context, tableID uint64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range s.orders {
		if o.TableID == tableID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateTable(_ context.Context, _ uint64, patch billing.TablePatch) (model.Table, error) {
	if s.updateErr != nil {
		return model.Table{}, s.updateErr
	}
	if patch.ExpectStatus != nil && s.table.Status != *patch.ExpectStatus {
		return model.Table{}, billing.ErrConflict
	}
	if patch.Status != nil {
		s.table.Status = *patch.Status
	}
	if patch.ClearServer {
		s.table.AssignedServerID = nil
	}
	return s.table, nil
}

func (s *stubStore) DeleteOrder(_ context.Context, orderID uint64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, orderID)
	return nil
}

type stubLedger struct {
	createErr error
	created   []model.Sale
}

func (l *stubLedger) CreateSale(_ context.Context, sale model.Sale) (model.Sale, error) {
	if l.createErr != nil {
		return model.Sale{}, l.createErr
	}
	sale.ID = uint64(len(l.created) + 1)
	l.created = append(l.created, sale)
	return sale, nil
}

func billedTable() model.Table {
	server := uint64(3)
	return model.Table{ID: 7, Number: 12, Capacity: 4, Status: model.TableOccupied, AssignedServerID: &server}
}

func billedOrders() []model.Order {
	return []model.Order{
		{ID: 1, TableID: 7, Status: model.OrderServed, TotalCents: 1300, Items: []model.OrderItem{
			{ProductName: "Burger", Quantity: 2, UnitPriceCents: 500, SubtotalCents: 1000},
			{ProductName: "Fries", Quantity: 1, UnitPriceCents: 300, SubtotalCents: 300},
		}},
		{ID: 2, TableID: 7, Status: model.OrderCancelled, TotalCents: 250, Items: []model.OrderItem{
			{ProductName: "Soda", Quantity: 1, UnitPriceCents: 250, SubtotalCents: 250},
		}},
	}
}

func newBillingContext(t *testing.T, method, body string, tableID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tableID)
	c.Set("user_id", uint64(3))
	c.Set("role", model.RoleWaiter)
	c.Set("user_name", "Dana")
	return c, rec
}

func TestGetBill(t *testing.T) {
	store := &stubStore{table: billedTable(), orders: billedOrders()}
	h := NewBillingHandler(store, &stubLedger{})

	c, rec := newBillingContext(t, http.MethodGet, "", "7")
	require.NoError(t, h.GetBill(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp billResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(7), resp.TableID)
	assert.Equal(t, uint32(12), resp.TableNumber)
	assert.Equal(t, int64(1300), resp.GrandTotalCents)
	assert.Equal(t, 1, resp.OpenOrders)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "Burger", resp.Lines[0].ProductName)
}

func TestGetBillEmptyTable(t *testing.T) {
	store := &stubStore{table: billedTable()}
	h := NewBillingHandler(store, &stubLedger{})

	c, rec := newBillingContext(t, http.MethodGet, "", "7")
	require.NoError(t, h.GetBill(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp billResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Lines)
	assert.Zero(t, resp.GrandTotalCents)
	assert.Zero(t, resp.OpenOrders)
}

func TestGetBillUnknownTable(t *testing.T) {
	h := NewBillingHandler(&stubStore{table: billedTable()}, &stubLedger{})

	c, rec := newBillingContext(t, http.MethodGet, "", "99")
	require.NoError(t, h.GetBill(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCloseTable(t *testing.T) {
	store := &stubStore{table: billedTable(), orders: billedOrders()}
	ledger := &stubLedger{}
	h := NewBillingHandler(store, ledger)

	var published []queue.SaleRecordedEvent
	h.Publish = func(_ context.Context, ev queue.SaleRecordedEvent) error {
		published = append(published, ev)
		return nil
	}

	c, rec := newBillingContext(t, http.MethodPost, `{"payment_method":"card"}`, "7")
	require.NoError(t, h.CloseTable(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sale  saleResp  `json:"sale"`
		Table tableResp `json:"table"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.PayCard, resp.Sale.PaymentMethod)
	assert.Equal(t, int64(1300), resp.Sale.TotalCents)
	assert.Equal(t, uint64(3), resp.Sale.ServerID)
	assert.NotEmpty(t, resp.Sale.AttemptKey)
	assert.Equal(t, model.TableAvailable, resp.Table.Status)
	assert.Nil(t, resp.Table.AssignedServerID)

	// Both orders were removed and one sale recorded.
	assert.Equal(t, []uint64{1, 2}, store.deleted)
	require.Len(t, ledger.created, 1)

	// The broker was told about the recorded sale.
	require.Len(t, published, 1)
	assert.Equal(t, uint64(7), published[0].TableID)
	assert.Equal(t, "Dana", published[0].ServerName)
	assert.Equal(t, int64(1300), published[0].TotalCents)
}

func TestCloseTablePublishFailureIsIgnored(t *testing.T) {
	store := &stubStore{table: billedTable(), orders: billedOrders()}
	h := NewBillingHandler(store, &stubLedger{})
	h.Publish = func(_ context.Context, _ queue.SaleRecordedEvent) error {
		return errors.New("broker down")
	}

	c, rec := newBillingContext(t, http.MethodPost, `{"payment_method":"cash"}`, "7")
	require.NoError(t, h.CloseTable(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCloseTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		tableID string
		body    string
		orders  []model.Order
		want    int
	}{
		{"unknown table", "99", `{"payment_method":"cash"}`, billedOrders(), http.StatusNotFound},
		{"no orders", "7", `{"payment_method":"cash"}`, nil, http.StatusBadRequest},
		{"bad payment method", "7", `{"payment_method":"cheque"}`, billedOrders(), http.StatusBadRequest},
		{"bad table id", "abc", `{"payment_method":"cash"}`, billedOrders(), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{table: billedTable(), orders: tt.orders}
			ledger := &stubLedger{}
			h := NewBillingHandler(store, ledger)
			h.Publish = nil

			c, rec := newBillingContext(t, http.MethodPost, tt.body, tt.tableID)
			require.NoError(t, h.CloseTable(c))
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, ledger.created)
			assert.Empty(t, store.deleted)
		})
	}
}

func TestCloseTableSaleFailureIsFullyRetryable(t *testing.T) {
	store := &stubStore{table: billedTable(), orders: billedOrders()}
	ledger := &stubLedger{createErr: errors.New("ledger unavailable")}
	h := NewBillingHandler(store, ledger)
	h.Publish = nil

	c, rec := newBillingContext(t, http.MethodPost, `{"payment_method":"cash"}`, "7")
	require.NoError(t, h.CloseTable(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "could not record sale", resp["error"])
	assert.Equal(t, "full", resp["retryable"])
	assert.Empty(t, store.deleted)
}

func TestCloseTableCleanupFailureKeepsSale(t *testing.T) {
	store := &stubStore{table: billedTable(), orders: billedOrders(), deleteErr: errors.New("order is locked")}
	ledger := &stubLedger{}
	h := NewBillingHandler(store, ledger)
	h.Publish = nil

	c, rec := newBillingContext(t, http.MethodPost, `{"payment_method":"cash"}`, "7")
	require.NoError(t, h.CloseTable(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cleanup_only", resp["retryable"])

	// The sale made it to the ledger before cleanup failed.
	assert.Len(t, ledger.created, 1)
}

func TestCloseTableReleaseConflict(t *testing.T) {
	table := billedTable()
	table.Status = model.TableAvailable // already released elsewhere
	store := &stubStore{table: table, orders: billedOrders()}
	h := NewBillingHandler(store, &stubLedger{})
	h.Publish = nil

	c, rec := newBillingContext(t, http.MethodPost, `{"payment_method":"cash"}`, "7")
	require.NoError(t, h.CloseTable(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "none", resp["retryable"])
}
