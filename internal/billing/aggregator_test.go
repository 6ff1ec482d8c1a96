package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

func order(id uint64, status string, total int64, items ...model.OrderItem) model.Order {
	return model.Order{ID: id, TableID: 7, Status: status, TotalCents: total, Items: items}
}

func item(name string, qty uint32, unit int64) model.OrderItem {
	return model.OrderItem{
		ProductName:    name,
		Quantity:       qty,
		UnitPriceCents: unit,
		SubtotalCents:  int64(qty) * unit,
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		orders    []model.Order
		wantLines []BillLine
		wantTotal int64
	}{
		{
			name: "merges same product across orders",
			orders: []model.Order{
				order(1, model.OrderServed, 1300, item("Burger", 2, 500), item("Fries", 1, 300)),
				order(2, model.OrderServed, 500, item("Burger", 1, 500)),
			},
			wantLines: []BillLine{
				{ProductName: "Burger", Quantity: 3, UnitPriceCents: 500, SubtotalCents: 1500},
				{ProductName: "Fries", Quantity: 1, UnitPriceCents: 300, SubtotalCents: 300},
			},
			wantTotal: 1800,
		},
		{
			name: "skips cancelled orders entirely",
			orders: []model.Order{
				order(1, model.OrderServed, 1300, item("Burger", 2, 500), item("Fries", 1, 300)),
				order(2, model.OrderCancelled, 250, item("Soda", 1, 250)),
				order(3, model.OrderServed, 500, item("Burger", 1, 500)),
			},
			wantLines: []BillLine{
				{ProductName: "Burger", Quantity: 3, UnitPriceCents: 500, SubtotalCents: 1500},
				{ProductName: "Fries", Quantity: 1, UnitPriceCents: 300, SubtotalCents: 300},
			},
			wantTotal: 1800,
		},
		{
			name:      "no orders yields an empty bill",
			orders:    nil,
			wantLines: []BillLine{},
			wantTotal: 0,
		},
		{
			name: "all orders cancelled yields an empty bill",
			orders: []model.Order{
				order(1, model.OrderCancelled, 500, item("Burger", 1, 500)),
				order(2, model.OrderCancelled, 300, item("Fries", 1, 300)),
			},
			wantLines: []BillLine{},
			wantTotal: 0,
		},
		{
			name: "lines keep first-seen order",
			orders: []model.Order{
				order(1, model.OrderServed, 550, item("Soda", 1, 250), item("Fries", 1, 300)),
				order(2, model.OrderServed, 800, item("Burger", 1, 500), item("Soda", 1, 250), item("Fries", 1, 300)),
			},
			wantLines: []BillLine{
				{ProductName: "Soda", Quantity: 2, UnitPriceCents: 250, SubtotalCents: 500},
				{ProductName: "Fries", Quantity: 2, UnitPriceCents: 300, SubtotalCents: 600},
				{ProductName: "Burger", Quantity: 1, UnitPriceCents: 500, SubtotalCents: 500},
			},
			wantTotal: 1350,
		},
		{
			name: "grouping is case-sensitive",
			orders: []model.Order{
				order(1, model.OrderServed, 500, item("Burger", 1, 500)),
				order(2, model.OrderServed, 500, item("burger", 1, 500)),
			},
			wantLines: []BillLine{
				{ProductName: "Burger", Quantity: 1, UnitPriceCents: 500, SubtotalCents: 500},
				{ProductName: "burger", Quantity: 1, UnitPriceCents: 500, SubtotalCents: 500},
			},
			wantTotal: 1000,
		},
		{
			name: "unit price comes from the first occurrence",
			orders: []model.Order{
				order(1, model.OrderServed, 500, item("Burger", 1, 500)),
				order(2, model.OrderServed, 550, item("Burger", 1, 550)),
			},
			wantLines: []BillLine{
				{ProductName: "Burger", Quantity: 2, UnitPriceCents: 500, SubtotalCents: 1050},
			},
			wantTotal: 1050,
		},
		{
			name: "grand total uses stored order totals, not line sums",
			orders: []model.Order{
				// Stored total deliberately disagrees with the items.
				order(1, model.OrderServed, 999, item("Burger", 1, 500)),
			},
			wantLines: []BillLine{
				{ProductName: "Burger", Quantity: 1, UnitPriceCents: 500, SubtotalCents: 500},
			},
			wantTotal: 999,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := Aggregate(7, tt.orders)
			assert.Equal(t, uint64(7), bill.TableID)
			assert.Equal(t, tt.wantLines, bill.Lines)
			assert.Equal(t, tt.wantTotal, bill.GrandTotalCents)
		})
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	orders := []model.Order{
		order(1, model.OrderServed, 1300, item("Burger", 2, 500), item("Fries", 1, 300)),
		order(2, model.OrderCancelled, 250, item("Soda", 1, 250)),
		order(3, model.OrderPending, 500, item("Burger", 1, 500)),
	}

	first := Aggregate(7, orders)
	second := Aggregate(7, orders)
	require.Equal(t, first, second)

	// The input must come through untouched.
	assert.Equal(t, uint32(2), orders[0].Items[0].Quantity)
	assert.Len(t, orders, 3)
}
