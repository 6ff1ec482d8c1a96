// Package billing implements the table-closing workflow: it folds a
// table's open orders into one consolidated bill, records the sale and
// releases the table. The aggregation itself is a pure function; all
// I/O goes through the collaborator interfaces in workflow.go.
package billing

import "github.com/iliyamo/restaurant-pos/internal/model"

// BillLine is one aggregated product line of a bill. Quantity and
// subtotal are totals across every retained order that contained the
// product; the unit price is taken from the first occurrence seen.
type BillLine struct {
	ProductName    string `json:"product_name"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// Bill is the ephemeral consolidated view of a table's non-cancelled
// orders at closing time. It is never persisted on its own; a Sale is
// written from it instead.
//
// GrandTotalCents sums the retained orders' stored totals. It is not
// recomputed from Lines, so if an order's total ever disagrees with
// its own line items the two figures diverge here too.
type Bill struct {
	TableID         uint64     `json:"table_id"`
	Lines           []BillLine `json:"lines"`
	GrandTotalCents int64      `json:"grand_total_cents"`
}

// Aggregate folds the given orders for one table into a Bill.
// Cancelled orders are dropped entirely. Line items are grouped by
// exact product name (case-sensitive, no normalization) in first-seen
// order, accumulating quantity and subtotal per product. An empty or
// all-cancelled order set yields an empty bill with a zero grand
// total; that is a valid result, not an error.
//
// Aggregate has no side effects and is deterministic: the same input
// always produces a deeply equal Bill.
func Aggregate(tableID uint64, orders []model.Order) Bill {
	bill := Bill{TableID: tableID, Lines: []BillLine{}}
	index := make(map[string]int) // product name -> position in bill.Lines

	for _, o := range orders {
		if o.Status == model.OrderCancelled {
			continue
		}
		bill.GrandTotalCents += o.TotalCents
		for _, it := range o.Items {
			if pos, ok := index[it.ProductName]; ok {
				bill.Lines[pos].Quantity += it.Quantity
				bill.Lines[pos].SubtotalCents += it.SubtotalCents
				continue
			}
			index[it.ProductName] = len(bill.Lines)
			bill.Lines = append(bill.Lines, BillLine{
				ProductName:    it.ProductName,
				Quantity:       it.Quantity,
				UnitPriceCents: it.UnitPriceCents,
				SubtotalCents:  it.SubtotalCents,
			})
		}
	}
	return bill
}
