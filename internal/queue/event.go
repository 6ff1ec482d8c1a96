// Package queue defines message payloads exchanged over the message broker.
package queue

// SaleRecordedEvent is published when a table is closed out and its
// sale recorded. It carries enough for downstream consumers (shift
// reports, kitchen displays, notifications) to act without querying
// the primary database.
type SaleRecordedEvent struct {
    SaleID        uint64          `json:"sale_id"`
    TableID       uint64          `json:"table_id"`
    TableNumber   uint32          `json:"table_number"`
    ServerID      uint64          `json:"server_id"`
    ServerName    string          `json:"server_name"`
    PaymentMethod string          `json:"payment_method"`
    TotalCents    int64           `json:"total_cents"`
    Lines         []SaleEventLine `json:"lines"`
    RecordedAt    string          `json:"recorded_at"`
}

// SaleEventLine is one aggregated product line of the recorded sale.
type SaleEventLine struct {
    ProductName    string `json:"product_name"`
    Quantity       uint32 `json:"quantity"`
    UnitPriceCents int64  `json:"unit_price_cents"`
    SubtotalCents  int64  `json:"subtotal_cents"`
}
