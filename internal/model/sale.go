package model

import "time"

// Valid values for Sale.PaymentMethod.
const (
    PayCash     = "cash"
    PayCard     = "card"
    PayTransfer = "transfer"
)

// Sale is the permanent financial record created when a table is
// closed out, as stored in the `sales` table. Sales are immutable
// once written. AttemptKey is a client-generated idempotency key: one
// billing attempt maps to at most one sale row, so a retried close
// after a partial failure cannot record the sale twice.
//
// Fields:
//  ID            – primary key identifier.
//  TableID       – table that was closed.
//  ServerID      – waiter who closed it.
//  PaymentMethod – cash, card or transfer.
//  TotalCents    – grand total charged, in cents.
//  AttemptKey    – unique idempotency key of the billing attempt.
//  Items         – aggregated line items copied from the bill.
//  CreatedAt     – timestamp of creation.
type Sale struct {
    ID            uint64     // sales.id
    TableID       uint64     // sales.table_id
    ServerID      uint64     // sales.server_id
    PaymentMethod string     // sales.payment_method
    TotalCents    int64      // sales.total_cents
    AttemptKey    string     // sales.attempt_key
    Items         []SaleItem // sale_items rows
    CreatedAt     time.Time  // sales.created_at
}

// SaleItem is one aggregated product line of a sale as stored in the
// `sale_items` table. Quantity and subtotal are totals across every
// order that contained the product.
//
// Fields:
//  ID             – primary key identifier.
//  SaleID         – owning sale.
//  ProductName    – product name as billed.
//  Quantity       – total units across all orders.
//  UnitPriceCents – unit price in cents.
//  SubtotalCents  – total subtotal in cents.
type SaleItem struct {
    ID             uint64 // sale_items.id
    SaleID         uint64 // sale_items.sale_id
    ProductName    string // sale_items.product_name
    Quantity       uint32 // sale_items.quantity
    UnitPriceCents int64  // sale_items.unit_price_cents
    SubtotalCents  int64  // sale_items.subtotal_cents
}

// ValidPaymentMethod reports whether s names an accepted payment method.
func ValidPaymentMethod(s string) bool {
    return s == PayCash || s == PayCard || s == PayTransfer
}
