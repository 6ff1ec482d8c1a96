package model

import "time"

// Valid values for Order.Status. An order moves pending →
// in_preparation → served while the kitchen works it; paid and
// cancelled are terminal.
const (
    OrderPending       = "pending"
    OrderInPreparation = "in_preparation"
    OrderServed        = "served"
    OrderPaid          = "paid"
    OrderCancelled     = "cancelled"
)

// Order represents one round of items requested at a table, as stored
// in the `orders` table. Total is fixed at creation time from the
// line items and treated as authoritative afterwards.
//
// Fields:
//  ID         – primary key identifier.
//  TableID    – table the order belongs to.
//  ServerID   – waiter who created the order.
//  Status     – lifecycle state (see constants above).
//  TotalCents – sum of line-item subtotals at creation time.
//  Items      – line items; loaded on demand by the repository.
//  CreatedAt  – timestamp of creation.
type Order struct {
    ID         uint64      // orders.id
    TableID    uint64      // orders.table_id
    ServerID   uint64      // orders.server_id
    Status     string      // orders.status
    TotalCents int64       // orders.total_cents
    Items      []OrderItem // order_items rows
    CreatedAt  time.Time   // orders.created_at
}

// OrderItem is a single line of an order as stored in the
// `order_items` table. The product name and unit price are copied
// from the catalog at order time so later catalog edits do not
// rewrite history. Subtotal is stored as given, not re-derived.
//
// Fields:
//  ID             – primary key identifier.
//  OrderID        – owning order.
//  ProductName    – catalog name at order time.
//  Quantity       – units ordered.
//  UnitPriceCents – unit price in cents at order time.
//  SubtotalCents  – quantity × unit price, in cents.
type OrderItem struct {
    ID             uint64 // order_items.id
    OrderID        uint64 // order_items.order_id
    ProductName    string // order_items.product_name
    Quantity       uint32 // order_items.quantity
    UnitPriceCents int64  // order_items.unit_price_cents
    SubtotalCents  int64  // order_items.subtotal_cents
}

// ValidOrderStatus reports whether s names a known order status.
func ValidOrderStatus(s string) bool {
    switch s {
    case OrderPending, OrderInPreparation, OrderServed, OrderPaid, OrderCancelled:
        return true
    }
    return false
}
