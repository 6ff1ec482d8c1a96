package model

import "time"

// Product represents a catalog item as stored in the `products`
// table. Prices are held in integer cents to avoid floating point
// drift when subtotals are accumulated.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – product name printed on orders and tickets.
//  Category    – free-form grouping (drinks, mains, desserts, ...).
//  PriceCents  – unit price in cents.
//  Description – optional longer description.
//  Available   – whether the product can be ordered right now.
//  ImageURL    – optional image location; upload handling lives elsewhere.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Product struct {
    ID          uint64    // products.id
    Name        string    // products.name
    Category    string    // products.category
    PriceCents  int64     // products.price_cents
    Description string    // products.description
    Available   bool      // products.available
    ImageURL    *string   // products.image_url (nullable)
    CreatedAt   time.Time // products.created_at
    UpdatedAt   time.Time // products.updated_at
}
