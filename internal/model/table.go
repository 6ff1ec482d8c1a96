package model

import "time"

// Valid values for Table.Status. A table with open orders must be
// occupied; releasing it clears AssignedServerID and sets the status
// back to available.
const (
    TableAvailable = "available"
    TableOccupied  = "occupied"
    TableReserved  = "reserved"
)

// Table represents a physical dining table as stored in the `tables`
// table. Location is a free-form tag; the client offers interior,
// terrace, balcony and garden but any string is accepted.
//
// Fields:
//  ID               – primary key identifier.
//  Number           – table number, unique among active tables.
//  Capacity         – number of seats.
//  Location         – placement tag (interior, terrace, ...).
//  Status           – available, occupied or reserved.
//  AssignedServerID – waiter currently owning the table; set iff occupied.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Table struct {
    ID               uint64    // tables.id
    Number           uint32    // tables.number
    Capacity         uint32    // tables.capacity
    Location         string    // tables.location
    Status           string    // tables.status
    AssignedServerID *uint64   // tables.assigned_server_id (nullable)
    CreatedAt        time.Time // tables.created_at
    UpdatedAt        time.Time // tables.updated_at
}

// ValidTableStatus reports whether s names a known table status.
func ValidTableStatus(s string) bool {
    return s == TableAvailable || s == TableOccupied || s == TableReserved
}
