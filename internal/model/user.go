package model

import "time"

// Valid values for User.Role. ADMIN manages the catalog, the floor
// plan and staff accounts; WAITER owns tables and takes orders.
const (
    RoleAdmin  = "ADMIN"
    RoleWaiter = "WAITER"
)

// User represents a staff account as stored in the `users` table.
// Handlers define separate response types with JSON tags; these
// structs are used by the repository layer.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name shown on tickets and order cards.
//  Email        – unique email address (login identifier).
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or WAITER.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// ValidRole reports whether s names a known staff role.
func ValidRole(s string) bool { return s == RoleAdmin || s == RoleWaiter }

// RefreshToken models a row in the `refresh_tokens` table. The plain
// token is never stored; only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the token was revoked (null while active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
