// Package repository defines error types that are reused across
// multiple repositories. These sentinel values let handlers map
// failure scenarios onto proper HTTP status codes: ErrForbidden
// becomes a 403, ErrConflict a 409, the various not-found sentinels a
// 404. Repositories return them instead of raw driver errors whenever
// the condition can be recognized.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as a waiter closing a table assigned
// to someone else.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as releasing a table that is no longer
// occupied or deleting a product referenced by open orders.
var ErrConflict = errors.New("conflict")

// ErrTableNotFound is returned when a dining table id does not exist.
var ErrTableNotFound = errors.New("table not found")

// ErrOrderNotFound is returned when an order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrProductNotFound is returned when a product id does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrSaleNotFound is returned when a sale id does not exist.
var ErrSaleNotFound = errors.New("sale not found")

// ErrUserNotFound is returned when a user id does not exist.
var ErrUserNotFound = errors.New("user not found")
