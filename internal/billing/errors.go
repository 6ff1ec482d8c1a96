package billing

import (
	"errors"
	"fmt"
)

// Kind classifies workflow failures so callers can tell a close that
// is safe to retry whole (nothing was recorded) from one that already
// wrote the sale and must only retry cleanup.
type Kind string

const (
	// KindFetch: table or orders could not be loaded.
	KindFetch Kind = "fetch"
	// KindValidation: close attempted with zero orders, or an
	// unrecognized payment method was confirmed.
	KindValidation Kind = "validation"
	// KindSaleSubmission: the sales ledger rejected or failed the
	// sale creation. Nothing downstream was attempted.
	KindSaleSubmission Kind = "sale_submission"
	// KindOrderCleanup: an order deletion failed after the sale was
	// recorded. The sale exists, some orders remain, the table is
	// still occupied.
	KindOrderCleanup Kind = "order_cleanup"
	// KindTableRelease: the table update failed after the sale was
	// recorded and the orders deleted.
	KindTableRelease Kind = "table_release"
)

// Error wraps a downstream failure with the workflow state in which
// it occurred. Every failure is surfaced to the caller this way; none
// are swallowed, and the workflow never retries on its own.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("billing: %s in state %s", e.Kind, e.State)
	}
	return fmt.Sprintf("billing: %s in state %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or "" when err is not a
// workflow error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

func newError(kind Kind, state State, cause error) *Error {
	return &Error{Kind: kind, State: state, Err: cause}
}
