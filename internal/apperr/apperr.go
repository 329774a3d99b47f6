// Package apperr defines the error kinds the POS core reports to callers.
// Every user-visible failure is a synchronous rejection carrying a Kind and
// a stable reason Code.
package apperr

import (
	"github.com/cockroachdb/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPrecondition
	KindConsistency
	KindConcurrency
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPrecondition:
		return "precondition"
	case KindConsistency:
		return "consistency"
	case KindConcurrency:
		return "concurrency"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// Error is a rejection with a reason code.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

var (
	ErrShopClosed        = New(KindPrecondition, "shop_closed", "shop is closed")
	ErrTableOccupied     = New(KindPrecondition, "table_occupied", "table is already occupied")
	ErrTableNotOccupied  = New(KindPrecondition, "table_not_occupied", "table is not occupied")
	ErrOrderNotActive    = New(KindPrecondition, "order_not_active", "order is not active")
	ErrItemsPending      = New(KindPrecondition, "items_pending", "kitchen has not served every item yet")
	ErrPhantomTable      = New(KindConsistency, "phantom_table", "table is occupied but has no active order")
	ErrTableHasOrder     = New(KindConsistency, "table_has_order", "table has an active order and cannot be reset")
	ErrAlreadySettled    = New(KindConcurrency, "already_settled", "order was settled by another request")
	ErrReceiptConflict   = New(KindConcurrency, "receipt_conflict", "receipt number already used, retry settlement")
	ErrInsufficientCash  = New(KindValidation, "insufficient_cash", "cash tendered is less than the grand total")
	ErrDiscountInactive  = New(KindValidation, "discount_inactive", "discount is not active")
	ErrMenuUnavailable   = New(KindValidation, "menu_unavailable", "menu item is not available")
	ErrBadQuantity       = New(KindValidation, "bad_quantity", "quantity is not valid for this menu item")
	ErrNoItems           = New(KindValidation, "no_items", "no items to append")
	ErrBadPaymentMethod  = New(KindValidation, "bad_payment_method", "payment method must be cash or transfer")
	ErrActiveOrderAbsent = New(KindNotFound, "no_active_order", "table has no active order")
	ErrNotFound          = New(KindNotFound, "not_found", "record not found")
)

// Invalid builds a validation error with a custom message.
func Invalid(code, msg string) error {
	return New(KindValidation, code, msg)
}

var errExternal = errors.New("external collaborator failure")

// External marks an infrastructure failure (database, broker, cache).
func External(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, "%s", op), errExternal)
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, errExternal) {
		return KindExternal
	}
	return KindInternal
}

// CodeOf returns the reason code for err.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, errExternal) {
		return "external_failure"
	}
	return "internal_error"
}
