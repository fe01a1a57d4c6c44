package service

import (
	"errors"
	"fmt"
)

// Kind groups failures by how callers should react to them.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindDiscount
	KindAuthorization
	KindConflict
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindDiscount:
		return "discount"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

// Reason is the machine-readable cause within a Kind.
type Reason string

const (
	ReasonInvalidCode           Reason = "invalid_code"
	ReasonExpired               Reason = "expired"
	ReasonExhaustedUses         Reason = "exhausted_uses"
	ReasonNotAuthorizedForCode  Reason = "not_authorized_for_code"
	ReasonOrderNotFound         Reason = "order_not_found"
	ReasonProductNotFound       Reason = "product_not_found"
	ReasonPaymentMethodNotFound Reason = "payment_method_not_found"
	ReasonInsufficientStock     Reason = "insufficient_stock"
	ReasonEmptyCheckout         Reason = "empty_checkout"
	ReasonInvalidInput          Reason = "invalid_input"
	ReasonOrderClosed           Reason = "order_closed"
	ReasonOrderAlreadyPlaced    Reason = "order_already_placed"
	ReasonAdminOnly             Reason = "admin_only"
	ReasonDeliveryFailed        Reason = "delivery_failed"
)

// Error is returned for every expected failure. Message is safe to show to
// the chat user or API caller.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Reason, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, reason Reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *Error {
	return newError(KindValidation, ReasonInvalidInput, format, args...)
}

func transportError(err error, format string, args ...any) *Error {
	e := newError(KindTransport, ReasonDeliveryFailed, format, args...)
	e.Err = err
	return e
}

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := asError(err)
	return ok && e.Kind == kind
}

// ReasonOf returns the reason carried by err, or "" for unexpected errors.
func ReasonOf(err error) Reason {
	if e, ok := asError(err); ok {
		return e.Reason
	}
	return ""
}

// MessageOf returns the user-facing message for err, or fallback when err is
// not a service error.
func MessageOf(err error, fallback string) string {
	if e, ok := asError(err); ok && e.Message != "" {
		return e.Message
	}
	return fallback
}
