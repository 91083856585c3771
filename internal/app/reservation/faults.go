package reservation

import (
	"errors"
	"fmt"
)

// FaultKind classifies reservation failures. Every workflow stage maps to
// exactly one kind; the HTTP edge translates kinds to status codes.
type FaultKind string

const (
	KindUnauthenticated FaultKind = "UNAUTHENTICATED"
	KindNotFound        FaultKind = "NOT_FOUND"
	KindInvalidRequest  FaultKind = "INVALID_REQUEST"
	KindConflict        FaultKind = "CONFLICT"
	KindPaymentFailed   FaultKind = "PAYMENT_FAILED"
)

// Fault is a user-displayable reservation failure.
type Fault struct {
	Kind    FaultKind
	Message string
	Cause   error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("reservation: %s: %v", f.Message, f.Cause)
	}
	return "reservation: " + f.Message
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// ErrorKind exposes the kind as a string so infrastructure that records and
// replays errors can carry it without knowing this package.
func (f *Fault) ErrorKind() string {
	return string(f.Kind)
}

func newFault(kind FaultKind, message string, cause error) *Fault {
	return &Fault{Kind: kind, Message: message, Cause: cause}
}

// AsFault extracts a Fault from an error chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// KindOf returns the fault kind, or empty string for non-fault errors. An
// error replayed from an idempotency record is not a *Fault anymore but
// still reports its kind.
func KindOf(err error) FaultKind {
	if f, ok := AsFault(err); ok {
		return f.Kind
	}
	var kinded interface{ ErrorKind() string }
	if errors.As(err, &kinded) {
		return FaultKind(kinded.ErrorKind())
	}
	return ""
}
