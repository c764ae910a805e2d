package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindConflict      ErrorKind = "conflict"
	KindNotFound      ErrorKind = "not_found"
	KindIntegrity     ErrorKind = "integrity"
	KindTransient     ErrorKind = "transient"
)

// Error is the typed result every coordinator operation fails with.
// Reason is safe to show to the caller except for integrity errors.
type Error struct {
	Kind      ErrorKind
	Reason    string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CallerFault reports whether the error stems from the request rather than the server.
func (e *Error) CallerFault() bool {
	switch e.Kind {
	case KindValidation, KindAuthorization, KindNotFound:
		return true
	case KindConflict:
		return !e.Retryable
	}
	return false
}

// Is matches the bare kind sentinels, so errors.Is(err, ErrConflict) holds for every conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrIntegrity     = &Error{Kind: KindIntegrity}
	ErrTransient     = &Error{Kind: KindTransient}
)

var (
	ErrEquipmentNotFound     = NewValidationError("equipment not found")
	ErrEquipmentUnavailable  = NewValidationError("equipment is not available for the requested dates")
	ErrEquipmentOutOfService = NewValidationError("equipment is under maintenance or offline")
	ErrOrderNotFound         = &Error{Kind: KindNotFound, Reason: "order not found"}
	ErrPermissionDenied      = &Error{Kind: KindAuthorization, Reason: "permission denied"}
)

func NewValidationError(reason string) error {
	return &Error{Kind: KindValidation, Reason: reason}
}

func NewConflictError(reason string) error {
	return &Error{Kind: KindConflict, Reason: reason}
}

func NewIllegalTransitionError(from, to OrderStatus) error {
	return &Error{Kind: KindConflict, Reason: fmt.Sprintf("illegal transition from %s to %s", from, to)}
}

func NewIntegrityError(reason string, cause error) error {
	return &Error{Kind: KindIntegrity, Reason: reason, Err: cause}
}

// NewStoreConflictError marks a lost race against a concurrent writer; callers may retry.
func NewStoreConflictError(cause error) error {
	return &Error{Kind: KindConflict, Reason: "concurrent update, retry", Retryable: true, Err: cause}
}

func NewTransientError(reason string, cause error) error {
	return &Error{Kind: KindTransient, Reason: reason, Retryable: true, Err: cause}
}

// KindOf returns the kind of the first *Error in the chain; untyped errors count as transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransient
}

func IsRetryable(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Retryable
	}
	return err != nil
}

// PublicMessage is the text an external caller may see for err.
func PublicMessage(err error) string {
	var de *Error
	if !errors.As(err, &de) || de.Kind == KindIntegrity || de.Kind == KindTransient {
		return "internal error"
	}
	if de.Reason == "" {
		return string(de.Kind)
	}
	return de.Reason
}
