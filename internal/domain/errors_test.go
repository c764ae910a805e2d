package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", ErrEquipmentUnavailable)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.True(t, errors.Is(wrapped, ErrEquipmentUnavailable))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, "equipment is not available for the requested dates", PublicMessage(wrapped))
}

func TestIllegalTransitionIsPermanentConflict(t *testing.T) {
	err := NewIllegalTransitionError(OrderStatusPending, OrderStatusCompleted)

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "PENDING to COMPLETED")
}

func TestStoreConflictIsRetryable(t *testing.T) {
	err := NewStoreConflictError(errors.New("could not serialize access"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, IsRetryable(err))
}

func TestIntegrityErrorHidesDetail(t *testing.T) {
	err := NewIntegrityError("order 4 references missing equipment 9", errors.New("no rows"))

	assert.Equal(t, KindIntegrity, KindOf(err))
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.Contains(t, err.Error(), "missing equipment 9")
}

func TestUntypedErrorsAreTransient(t *testing.T) {
	err := context.DeadlineExceeded

	assert.Equal(t, KindTransient, KindOf(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestError_CallerFault(t *testing.T) {
	assert.True(t, ErrEquipmentUnavailable.(*Error).CallerFault())
	assert.True(t, ErrPermissionDenied.CallerFault())
	assert.True(t, NewIllegalTransitionError(OrderStatusPending, OrderStatusCompleted).(*Error).CallerFault())
	assert.False(t, NewStoreConflictError(nil).(*Error).CallerFault())
	assert.False(t, NewIntegrityError("missing equipment", nil).(*Error).CallerFault())
	assert.False(t, NewTransientError("timeout", nil).(*Error).CallerFault())
}
