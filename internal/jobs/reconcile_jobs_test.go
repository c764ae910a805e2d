package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) RunReconciliationPass(ctx context.Context) (*domain.ReconcileResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*domain.ReconcileResult)
	return res, args.Error(1)
}

type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (lock.Release, bool, error) {
	args := m.Called(ctx, key, ttl)
	release := func(context.Context) error {
		m.released++
		return nil
	}
	return release, args.Bool(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{PassTimeout: time.Second},
		Lock:      config.LockConfig{TTL: 2 * time.Second},
	}
}

func TestRunReconcileOrders(t *testing.T) {
	svc := new(MockReconciliationService)
	locker := new(MockLocker)
	jr := NewJobRunner(&Services{Reconciliation: svc}, testConfig(), locker, nil)

	want := &domain.ReconcileResult{Started: 2, Completed: 1}
	locker.On("TryLock", mock.Anything, ReconcileOrdersJob, 2*time.Second).Return(true, nil)
	svc.On("RunReconciliationPass", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(want, nil)

	got, err := jr.RunReconcileOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, locker.released)
	svc.AssertExpectations(t)
	locker.AssertExpectations(t)
}

func TestRunReconcileOrders_LeaseHeldElsewhere(t *testing.T) {
	svc := new(MockReconciliationService)
	locker := new(MockLocker)
	jr := NewJobRunner(&Services{Reconciliation: svc}, testConfig(), locker, nil)

	locker.On("TryLock", mock.Anything, ReconcileOrdersJob, mock.Anything).Return(false, nil)

	_, err := jr.RunReconcileOrders(context.Background())
	assert.ErrorIs(t, err, ErrPassInProgress)
	svc.AssertNotCalled(t, "RunReconciliationPass", mock.Anything)
	assert.Equal(t, 0, locker.released)
}

func TestRunReconcileOrders_LockBackendDown(t *testing.T) {
	svc := new(MockReconciliationService)
	locker := new(MockLocker)
	jr := NewJobRunner(&Services{Reconciliation: svc}, testConfig(), locker, nil)

	locker.On("TryLock", mock.Anything, ReconcileOrdersJob, mock.Anything).Return(false, errors.New("dial tcp: connection refused"))

	_, err := jr.RunReconcileOrders(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPassInProgress)
	svc.AssertNotCalled(t, "RunReconciliationPass", mock.Anything)
}

func TestReconcileOrders_SwallowsFailuresAndPanics(t *testing.T) {
	svc := new(MockReconciliationService)
	jr := NewJobRunner(&Services{Reconciliation: svc}, testConfig(), nil, nil)

	svc.On("RunReconciliationPass", mock.Anything).Return(nil, domain.NewTransientError("database unavailable", nil)).Once()
	assert.NotPanics(t, jr.ReconcileOrders)

	svc.On("RunReconciliationPass", mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Once()
	assert.NotPanics(t, jr.ReconcileOrders)

	svc.AssertNumberOfCalls(t, "RunReconciliationPass", 2)
}
