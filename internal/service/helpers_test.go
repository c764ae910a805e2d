package service_test

import (
	"context"
	"testing"
	"time"

	"equiprent-backend/internal/clock"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/repository/memory"
	"equiprent-backend/internal/service"

	"github.com/stretchr/testify/require"
)

const (
	day     = 24 * time.Hour
	ownerID = int32(1)
	renter  = int32(2)
	renter2 = int32(3)
	admin   = int32(99)
)

// D is the fixture's starting "now".
var D = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store      repository.Store
	clock      *clock.Fake
	metrics    *metrics.Metrics
	orders     service.OrderService
	equipment  service.EquipmentService
	payments   service.PaymentService
	reconciler service.ReconciliationService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, memory.NewStore())
}

func newFixtureWithStore(t *testing.T, store repository.Store) *fixture {
	t.Helper()
	clk := clock.NewFake(D)
	m := metrics.New()
	return &fixture{
		store:      store,
		clock:      clk,
		metrics:    m,
		orders:     service.NewOrderService(store, clk, m),
		equipment:  service.NewEquipmentService(store, clk),
		payments:   service.NewPaymentService(store, clk, m),
		reconciler: service.NewReconciliationService(store, clk, m, service.ReconcileOptions{ExpireStalePending: true}),
	}
}

func (f *fixture) addEquipment(t *testing.T, price int64) *domain.Equipment {
	t.Helper()
	eq := &domain.Equipment{OwnerID: ownerID, Name: "Concrete mixer", DailyPriceCents: price}
	require.NoError(t, f.equipment.RegisterEquipment(context.Background(), eq))
	return eq
}

func (f *fixture) book(t *testing.T, equipmentID, renterID int32, from, to time.Duration) *domain.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), equipmentID, renterID, D.Add(from), D.Add(to))
	require.NoError(t, err)
	return o
}

func (f *fixture) accept(t *testing.T, orderID int32) {
	t.Helper()
	_, err := f.orders.Transition(context.Background(), orderID, domain.OrderStatusAccepted, ownerID, false)
	require.NoError(t, err)
}

func (f *fixture) orderStatus(t *testing.T, orderID int32) domain.OrderStatus {
	t.Helper()
	o, err := f.store.Orders().GetByID(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status
}

func (f *fixture) equipmentStatus(t *testing.T, equipmentID int32) domain.EquipmentStatus {
	t.Helper()
	eq, err := f.store.Equipment().GetByID(context.Background(), equipmentID)
	require.NoError(t, err)
	return eq.Status
}
