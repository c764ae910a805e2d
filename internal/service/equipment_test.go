package service_test

import (
	"context"
	"testing"
	"time"

	"equiprent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquipmentService_RegisterEquipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	eq := &domain.Equipment{OwnerID: ownerID, DailyPriceCents: 2500}
	require.NoError(t, f.equipment.RegisterEquipment(ctx, eq))
	assert.NotZero(t, eq.ID)
	assert.Equal(t, domain.EquipmentStatusAvailable, eq.Status)
	assert.Equal(t, D, eq.CreatedAt)

	assert.ErrorIs(t, f.equipment.RegisterEquipment(ctx, &domain.Equipment{OwnerID: ownerID}), domain.ErrValidation)
	assert.ErrorIs(t, f.equipment.RegisterEquipment(ctx, &domain.Equipment{DailyPriceCents: 1}), domain.ErrValidation)
	assert.ErrorIs(t, f.equipment.RegisterEquipment(ctx, &domain.Equipment{OwnerID: ownerID, DailyPriceCents: 1, Status: domain.EquipmentStatusRented}), domain.ErrValidation)

	_, err := f.equipment.GetEquipment(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEquipmentService_IsAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.addEquipment(t, 100)
	f.book(t, eq.ID, renter, day, 3*day)

	tests := []struct {
		name       string
		id         int32
		start, end time.Duration
		want       bool
	}{
		{"overlaps start", eq.ID, 0, 2 * day, false},
		{"inside", eq.ID, day + time.Hour, 2 * day, false},
		{"ends where booking starts", eq.ID, 0, day, true},
		{"starts where booking ends", eq.ID, 3 * day, 4 * day, true},
		{"unknown equipment", 999, day, 2 * day, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.equipment.IsAvailable(ctx, tt.id, D.Add(tt.start), D.Add(tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err := f.equipment.IsAvailable(ctx, eq.ID, D.Add(2*day), D.Add(day))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.equipment.CheckAvailability(ctx, eq.ID, D.Add(-day), D.Add(day))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEquipmentService_IsAvailable_IgnoresTerminalOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.addEquipment(t, 100)
	o := f.book(t, eq.ID, renter, day, 3*day)
	_, err := f.orders.Transition(ctx, o.ID, domain.OrderStatusRejected, ownerID, false)
	require.NoError(t, err)

	ok, err := f.equipment.CheckAvailability(ctx, eq.ID, D.Add(day), D.Add(3*day))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEquipmentService_SetEquipmentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.addEquipment(t, 100)

	t.Run("derived statuses are refused", func(t *testing.T) {
		_, err := f.equipment.SetEquipmentStatus(ctx, eq.ID, domain.EquipmentStatusRented, ownerID, false)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = f.equipment.SetEquipmentStatus(ctx, eq.ID, domain.EquipmentStatusPendingReturn, ownerID, false)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("only the owner or an admin", func(t *testing.T) {
		_, err := f.equipment.SetEquipmentStatus(ctx, eq.ID, domain.EquipmentStatusOffline, renter, false)
		assert.ErrorIs(t, err, domain.ErrAuthorization)
	})

	t.Run("offline blocks bookings", func(t *testing.T) {
		got, err := f.equipment.SetEquipmentStatus(ctx, eq.ID, domain.EquipmentStatusOffline, ownerID, false)
		require.NoError(t, err)
		assert.Equal(t, domain.EquipmentStatusOffline, got.Status)

		ok, err := f.equipment.IsAvailable(ctx, eq.ID, D.Add(day), D.Add(2*day))
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = f.equipment.SetEquipmentStatus(ctx, eq.ID, domain.EquipmentStatusAvailable, admin, true)
		require.NoError(t, err)
	})

	t.Run("refused while an order holds it", func(t *testing.T) {
		f.book(t, eq.ID, renter, day, 2*day)
		_, err := f.equipment.SetEquipmentStatus(ctx, eq.ID, domain.EquipmentStatusMaintenance, ownerID, false)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t, eq.ID))
	})
}

func TestEquipmentService_ConfirmReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.addEquipment(t, 100)

	_, err := f.equipment.ConfirmReturn(ctx, eq.ID, ownerID, false)
	assert.ErrorIs(t, err, domain.ErrConflict)

	first := f.book(t, eq.ID, renter, day, 2*day)
	f.accept(t, first.ID)
	f.clock.Set(D.Add(2 * day))
	_, err = f.reconciler.RunReconciliationPass(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, f.orderStatus(t, first.ID))
	require.Equal(t, domain.EquipmentStatusPendingReturn, f.equipmentStatus(t, eq.ID))

	// booked again before the owner confirmed the return
	second := f.book(t, eq.ID, renter2, 3*day, 4*day)
	assert.Equal(t, domain.EquipmentStatusPendingReturn, f.equipmentStatus(t, eq.ID))

	_, err = f.equipment.ConfirmReturn(ctx, eq.ID, renter, false)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	got, err := f.equipment.ConfirmReturn(ctx, eq.ID, ownerID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.EquipmentStatusRented, got.Status)
	assert.Equal(t, domain.OrderStatusPending, f.orderStatus(t, second.ID))
}
