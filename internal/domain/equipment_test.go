package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveEquipmentStatus(t *testing.T) {
	tests := []struct {
		name    string
		current EquipmentStatus
		to      OrderStatus
		others  Others
		want    EquipmentStatus
	}{
		{"creation lock", EquipmentStatusAvailable, OrderStatusPending, Others{}, EquipmentStatusRented},
		{"accepted", EquipmentStatusRented, OrderStatusAccepted, Others{}, EquipmentStatusRented},
		{"booked while awaiting return", EquipmentStatusPendingReturn, OrderStatusPending, Others{}, EquipmentStatusPendingReturn},
		{"accepted while awaiting return", EquipmentStatusPendingReturn, OrderStatusAccepted, Others{Active: true}, EquipmentStatusPendingReturn},
		{"pickup after unconfirmed return", EquipmentStatusPendingReturn, OrderStatusInProgress, Others{}, EquipmentStatusRented},
		{"in progress", EquipmentStatusRented, OrderStatusInProgress, Others{Active: true}, EquipmentStatusRented},
		{"completed", EquipmentStatusRented, OrderStatusCompleted, Others{}, EquipmentStatusPendingReturn},
		{"completed with later booking", EquipmentStatusRented, OrderStatusCompleted, Others{Active: true}, EquipmentStatusPendingReturn},
		{"completed while next rental is out", EquipmentStatusRented, OrderStatusCompleted, Others{Active: true, InUse: true}, EquipmentStatusRented},
		{"rejected, nothing else", EquipmentStatusRented, OrderStatusRejected, Others{}, EquipmentStatusAvailable},
		{"cancelled, nothing else", EquipmentStatusRented, OrderStatusCancelled, Others{}, EquipmentStatusAvailable},
		{"rejected, other order holds", EquipmentStatusRented, OrderStatusRejected, Others{Active: true}, EquipmentStatusRented},
		{"cancelled, other order holds", EquipmentStatusRented, OrderStatusCancelled, Others{Active: true}, EquipmentStatusRented},
		{"cancelled while awaiting return", EquipmentStatusPendingReturn, OrderStatusCancelled, Others{}, EquipmentStatusPendingReturn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveEquipmentStatus(tt.current, tt.to, tt.others))
		})
	}
}

func TestEquipmentStatus_Rules(t *testing.T) {
	assert.True(t, EquipmentStatusAvailable.AcceptsBookings())
	assert.True(t, EquipmentStatusRented.AcceptsBookings())
	assert.True(t, EquipmentStatusPendingReturn.AcceptsBookings())
	assert.False(t, EquipmentStatusMaintenance.AcceptsBookings())
	assert.False(t, EquipmentStatusOffline.AcceptsBookings())
	assert.False(t, EquipmentStatus("").AcceptsBookings())

	assert.True(t, EquipmentStatusMaintenance.IsOwnerSettable())
	assert.True(t, EquipmentStatusOffline.IsOwnerSettable())
	assert.True(t, EquipmentStatusAvailable.IsOwnerSettable())
	assert.False(t, EquipmentStatusRented.IsOwnerSettable())
	assert.False(t, EquipmentStatusPendingReturn.IsOwnerSettable())
}

func TestReturnedStatus(t *testing.T) {
	assert.Equal(t, EquipmentStatusAvailable, ReturnedStatus(false))
	assert.Equal(t, EquipmentStatusRented, ReturnedStatus(true))
}
