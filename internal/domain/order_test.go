package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusRejected,
	OrderStatusCancelled,
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusAccepted}:     true,
		{OrderStatusPending, OrderStatusRejected}:     true,
		{OrderStatusPending, OrderStatusCancelled}:    true,
		{OrderStatusAccepted, OrderStatusInProgress}:  true,
		{OrderStatusAccepted, OrderStatusCancelled}:   true,
		{OrderStatusInProgress, OrderStatusCompleted}: true,
	}

	for _, from := range allOrderStatuses {
		for _, to := range allOrderStatuses {
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatus_TerminalAndActive(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		terminal bool
		active   bool
	}{
		{OrderStatusPending, false, true},
		{OrderStatusAccepted, false, true},
		{OrderStatusInProgress, false, true},
		{OrderStatusCompleted, true, false},
		{OrderStatusRejected, true, false},
		{OrderStatusCancelled, true, false},
		{OrderStatus("BOGUS"), true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.active, tt.status.IsActive())
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("ACCEPTED")
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusAccepted, s)

	_, err = ParseOrderStatus("accepted")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestOverlaps(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", d(1), d(3), d(1), d(3), true},
		{"partial overlap", d(1), d(3), d(2), d(4), true},
		{"contained", d(1), d(10), d(3), d(4), true},
		{"back to back", d(1), d(3), d(3), d(5), false},
		{"back to back reversed", d(3), d(5), d(1), d(3), false},
		{"disjoint", d(1), d(2), d(5), d(6), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			assert.Equal(t, tt.want, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestComputeTotal(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		price  int64
		end    time.Time
		want   int64
		wantOK bool
	}{
		{"two days", 10000, start.AddDate(0, 0, 2), 20000, true},
		{"partial day", 10000, start.Add(5 * time.Hour), 10000, true},
		{"partial trailing day", 10000, start.Add(49 * time.Hour), 30000, true},
		{"empty window", 10000, start, 0, true},
		{"total overflows", math.MaxInt64 / 2, start.AddDate(0, 0, 3), 0, false},
		{"window beyond duration range", 1, start.AddDate(400, 0, 0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, ok := ComputeTotal(tt.price, start, tt.end)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestValidateRange(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, ValidateRange(now.Add(time.Hour), now.Add(25*time.Hour), now))
	})

	t.Run("End before start", func(t *testing.T) {
		err := ValidateRange(now.Add(48*time.Hour), now.Add(24*time.Hour), now)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "end date must be after start date")
	})

	t.Run("End equals start", func(t *testing.T) {
		err := ValidateRange(now.Add(time.Hour), now.Add(time.Hour), now)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("Start in the past", func(t *testing.T) {
		err := ValidateRange(now.Add(-time.Hour), now.Add(time.Hour), now)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "start date is in the past")
	})
}
