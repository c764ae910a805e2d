package http

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"equiprent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	eq := f.registerEquipment()
	start := day0.Add(24 * time.Hour)
	end := start.Add(72 * time.Hour)

	order, code := f.book(eq.ID, renterID, start, end)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(15000), order.TotalAmountCents)

	// overlapping request from someone else
	var errBody errorResponse
	code = f.as(otherRenterID, http.MethodPost, "/api/v1/orders", map[string]any{
		"equipment_id": eq.ID,
		"start_date":   start.Add(24 * time.Hour),
		"end_date":     end.Add(24 * time.Hour),
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(domain.KindValidation), errBody.Kind)

	orderPath := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	// renter cannot accept their own request
	code = f.as(renterID, http.MethodPost, orderPath+"/transition", map[string]string{"status": "ACCEPTED"}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var accepted domain.Order
	code = f.as(ownerID, http.MethodPost, orderPath+"/transition", map[string]string{"status": "ACCEPTED"}, &accepted)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.OrderStatusAccepted, accepted.Status)

	var record domain.PaymentRecord
	code = f.as(renterID, http.MethodPost, orderPath+"/payments", nil, &record)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, domain.PaymentStatusPending, record.Status)
	assert.Equal(t, order.TotalAmountCents, record.AmountCents)

	callback := map[string]any{"order_id": order.ID, "status": "paid"}
	hdr := map[string]string{callbackTokenHeader: callbackSecret}
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/payments/callback", callback, hdr, nil))
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/payments/callback", callback, hdr, nil), "duplicate delivery")

	f.clock.Set(start.Add(time.Minute))
	var result domain.ReconcileResult
	code = f.asAdmin(http.MethodPost, "/api/v1/admin/reconcile", nil, &result)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, result.Started)

	var current domain.Order
	require.Equal(t, http.StatusOK, f.as(ownerID, http.MethodGet, orderPath, nil, &current))
	assert.Equal(t, domain.OrderStatusInProgress, current.Status)

	var got domain.Equipment
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, fmt.Sprintf("/api/v1/equipment/%d", eq.ID), nil, nil, &got))
	assert.Equal(t, domain.EquipmentStatusRented, got.Status)

	// strangers cannot read the order
	assert.Equal(t, http.StatusForbidden, f.as(otherRenterID, http.MethodGet, orderPath, nil, nil))
}

func TestCancelTwiceIsConflict(t *testing.T) {
	f := newAPIFixture(t)
	eq := f.registerEquipment()
	start := day0.Add(48 * time.Hour)
	order, code := f.book(eq.ID, renterID, start, start.Add(24*time.Hour))
	require.Equal(t, http.StatusCreated, code)

	path := fmt.Sprintf("/api/v1/orders/%d/cancel", order.ID)
	var cancelled domain.Order
	require.Equal(t, http.StatusOK, f.as(renterID, http.MethodPost, path, nil, &cancelled))
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	var errBody errorResponse
	assert.Equal(t, http.StatusConflict, f.as(renterID, http.MethodPost, path, nil, &errBody))
	assert.Equal(t, string(domain.KindConflict), errBody.Kind)
}

func TestPaymentCancelledCallback(t *testing.T) {
	f := newAPIFixture(t)
	eq := f.registerEquipment()
	start := day0.Add(24 * time.Hour)
	order, _ := f.book(eq.ID, renterID, start, start.Add(24*time.Hour))

	hdr := map[string]string{callbackTokenHeader: callbackSecret}
	body := map[string]any{"order_id": order.ID, "status": "declined"}
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/payments/callback", body, hdr, nil))

	var current domain.Order
	require.Equal(t, http.StatusOK, f.as(renterID, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil, &current))
	assert.Equal(t, domain.OrderStatusCancelled, current.Status)

	unknown := map[string]any{"order_id": order.ID, "status": "teleported"}
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/payments/callback", unknown, hdr, nil))
}

func TestAvailabilityEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	eq := f.registerEquipment()
	start := day0.Add(24 * time.Hour)
	end := start.Add(48 * time.Hour)
	_, code := f.book(eq.ID, renterID, start, end)
	require.Equal(t, http.StatusCreated, code)

	check := func(s, e time.Time) (availabilityResponse, int) {
		q := url.Values{}
		q.Set("start", s.Format(time.RFC3339))
		q.Set("end", e.Format(time.RFC3339))
		var out availabilityResponse
		code := f.do(http.MethodGet, fmt.Sprintf("/api/v1/equipment/%d/availability?%s", eq.ID, q.Encode()), nil, nil, &out)
		return out, code
	}

	res, code := check(start.Add(time.Hour), end.Add(time.Hour))
	require.Equal(t, http.StatusOK, code)
	assert.False(t, res.Available)

	// back-to-back window starting at the previous end
	res, code = check(end, end.Add(24*time.Hour))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Available)

	code = f.do(http.MethodGet, fmt.Sprintf("/api/v1/equipment/%d/availability?start=tomorrow", eq.ID), nil, nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEquipmentStatusAndReturnEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	eq := f.registerEquipment()
	path := fmt.Sprintf("/api/v1/equipment/%d", eq.ID)

	var updated domain.Equipment
	require.Equal(t, http.StatusOK, f.as(ownerID, http.MethodPut, path+"/status", map[string]string{"status": "MAINTENANCE"}, &updated))
	assert.Equal(t, domain.EquipmentStatusMaintenance, updated.Status)

	assert.Equal(t, http.StatusForbidden, f.as(renterID, http.MethodPut, path+"/status", map[string]string{"status": "AVAILABLE"}, nil))
	assert.Equal(t, http.StatusBadRequest, f.as(ownerID, http.MethodPut, path+"/status", map[string]string{"status": "BROKEN"}, nil))

	// nothing to confirm while not pending return
	assert.Equal(t, http.StatusConflict, f.as(ownerID, http.MethodPost, path+"/return", nil, nil))

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/equipment/424242", nil, nil, nil))
}

func TestListOrdersEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	eq := f.registerEquipment()
	start := day0.Add(24 * time.Hour)
	_, code := f.book(eq.ID, renterID, start, start.Add(24*time.Hour))
	require.Equal(t, http.StatusCreated, code)

	var mine listOrdersResponse
	require.Equal(t, http.StatusOK, f.as(renterID, http.MethodGet, "/api/v1/orders", nil, &mine))
	assert.Equal(t, int32(1), mine.Total)

	var owned listOrdersResponse
	require.Equal(t, http.StatusOK, f.as(ownerID, http.MethodGet, "/api/v1/orders?role=owner&status=PENDING", nil, &owned))
	assert.Len(t, owned.Orders, 1)

	var none listOrdersResponse
	require.Equal(t, http.StatusOK, f.as(otherRenterID, http.MethodGet, "/api/v1/orders", nil, &none))
	assert.NotNil(t, none.Orders)
	assert.Empty(t, none.Orders)

	assert.Equal(t, http.StatusBadRequest, f.as(renterID, http.MethodGet, "/api/v1/orders?role=landlord", nil, nil))
	assert.Equal(t, http.StatusBadRequest, f.as(renterID, http.MethodGet, "/api/v1/orders?status=LOST", nil, nil))
}

func TestClassifyGatewayStatus(t *testing.T) {
	tests := map[string]paymentEvent{
		"success":   paymentSucceeded,
		" PAID ":    paymentSucceeded,
		"succeeded": paymentSucceeded,
		"cancelled": paymentCancelled,
		"Canceled":  paymentCancelled,
		"declined":  paymentCancelled,
		"":          paymentUnknown,
		"refunding": paymentUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, classifyGatewayStatus(in), in)
	}
}
