package http

import (
	"net/http"
	"strings"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/service"
)

type PaymentHandler struct {
	service service.PaymentService
}

type paymentCallbackRequest struct {
	OrderID int32  `json:"order_id"`
	Status  string `json:"status"`
}

type paymentEvent int

const (
	paymentUnknown paymentEvent = iota
	paymentSucceeded
	paymentCancelled
)

// classifyGatewayStatus folds the gateway's status vocabulary into succeeded or cancelled.
func classifyGatewayStatus(s string) paymentEvent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "succeeded", "paid", "charged":
		return paymentSucceeded
	case "cancelled", "canceled", "declined", "failed", "expired":
		return paymentCancelled
	}
	return paymentUnknown
}

// Callback receives payment outcome notifications from the gateway.
// Duplicate deliveries are acknowledged with 200.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req paymentCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.OrderID <= 0 {
		writeError(w, r, domain.NewValidationError("order_id is required"))
		return
	}

	logger.Info("Payment callback received", "order_id", req.OrderID, "status", req.Status)

	var err error
	switch classifyGatewayStatus(req.Status) {
	case paymentSucceeded:
		err = h.service.OnPaymentSucceeded(r.Context(), req.OrderID)
	case paymentCancelled:
		err = h.service.OnPaymentCancelled(r.Context(), req.OrderID)
	default:
		err = domain.NewValidationError("unknown payment status")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
