package http

import (
	"net/http"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

type OrderHandler struct {
	orders   service.OrderService
	payments service.PaymentService
}

type createOrderRequest struct {
	EquipmentID int32     `json:"equipment_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
	Total  int32          `json:"total"`
}

// Create books equipment for the caller as renter.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), req.EquipmentID, actor.ID, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// List returns the caller's orders. role=owner lists orders on equipment the caller owns.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	page, err := queryInt32(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := r.URL.Query().Get("status")

	var (
		orders []domain.Order
		total  int32
	)
	switch role := r.URL.Query().Get("role"); role {
	case "", "renter":
		orders, total, err = h.orders.ListRenterOrders(r.Context(), actor.ID, status, page, pageSize)
	case "owner":
		orders, total, err = h.orders.ListOwnerOrders(r.Context(), actor.ID, status, page, pageSize)
	default:
		err = domain.NewValidationError("role must be renter or owner")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{Orders: orders, Total: total})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.orders.GetOrder(r.Context(), id, actor.ID, actor.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Transition moves the order to the requested status on behalf of the caller.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.Transition(r.Context(), id, target, actor.ID, actor.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.orders.CancelOrder(r.Context(), id, actor.ID, actor.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// InitiatePayment opens the payment record for an accepted order.
func (h *OrderHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.payments.InitiatePayment(r.Context(), id, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
