package http

import (
	"net/http"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

type EquipmentHandler struct {
	service service.EquipmentService
}

type registerEquipmentRequest struct {
	Name            string  `json:"name"`
	DailyPriceCents int64   `json:"daily_price_cents"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Status          string  `json:"status,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type availabilityResponse struct {
	EquipmentID int32 `json:"equipment_id"`
	Available   bool  `json:"available"`
}

// Register lists a new item owned by the caller.
func (h *EquipmentHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req registerEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	eq := &domain.Equipment{
		OwnerID:         actor.ID,
		Name:            req.Name,
		DailyPriceCents: req.DailyPriceCents,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
	}
	if req.Status != "" {
		status, err := domain.ParseEquipmentStatus(req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		eq.Status = status
	}

	if err := h.service.RegisterEquipment(r.Context(), eq); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eq)
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	eq, err := h.service.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

// Availability answers whether [start,end) can still be booked.
func (h *EquipmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := queryTime(r, "start")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		writeError(w, r, err)
		return
	}

	available, err := h.service.CheckAvailability(r.Context(), id, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{EquipmentID: id, Available: available})
}

func (h *EquipmentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
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
	status, err := domain.ParseEquipmentStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	eq, err := h.service.SetEquipmentStatus(r.Context(), id, status, actor.ID, actor.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

func (h *EquipmentHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	eq, err := h.service.ConfirmReturn(r.Context(), id, actor.ID, actor.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}
