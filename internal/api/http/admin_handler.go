package http

import (
	"errors"
	"net/http"

	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"
)

type AdminHandler struct {
	reconciler Reconciler
}

// Reconcile triggers one reconciliation pass and reports its counts.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	logger.Info("Manual reconciliation requested", "actor", actor.String())

	result, err := h.reconciler.RunReconcileOrders(r.Context())
	if errors.Is(err, jobs.ErrPassInProgress) {
		writeMessage(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
