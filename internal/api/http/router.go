package http

import (
	"context"
	"net/http"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/security"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"
)

// Reconciler runs one on-demand reconciliation pass. *jobs.JobRunner satisfies it.
type Reconciler interface {
	RunReconcileOrders(ctx context.Context) (*domain.ReconcileResult, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies collects everything the HTTP surface delegates to.
type Dependencies struct {
	Orders       service.OrderService
	Equipment    service.EquipmentService
	Payments     service.PaymentService
	Reconciler   Reconciler
	Store        Pinger
	TokenManager security.TokenManager
	Metrics      *metrics.Metrics
	Config       *config.Config
}

// NewRouter builds the full HTTP handler: routes, auth, request logging, panic recovery and CORS.
func NewRouter(deps Dependencies) http.Handler {
	router := mux.NewRouter()

	eq := &EquipmentHandler{service: deps.Equipment}
	orders := &OrderHandler{orders: deps.Orders, payments: deps.Payments}
	payments := &PaymentHandler{service: deps.Payments}
	admin := &AdminHandler{reconciler: deps.Reconciler}

	router.HandleFunc("/healthz", healthHandler(deps.Store)).Methods(http.MethodGet)
	router.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/equipment", eq.Register).Methods(http.MethodPost)
	api.HandleFunc("/equipment/{id}", eq.Get).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/availability", eq.Availability).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/status", eq.SetStatus).Methods(http.MethodPut)
	api.HandleFunc("/equipment/{id}/return", eq.ConfirmReturn).Methods(http.MethodPost)

	api.HandleFunc("/orders", orders.Create).Methods(http.MethodPost)
	api.HandleFunc("/orders", orders.List).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", orders.Get).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/transition", orders.Transition).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/cancel", orders.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/payments", orders.InitiatePayment).Methods(http.MethodPost)

	api.HandleFunc("/payments/callback", payments.Callback).Methods(http.MethodPost)

	api.HandleFunc("/admin/reconcile", admin.Reconcile).Methods(http.MethodPost)

	// Route matching happens before Use middleware, so the auth check sees the path template.
	router.Use(authMiddleware(deps.TokenManager, deps.Config.Payment.CallbackToken))

	timeout := deps.Config.HTTP.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	standard := alice.New(recoverPanic, logRequest, withTimeout(timeout), secureHeaders)

	c := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(standard.Then(router))
}

func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
