package handler

import (
	"net/http"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/observability"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.WalletService, metrics *observability.Metrics, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/wallet", walletMetricsHandler(metrics))

		r.Route("/wallet", func(r chi.Router) {
			r.Use(BearerAuthMiddleware(logger))

			r.Get("/overview", overviewHandler(svc, logger))
			r.Get("/balance", balanceHandler(svc, logger))

			r.Get("/history", historyHandler(svc, logger))
			r.Get("/history/days", historyDaysHandler(svc, logger))
			r.Get("/history/{entryId}", entryHandler(svc, logger))

			r.Get("/recipients", recipientsHandler(svc, logger))
			r.Get("/recipients/{partyId}/thread", threadHandler(svc, logger))

			r.Get("/preview", previewHandler(svc, logger))
			r.Post("/transfers", transferHandler(svc, logger))
		})
	})

	return r
}

func healthzHandler(svc *service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Health())
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func walletMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetWalletSnapshot())
	}
}
