// Package handler wires the HTTP surface of the cartera castigada API:
// routing, auth middleware, and request/response translation.
package handler

import (
	"net/http"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/observability"
	"github.com/coopvalles/cartera-castigada-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract agreed with the dashboard frontend.
func NewRouter(carteraSvc *service.Cartera, gestionSvc *service.GestionService, authSvc *service.AuthService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(carteraSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Autenticación
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authLoginHandler(authSvc, logger))
			r.Post("/refresh", authRefreshHandler(authSvc, logger))
			r.Post("/logout", authLogoutHandler(authSvc, logger))
		})

		// =============================================
		// 2. Cartera castigada (protected)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Route("/cartera", func(r chi.Router) {
				r.Get("/", carteraPageHandler(carteraSvc, logger))
				r.Get("/all", carteraAllHandler(carteraSvc, logger))
				r.Get("/export", carteraExportHandler(carteraSvc, logger))

				r.Route("/summary", func(r chi.Router) {
					r.Get("/recovery", recoverySummaryHandler(carteraSvc, logger))
					r.Get("/credit-types", creditTypeSummaryHandler(carteraSvc, logger))
					r.Get("/zones", zoneSummaryHandler(carteraSvc, logger))
					r.Get("/branches", branchSummaryHandler(carteraSvc, logger))
				})
			})

			r.Get("/branches", branchListHandler(carteraSvc, logger))

			// =============================================
			// 3. Asociados: expediente y gestiones
			// =============================================
			r.Route("/associates/{nationalId}", func(r chi.Router) {
				r.Get("/", associateDossierHandler(carteraSvc, logger))
				r.Get("/gestiones", listGestionesHandler(gestionSvc, logger))
				r.Post("/gestiones", createGestionHandler(gestionSvc, logger))
				r.Get("/judicial", judicialHandler(carteraSvc, logger))
			})

			// =============================================
			// 4. Métricas del motor
			// =============================================
			r.Get("/metrics/engine", engineMetricsHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(carteraSvc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "cartera-castigada-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := carteraSvc.Snapshot(ctx)
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			status = "degraded"
			logger.Warn("healthz: core check failed", zap.Error(err))
		}
		services = append(services, domain.ServiceHealth{
			Name: "core", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
