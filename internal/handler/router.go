package handler

import (
	"net/http"
	"time"

	"github.com/crisvalt/billrelay-go/internal/config"
	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the service-layer dependencies the router needs.
type Services struct {
	Ingest *service.IngestService
	Print  *service.PrintService
	Tokens *service.TokenService
	Orders *service.OrderService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Print))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// =============================================
	// Webhook intake — raw bytes, signature header
	// =============================================
	r.Post("/webhook/payment", webhookHandler(svcs.Ingest, cfg.MaxWebhookBody, metrics, logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Print-Key", "Authorization"},
			MaxAge:         300,
		}))

		// =============================================
		// Print client — poll & confirm (API key)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(cfg.PrintAPIKey, cfg.PrintAPIKeyHash, logger))
			r.Get("/print/poll", pollHandler(svcs.Print, logger))
			r.Post("/print/confirm", confirmHandler(svcs.Print, logger))
		})

		// =============================================
		// Orders & pending tokens
		// =============================================
		r.Post("/orders", createOrderHandler(svcs.Orders, logger))
		r.Post("/tokens", registerTokenHandler(svcs.Tokens, logger))
		r.Get("/tokens/pending", listPendingTokensHandler(svcs.Tokens, logger))

		// =============================================
		// Menu & metrics snapshot
		// =============================================
		r.Get("/menu", menuHandler())
		r.Get("/metrics/queue", queueMetricsHandler(svcs.Print, metrics))
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(printSvc *service.PrintService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "billrelay-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}
		if printSvc != nil {
			start := time.Now()
			_ = printSvc.UnprintedCount()
			services = append(services, domain.ServiceHealth{
				Name:        "bill-store",
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			})
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   "healthy",
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Menu & queue metrics
// ============================================================

func menuHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": service.Menu()})
	}
}

func queueMetricsHandler(printSvc *service.PrintService, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		depth := 0
		if printSvc != nil {
			depth = printSvc.UnprintedCount()
		}
		writeJSON(w, http.StatusOK, metrics.QueueSnapshot(depth))
	}
}
