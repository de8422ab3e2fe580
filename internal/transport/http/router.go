package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"usergate/internal/platform/middleware"
	"usergate/pkg/platform/httputil"
	"usergate/pkg/platform/middleware/metadata"
	"usergate/pkg/platform/middleware/requesttime"
)

// WelcomeMessage is served on GET /.
const WelcomeMessage = "Welcome to Sample API v2.0"

const requestTimeout = 30 * time.Second

// RouteRegistrar is implemented by feature handlers.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the state of a backing service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps collects what the router needs. Health may be nil when no backing
// service is configured; Gatherer defaults to the global registry.
type Deps struct {
	Logger             *slog.Logger
	Latency            middleware.LatencyObserver
	Gatherer           prometheus.Gatherer
	Health             HealthChecker
	CORSAllowedOrigins []string
	Handlers           []RouteRegistrar
}

// NewRouter wires the shared middleware chain and every public endpoint.
func NewRouter(d Deps) http.Handler {
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.CORSAllowedOrigins))
	if d.Latency != nil {
		r.Use(middleware.LatencyMiddleware(d.Latency))
	}
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/", handleWelcome)
	r.Get("/health", healthHandler(d.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	for _, h := range d.Handlers {
		h.Register(r)
	}
	return r
}

func handleWelcome(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteText(w, http.StatusCreated, WelcomeMessage)
}

type healthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
}

func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := checker.Health(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Redis: "unreachable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Redis: "ok"})
	}
}
