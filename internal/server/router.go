// Package server assembles the HTTP surface: the Connect services behind
// their interceptors plus the health and metrics endpoints.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/mmynk/expensebook/internal/auth"
	"github.com/mmynk/expensebook/internal/metrics"
	"github.com/mmynk/expensebook/internal/middleware"
	"github.com/mmynk/expensebook/internal/service"
	"github.com/mmynk/expensebook/internal/storage"
	"github.com/mmynk/expensebook/pkg/api"
)

// Deps are the collaborators the router wires into the services.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWTManager    *auth.JWTManager
	Metrics       *metrics.Metrics
	Logger        *slog.Logger

	// Limiter throttles requests per client IP. Nil disables rate limiting.
	Limiter *limiter.Limiter
}

// NewRouter returns the root handler. AuthService accepts anonymous
// callers; every other service requires a bearer token.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	// Interceptors run outermost first. Metrics wrap authentication so
	// rejected calls are counted; logging runs after it to see the caller.
	interceptors := func(authn connect.Interceptor) connect.Option {
		return connect.WithInterceptors(
			middleware.MetricsInterceptor(d.Metrics),
			authn,
			middleware.LoggingInterceptor(),
		)
	}
	public := interceptors(middleware.OptionalAuth(d.JWTManager))
	private := interceptors(middleware.RequireAuth(d.JWTManager))

	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(stdlib.NewMiddleware(d.Limiter).Handler)
		}
		r.Mount(api.NewAuthServiceHandler(service.NewAuthService(d.Authenticator, d.JWTManager, logger), public))
		r.Mount(api.NewGroupServiceHandler(service.NewGroupService(d.Store), private))
		r.Mount(api.NewExpenseServiceHandler(service.NewExpenseService(d.Store, d.Metrics), private))
		r.Mount(api.NewBalanceServiceHandler(service.NewBalanceService(d.Store, d.Metrics), private))
	})

	return r
}
