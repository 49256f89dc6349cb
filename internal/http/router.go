package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"policybot/internal/handlers"
	"policybot/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	PolicyService service.PolicyService
	IndexPath     string
	DefaultTopK   int
	MaxTopK       int
	Logger        *slog.Logger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(RequestLogger)
	r.Use(CORS)

	r.Method(http.MethodGet, "/", handlers.NewRootHandler())
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.IndexPath))
	r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.PolicyService, deps.DefaultTopK, deps.MaxTopK))

	return r
}
