// Package httptransport assembles the HTTP surface: middleware chain, route
// groups per role, and operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "verilist/internal/audit/handler"
	decisionhandler "verilist/internal/decision/handler"
	"verilist/internal/platform/metrics"
	"verilist/internal/platform/middleware"
	requesthandler "verilist/internal/request/handler"
	userhandler "verilist/internal/user/handler"
)

// Handlers collects the feature handlers the router mounts.
type Handlers struct {
	Requests  *requesthandler.Handler
	Decisions *decisionhandler.Handler
	Audit     *audithandler.Handler
	Users     *userhandler.Handler
}

// NewRouter builds the full middleware chain and mounts every endpoint.
// Listers submit and read their own request, reviewers work the queue and
// decide, admins additionally read the full audit log.
func NewRouter(h Handlers, validator middleware.JWTValidator, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.LatencyMiddleware(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, middleware.RoleLister))
			h.Requests.RegisterLister(r)
			h.Users.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, middleware.RoleReviewer))
			h.Requests.RegisterReviewer(r)
			h.Decisions.Register(r)
			h.Audit.RegisterReviewer(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, middleware.RoleAdmin))
			h.Audit.RegisterAdmin(r)
		})
	})

	return r
}
