// Package server exposes the daemon's HTTP API: blueprint validation,
// service registration, push hooks, and deploy inspection with log
// streaming over WebSocket.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Deployer is the slice of the deploy engine the HTTP layer depends on.
type Deployer interface {
	HandlePush(ctx context.Context, event *api.PushEvent) (*api.PushResponse, error)
	GetDeploy(deployID string) (*api.Deploy, error)
	ListDeploys(limit int, statuses []string) []*api.Deploy
	StopDeploy(ctx context.Context, deployID string) (*api.StopDeployResponse, error)
	Logs(deployID string) (*api.LogsResponse, error)
	Follow(deployID string) ([]api.LogEvent, <-chan api.LogEvent, func(), error)
	LogsClosed(deployID string) bool
}

type Router struct {
	router   *chi.Mux
	deployer Deployer
	registry *registry.Registry
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewRouter creates a new chi router with routes configured
func NewRouter(deployer Deployer, reg *registry.Registry, logger *slog.Logger, requestTimeout time.Duration) *Router {
	r := chi.NewRouter()
	router := &Router{
		router:   r,
		deployer: deployer,
		registry: reg,
		logger:   logger,
		upgrader: websocket.Upgrader{
			// The daemon listens on loopback; browser origins are not a
			// trust boundary here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r.Use(router.requestIDMiddleware)
	r.Use(router.requestLoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", router.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// The stream endpoint hijacks the connection for WebSocket
		// traffic, so it stays outside the JSON and timeout middleware.
		r.Get("/deploys/{deployID}/logs/stream", router.handleStreamDeployLogs)

		r.Group(func(r chi.Router) {
			r.Use(setContentTypeJSONMiddleware)
			r.Use(router.requestTimeoutMiddleware(requestTimeout))

			r.Post("/blueprints/validate", router.handleValidateBlueprint)
			r.Post("/hooks/push", router.handlePushHook)
			r.Get("/services", router.handleListServices)
			r.Post("/services/register", router.handleRegisterServices)
			r.Get("/deploys", router.handleListDeploys)
			r.Get("/deploys/{deployID}", router.handleGetDeploy)
			r.Post("/deploys/{deployID}/stop", router.handleStopDeploy)
			r.Get("/deploys/{deployID}/logs", router.handleGetDeployLogs)
		})
	})

	return router
}

// ServeHTTP implements http.Handler for use with chi router
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Handler returns an http.Handler for the router
func (r *Router) Handler() http.Handler {
	return r.router
}
