package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/slipway/slipway/internal/constants"

	"golang.org/x/sync/errgroup"
)

// Server wraps the daemon's HTTP server with timeouts and graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the daemon HTTP server around the given handler.
func New(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  constants.ServerReadTimeout,
			WriteTimeout: constants.ServerWriteTimeout,
			IdleTimeout:  constants.ServerIdleTimeout,
		},
		logger: logger,
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves requests until ctx is canceled, then shuts the server down
// gracefully within ServerShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("daemon API listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down daemon API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
