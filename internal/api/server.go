// Package api exposes the estimator and the run store over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/config"
	"github.com/sells-group/forest-carbon/internal/credentials"
	"github.com/sells-group/forest-carbon/internal/estimator"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/store"
	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

const maxBodyBytes = 1 << 20

// Runner executes and records an estimation.
type Runner interface {
	Execute(ctx context.Context, req estimator.Request, source string) (*model.Run, error)
}

// Credentials reports the engine credentials currently loaded.
type Credentials interface {
	Key() *geoengine.ServiceAccountKey
	Source() credentials.Source
}

// Server is the HTTP API.
type Server struct {
	router *chi.Mux
	port   int
	runner Runner
	store  store.Store
	creds  Credentials
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, runner Runner, st store.Store, creds Credentials) *Server {
	s := &Server{
		router: chi.NewRouter(),
		port:   cfg.Port,
		runner: runner,
		store:  st,
		creds:  creds,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/estimate-carbon", s.estimateCarbon)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{runID}", s.getRun)
	})
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("api: shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("api: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("api: starting server", zap.Int("port", s.port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
