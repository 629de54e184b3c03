package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bread-calculator/internal/auth"
	"bread-calculator/internal/calculator"
	"bread-calculator/internal/config"
	"bread-calculator/internal/httpjson"
	"bread-calculator/internal/metrics"
	"bread-calculator/internal/storage"

	"go.uber.org/zap"
)

type Server struct {
	cfg     config.Config
	store   storage.Store
	log     *zap.Logger
	metrics *metrics.Metrics
	auth    *auth.Service
	calc    *calculator.Service
	mux     *http.ServeMux
}

func New(cfg config.Config, st storage.Store, signingKey []byte, log *zap.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		log:     log,
		metrics: m,
		auth:    auth.NewService(st, signingKey, cfg.TokenTTL),
		calc:    calculator.NewService(st, m),
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = recoverMiddleware(h)
	h = s.loggingMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.Handle("POST /users/register", auth.RegisterHandler(s.auth))
	s.mux.Handle("POST /users/login", auth.LoginHandler(s.auth))
	s.mux.Handle("GET /users/me", s.auth.Middleware(auth.MeHandler(s.auth)))

	protect := s.auth.Middleware
	s.mux.Handle("GET /calculations", protect(calculator.BrowseHandler(s.calc)))
	s.mux.Handle("POST /calculations", protect(calculator.AddHandler(s.calc)))
	s.mux.Handle("GET /calculations/{id}", protect(calculator.ReadHandler(s.calc)))
	s.mux.Handle("PUT /calculations/{id}", protect(calculator.EditHandler(s.calc)))
	s.mux.Handle("PATCH /calculations/{id}", protect(calculator.PatchHandler(s.calc)))
	s.mux.Handle("DELETE /calculations/{id}", protect(calculator.DeleteHandler(s.calc)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		httpjson.Write(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutdown requested")
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		return err
	}
	return nil
}
