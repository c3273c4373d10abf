// Package web serves the monitoring API and a lightweight dashboard.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/netguard/internal/metrics"
	"github.com/user/netguard/internal/monitor"
	"github.com/user/netguard/internal/util"
)

// Monitor is the session surface the server drives.
type Monitor interface {
	Start() error
	Stop() error
	Refresh(ctx context.Context) error
	Snapshot() monitor.Snapshot
}

// Server is the web server.
type Server struct {
	monitor Monitor
	config  *util.Config
	metrics *metrics.Metrics
	port    int
	srv     *http.Server
}

// NewServer creates a new web server. m may be nil, in which case
// /metrics is not served.
func NewServer(mon Monitor, cfg *util.Config, m *metrics.Metrics) *Server {
	return &Server{
		monitor: mon,
		config:  cfg,
		metrics: m,
		port:    cfg.WebPort,
	}
}

// Handler builds the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger)
	if s.config.RateLimit > 0 {
		r.Use(NewRateLimiter(s.config.RateLimit, s.config.RateBurst, s.config.TrustProxy).Middleware)
	}

	h := NewHandlers(s.monitor, s.config)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(bearerAuth(s.config.AuthToken))

	api.HandleFunc("/network/traffic", h.APIGetTraffic).Methods(http.MethodGet)
	api.HandleFunc("/network/stats", h.APIGetStats).Methods(http.MethodGet)
	api.HandleFunc("/network/alerts", h.APIGetAlerts).Methods(http.MethodGet)

	api.HandleFunc("/monitor/status", h.APIGetStatus).Methods(http.MethodGet)
	api.HandleFunc("/monitor/start", h.APIStart).Methods(http.MethodPost)
	api.HandleFunc("/monitor/stop", h.APIStop).Methods(http.MethodPost)
	api.HandleFunc("/monitor/refresh", h.APIRefresh).Methods(http.MethodPost)

	if reg := s.metrics.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/report", h.DownloadReport).Methods(http.MethodGet)
	r.HandleFunc("/", h.Dashboard).Methods(http.MethodGet)

	return r
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			util.Warn("Web server shutdown: %v", err)
		}
	}()

	util.Info("Web server starting on port %d", s.port)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop stops the web server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
