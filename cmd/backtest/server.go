package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-screener/internal/logger"
	"go.uber.org/zap"
)

// metricsServer exposes the engine metrics while a batch runs.
type metricsServer struct {
	server *http.Server
}

func newMetricsServer(addr string, gatherer prometheus.Gatherer) *metricsServer {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	return &metricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (m *metricsServer) Start(log *logger.Logger) {
	go func() {
		log.Info("Serving metrics", zap.String("addr", m.server.Addr))

		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server stopped", zap.Error(err))
		}
	}()
}

func (m *metricsServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.server.Shutdown(ctx)
}
