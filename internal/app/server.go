package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hedera-defi/internal/hedera"
)

// newOpsRouter serves Prometheus metrics, a liveness check and the client's
// call and cache statistics while the monitor runs.
func newOpsRouter(client *hedera.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"calls": client.ShowCallStatistics(),
			"cache": client.GetCacheStats(),
		})
	})
	return r
}

// serveOps runs the ops endpoint until ctx is cancelled.
func (a *App) serveOps(ctx context.Context, client *hedera.Client) {
	addr := a.Config.Metrics.ListenAddr
	if addr == "" {
		return
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      newOpsRouter(client),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		a.Logger.Info().Str("addr", addr).Msg("ops endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("ops endpoint failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
