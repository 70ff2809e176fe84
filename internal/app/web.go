// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/nav_recorder/internal/ingest"
	"github.com/relabs-tech/nav_recorder/internal/logging"
	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// PositionSource reports the tracked position.
type PositionSource interface {
	Position() (navdata.Position, bool)
}

type positionResponse struct {
	navdata.Position
	Updated bool `json:"updated"`
}

// NewWebHandler serves the status API, metrics and websocket ingest.
func NewWebHandler(pos PositionSource, h ingest.Handler, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	logger = logging.Default(logger)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/position", func(w http.ResponseWriter, r *http.Request) {
		p, updated := pos.Position()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(positionResponse{Position: p, Updated: updated}); err != nil {
			logger.Warn("json encode error", "error", err)
		}
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("GET /ws/events", ingest.WebSocketHandler(h, logger))

	return mux
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("web server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
