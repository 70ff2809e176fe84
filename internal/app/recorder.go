// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/nav_recorder/internal/config"
	"github.com/relabs-tech/nav_recorder/internal/ingest"
	"github.com/relabs-tech/nav_recorder/internal/recorder"
	"github.com/relabs-tech/nav_recorder/internal/store/influx"
)

// RunRecorder bootstraps the store, subscribes to the MQTT topics, optionally
// reads the serial GPS, and serves the status API until ctx is done.
// In-flight events are drained before returning.
func RunRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var store recorder.Store
	if cfg.StoreEnabled {
		c, err := influx.New(influx.Config{Host: cfg.StoreHost, Port: cfg.StorePort, Timeout: cfg.StoreTimeout})
		if err != nil {
			return err
		}
		store = c
	}

	rec, err := recorder.Bootstrap(ctx, recorder.Deps{
		Config:     cfg.Store(),
		Store:      store,
		Logger:     logger,
		Registerer: reg,
	})
	if err != nil {
		return fmt.Errorf("recorder bootstrap: %w", err)
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rec.Close(drainCtx); err != nil {
			logger.Warn("recorder close", "error", err)
		}
	}()

	client, err := ingest.ConnectMQTT(cfg.MQTTBroker, config.ClientID(cfg.MQTTClientIDRecorder, "nav-recorder"))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Info("connected to MQTT broker", "broker", cfg.MQTTBroker)

	// events already received finish even after ctx is cancelled
	sub, err := ingest.Subscribe(context.WithoutCancel(ctx), client, cfg.Topics(), rec, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("mqtt unsubscribe", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.WebServerPort),
		Handler:           NewWebHandler(rec, rec, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		return serveHTTP(gctx, srv, logger)
	})

	if cfg.SerialEnabled {
		reader := ingest.NewNMEAReader(rec, logger)
		g.Go(func() error {
			return reader.RunSerial(gctx, cfg.GPSSerialPort, cfg.GPSBaudRate)
		})
	}

	logger.Info("recorder running", "nmea_topic", cfg.TopicNMEA, "position_topic", cfg.TopicPosition)
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("recorder shutting down")
	return err
}
