// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/relabs-tech/nav_recorder/internal/config"
	"github.com/relabs-tech/nav_recorder/internal/ingest"
)

// RunGPSProducer reads NMEA sentences from the GPS serial port and publishes
// them, plus a position update for every valid fix, to MQTT.
func RunGPSProducer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	client, err := ingest.ConnectMQTT(cfg.MQTTBroker, config.ClientID(cfg.MQTTClientIDGPS, "nav-gps-producer"))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Info("GPS producer connected to MQTT broker", "broker", cfg.MQTTBroker)

	reader := ingest.NewNMEAReader(ingest.NewPublisher(client, cfg.Topics()), logger)
	err = reader.RunSerial(ctx, cfg.GPSSerialPort, cfg.GPSBaudRate)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
