// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/relabs-tech/nav_recorder/internal/config"
	"github.com/relabs-tech/nav_recorder/internal/ingest"
	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// consolePrinter prints every event it handles, one line each.
type consolePrinter struct {
	w io.Writer
}

func (p consolePrinter) Handle(_ context.Context, ev navdata.Event) error {
	switch ev.Kind {
	case navdata.KindPosition:
		pos, err := ev.Position.Position()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "[POS ] lat=%.6f lon=%.6f\n", pos.Latitude, pos.Longitude)
		return err
	case navdata.KindSentence:
		s := ev.Sentence
		_, err := fmt.Fprintf(p.w, "[%-4s] time=%s value=%v\n", s.Type, s.Timestamp.Format("15:04:05.000"), s.Value)
		return err
	}
	return fmt.Errorf("unknown event %s", ev.Kind)
}

// RunConsoleMQTT prints sentence and position events from MQTT to w until
// ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, w io.Writer, logger *slog.Logger) error {
	client, err := ingest.ConnectMQTT(cfg.MQTTBroker, config.ClientID(cfg.MQTTClientIDConsole, "nav-console"))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Info("console: connected to MQTT broker", "broker", cfg.MQTTBroker)

	sub, err := ingest.Subscribe(ctx, client, cfg.Topics(), consolePrinter{w: w}, logger)
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("console: shutting down")
	return sub.Unsubscribe()
}
