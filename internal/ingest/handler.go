// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ingest delivers navigation events from MQTT, a serial NMEA feed or
// websocket clients to a Handler.
//
// Every source is the dispatch boundary for its events: a Handler error is
// logged and the source moves on to the next event.
package ingest

import (
	"context"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// Handler consumes events. *recorder.Recorder implements it.
type Handler interface {
	Handle(ctx context.Context, ev navdata.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev navdata.Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev navdata.Event) error {
	return f(ctx, ev)
}
