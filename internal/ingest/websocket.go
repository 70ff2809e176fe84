// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/nav_recorder/internal/logging"
	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// Ack answers every websocket frame.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local network clients
	},
}

// WebSocketHandler accepts navdata.Envelope text frames and hands the decoded
// events to h, acking each frame.
func WebSocketHandler(h Handler, logger *slog.Logger) http.Handler {
	logger = logging.Default(logger).With("component", "ws-ingest")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade error", "error", err)
			return
		}
		defer conn.Close()
		logger.Debug("client connected", "remote", r.RemoteAddr)

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("websocket read error", "remote", r.RemoteAddr, "error", err)
				}
				return
			}

			ack := Ack{OK: true}
			ev, err := navdata.DecodeEnvelope(frame)
			if err == nil {
				err = h.Handle(r.Context(), ev)
			}
			if err != nil {
				logger.Warn("event dropped", "remote", r.RemoteAddr, "error", err)
				ack = Ack{Error: err.Error()}
			}

			if err := conn.WriteJSON(ack); err != nil {
				logger.Warn("websocket write error", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	})
}
