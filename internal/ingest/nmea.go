// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/nav_recorder/internal/logging"
	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// ParseLine turns one NMEA line into events. The whole sentence becomes the
// value of a single sentence event typed by its data type (RMC, GGA, ...).
// A valid RMC, GGA or GLL fix also yields a position update, placed first so
// the sentence is recorded at its own fix.
//
// Blank lines and lines that do not start with '$' or '!' yield no events.
func ParseLine(line string, now time.Time) ([]navdata.Event, error) {
	line = strings.TrimSpace(line)
	if line == "" || (line[0] != '$' && line[0] != '!') {
		return nil, nil
	}

	s, err := nmea.Parse(line)
	if err != nil {
		return nil, err
	}

	var events []navdata.Event
	if pos, ok := fixOf(s); ok {
		events = append(events, navdata.NewPosition(navdata.NewPositionUpdate(pos)))
	}
	events = append(events, navdata.NewSentence(navdata.SentenceEvent{
		Type:      s.DataType(),
		Timestamp: now,
		Value:     line,
	}))
	return events, nil
}

func fixOf(s nmea.Sentence) (navdata.Position, bool) {
	switch m := s.(type) {
	case nmea.RMC:
		if m.Validity == nmea.ValidRMC {
			return navdata.Position{Latitude: m.Latitude, Longitude: m.Longitude}, true
		}
	case nmea.GGA:
		if m.FixQuality != nmea.Invalid && m.FixQuality != "" {
			return navdata.Position{Latitude: m.Latitude, Longitude: m.Longitude}, true
		}
	case nmea.GLL:
		if m.Validity == nmea.ValidGLL {
			return navdata.Position{Latitude: m.Latitude, Longitude: m.Longitude}, true
		}
	}
	return navdata.Position{}, false
}

// NMEAReader reads NMEA lines and hands the resulting events to a Handler.
type NMEAReader struct {
	handler Handler
	logger  *slog.Logger
	now     func() time.Time
}

// NewNMEAReader returns a reader stamping sentences with the receive time.
func NewNMEAReader(h Handler, logger *slog.Logger) *NMEAReader {
	return &NMEAReader{
		handler: h,
		logger:  logging.Default(logger).With("component", "nmea-reader"),
		now:     time.Now,
	}
}

// Run reads r until EOF, a read error or ctx is done. Parse and handler
// errors are logged and skipped. Closing r unblocks a pending read.
func (n *NMEAReader) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		events, err := ParseLine(scanner.Text(), n.now())
		if err != nil {
			// noisy receivers emit partial sentences
			n.logger.Debug("nmea parse error", "error", err)
			continue
		}
		for _, ev := range events {
			if err := n.handler.Handle(ctx, ev); err != nil {
				n.logger.Warn("event dropped", "kind", ev.Kind, "error", err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("nmea read: %w", err)
	}
	return nil
}

// OpenSerial opens a GPS serial port with 8N1 framing.
func OpenSerial(portName string, baudRate int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", portName, err)
	}
	return port, nil
}

// RunSerial opens portName and runs the reader on it until ctx is done.
func (n *NMEAReader) RunSerial(ctx context.Context, portName string, baudRate int) error {
	port, err := OpenSerial(portName, baudRate)
	if err != nil {
		return err
	}
	n.logger.Info("serial port opened", "port", portName, "baud", baudRate)

	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer func() {
		if stop() {
			_ = port.Close()
		}
	}()
	return n.Run(ctx, port)
}
