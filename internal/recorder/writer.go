// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// BuildRecord combines a sentence with a position snapshot. Type and
// timestamp are passed through unchecked; the store rejects bad ones.
// A sentence is always one field, even if it carries several values.
func BuildRecord(ev navdata.SentenceEvent, pos navdata.Position) navdata.Record {
	return navdata.Record{
		Measurement: ev.Type,
		Time:        ev.Timestamp,
		Coordinate:  pos,
		Value:       ev.Value,
	}
}

// RecordSentence writes one record for ev, tagged with the current position.
// Store errors are returned as-is (wrapped); there is no retry.
func (r *Recorder) RecordSentence(ctx context.Context, ev navdata.SentenceEvent) error {
	r.logger.Debug("received sentence", "type", ev.Type, "value", ev.Value)

	pos, _ := r.position.get()
	rec := BuildRecord(ev, pos)

	if r.store == nil {
		r.logger.Debug("store disabled, dropping record", "measurement", rec.Measurement)
		return nil
	}

	r.logger.Debug("recording", "measurement", rec.Measurement, "time", rec.Time,
		"lat", rec.Coordinate.Latitude, "lon", rec.Coordinate.Longitude)

	start := time.Now()
	err := withTimeout(ctx, r.cfg.timeout(), func(ctx context.Context) error {
		return r.store.WritePoint(ctx, rec)
	})
	r.metrics.observeWrite(start, err)
	if err != nil {
		return fmt.Errorf("write %q record: %w", rec.Measurement, err)
	}
	return nil
}
