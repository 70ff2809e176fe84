// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package recorder turns navigational sentences into time-series records
// tagged with the latest known vessel position.
//
// A Recorder is built with Bootstrap, which prepares the store, and then fed
// events through Handle. Position updates only touch in-memory state;
// sentences produce exactly one store write each.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/nav_recorder/internal/logging"
	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

var (
	// ErrClosed is returned by Handle after Close.
	ErrClosed = errors.New("recorder closed")
	// ErrUnknownEvent is returned for events with no registered handler.
	ErrUnknownEvent = errors.New("unknown event kind")
)

// Deps are the collaborators of a Recorder.
type Deps struct {
	Config StoreConfig
	// Store is required when Config.Enabled is set.
	Store Store
	// Logger may be nil.
	Logger *slog.Logger
	// Registerer may be nil, which disables metrics.
	Registerer prometheus.Registerer
}

type handlerFunc func(ctx context.Context, ev navdata.Event) error

// Recorder owns the position cell and the store binding.
type Recorder struct {
	cfg      StoreConfig
	store    Store // nil when the store is disabled
	logger   *slog.Logger
	metrics  *metrics
	position positionCell
	handlers map[navdata.Kind]handlerFunc

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// Bootstrap prepares the store and returns a Recorder ready to handle events.
// Any store failure aborts construction.
func Bootstrap(ctx context.Context, deps Deps) (*Recorder, error) {
	logger := logging.Default(deps.Logger).With("component", "recorder")

	m, err := newMetrics(deps.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	r := &Recorder{
		cfg:     deps.Config,
		logger:  logger,
		metrics: m,
	}
	r.handlers = map[navdata.Kind]handlerFunc{
		navdata.KindSentence: r.handleSentence,
		navdata.KindPosition: r.handlePosition,
	}

	if !deps.Config.Enabled {
		logger.Warn("store disabled, records will not be written")
		return r, nil
	}
	if deps.Store == nil {
		return nil, errors.New("store enabled but no store client given")
	}
	if err := bootstrapStore(ctx, deps.Store, deps.Config, logger); err != nil {
		return nil, err
	}
	r.store = deps.Store
	return r, nil
}

// Handle dispatches one event. It is safe for concurrent use.
func (r *Recorder) Handle(ctx context.Context, ev navdata.Event) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrClosed
	}
	r.inflight.Add(1)
	r.mu.RUnlock()
	defer r.inflight.Done()

	h, ok := r.handlers[ev.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Kind)
	}
	err := h(ctx, ev)
	r.metrics.observeEvent(ev.Kind, err)
	return err
}

func (r *Recorder) handleSentence(ctx context.Context, ev navdata.Event) error {
	if ev.Sentence == nil {
		return fmt.Errorf("sentence event without payload")
	}
	return r.RecordSentence(ctx, *ev.Sentence)
}

func (r *Recorder) handlePosition(ctx context.Context, ev navdata.Event) error {
	if ev.Position == nil {
		return navdata.ErrMissingCoordinates
	}
	return r.UpdatePosition(ctx, *ev.Position)
}

// UpdatePosition replaces the current position. The cell is left untouched
// when the update has no coordinates.
func (r *Recorder) UpdatePosition(_ context.Context, u navdata.PositionUpdate) error {
	p, err := u.Position()
	if err != nil {
		return err
	}
	r.position.set(p)
	r.metrics.observePosition(p)
	r.logger.Debug("position updated", "lat", p.Latitude, "lon", p.Longitude)
	return nil
}

// Position returns the current position and whether any update was received.
// Before the first update it is (0, 0).
func (r *Recorder) Position() (navdata.Position, bool) {
	return r.position.get()
}

// Close stops accepting events, waits for in-flight ones until ctx is done and
// closes the store.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for in-flight events: %w", ctx.Err())
	}

	if r.store != nil {
		if cerr := r.store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}
	r.logger.Info("recorder closed")
	return err
}
