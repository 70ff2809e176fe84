// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package navdata holds the event and record types exchanged between the
// event sources, the recorder and the store.
package navdata

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingCoordinates is returned when a position update carries no usable
// [lon, lat] tuple.
var ErrMissingCoordinates = errors.New("position update has no coordinates")

// Position is a single geo-coordinate in decimal degrees.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// SentenceEvent is one raw navigational sentence.
type SentenceEvent struct {
	Type      string    `json:"type"`      // becomes the measurement name
	Timestamp time.Time `json:"timestamp"` // RFC3339
	Value     any       `json:"value"`     // written as the single field
}

// GeoJSON is the point geometry carried by a vessel.
type GeoJSON struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

// Vessel is the position-bearing part of a position update.
type Vessel struct {
	GeoJSON *GeoJSON `json:"geojson"`
}

// PositionUpdate replaces the tracked vessel coordinate.
type PositionUpdate struct {
	Vessel *Vessel `json:"vessel"`
}

// NewPositionUpdate wraps a position into the vessel/geojson shape.
func NewPositionUpdate(p Position) PositionUpdate {
	return PositionUpdate{Vessel: &Vessel{GeoJSON: &GeoJSON{
		Type:        "Point",
		Coordinates: []float64{p.Longitude, p.Latitude},
	}}}
}

// Position extracts the coordinate. No range checks are made.
func (u PositionUpdate) Position() (Position, error) {
	if u.Vessel == nil || u.Vessel.GeoJSON == nil || len(u.Vessel.GeoJSON.Coordinates) != 2 {
		return Position{}, ErrMissingCoordinates
	}
	c := u.Vessel.GeoJSON.Coordinates
	return Position{Latitude: c[1], Longitude: c[0]}, nil
}

// Kind tags an Event.
type Kind int

const (
	KindSentence Kind = iota + 1
	KindPosition
)

func (k Kind) String() string {
	switch k {
	case KindSentence:
		return "sentence"
	case KindPosition:
		return "position"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is the tagged variant delivered to the recorder. Exactly one of
// Sentence or Position is set, matching Kind.
type Event struct {
	Kind     Kind
	Sentence *SentenceEvent
	Position *PositionUpdate
}

// NewSentence wraps a sentence event.
func NewSentence(s SentenceEvent) Event {
	return Event{Kind: KindSentence, Sentence: &s}
}

// NewPosition wraps a position update.
func NewPosition(u PositionUpdate) Event {
	return Event{Kind: KindPosition, Position: &u}
}

// Record is the store-bound unit built from one sentence and a position
// snapshot.
type Record struct {
	Measurement string    `json:"measurement"`
	Time        time.Time `json:"time"`
	Coordinate  Position  `json:"coordinate"`
	Value       any       `json:"value"`
}
