// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package navdata

import (
	"encoding/json"
	"fmt"
)

// Envelope is the self-describing wire form used by transports that do not
// carry the event kind out of band (websocket frames).
type Envelope struct {
	Event string          `json:"event"` // "sentence"/"read" or "position"/"updateposition"
	Data  json.RawMessage `json:"data"`
}

// KindFromName resolves an envelope event name.
func KindFromName(name string) (Kind, bool) {
	switch name {
	case "sentence", "read":
		return KindSentence, true
	case "position", "updateposition":
		return KindPosition, true
	}
	return 0, false
}

// Decode unmarshals payload as an event of the given kind.
func Decode(kind Kind, payload []byte) (Event, error) {
	switch kind {
	case KindSentence:
		var s SentenceEvent
		if err := json.Unmarshal(payload, &s); err != nil {
			return Event{}, fmt.Errorf("decode sentence: %w", err)
		}
		return NewSentence(s), nil
	case KindPosition:
		var u PositionUpdate
		if err := json.Unmarshal(payload, &u); err != nil {
			return Event{}, fmt.Errorf("decode position update: %w", err)
		}
		return NewPosition(u), nil
	default:
		return Event{}, fmt.Errorf("decode: unsupported event %s", kind)
	}
}

// DecodeEnvelope unmarshals an Envelope and its payload.
func DecodeEnvelope(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}
	kind, ok := KindFromName(env.Event)
	if !ok {
		return Event{}, fmt.Errorf("decode envelope: unknown event %q", env.Event)
	}
	return Decode(kind, env.Data)
}

// Encode marshals the payload of ev (without envelope).
func Encode(ev Event) ([]byte, error) {
	switch ev.Kind {
	case KindSentence:
		if ev.Sentence == nil {
			return nil, fmt.Errorf("encode: empty sentence event")
		}
		return json.Marshal(ev.Sentence)
	case KindPosition:
		if ev.Position == nil {
			return nil, fmt.Errorf("encode: empty position event")
		}
		return json.Marshal(ev.Position)
	default:
		return nil, fmt.Errorf("encode: unsupported event %s", ev.Kind)
	}
}
