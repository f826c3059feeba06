package realtime

import (
	"encoding/json"
	"errors"
)

// Envelope wire frame: {"event": "<name>", "data": <payload>}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

var errNoEvent = errors.New("frame has no event name")

// DecodeEnvelope parses one text frame.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, errNoEvent
	}
	return env, nil
}

// EncodeEnvelope builds a frame for event with data marshalled as JSON.
func EncodeEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
