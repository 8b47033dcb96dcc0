// Package realtime fans render progress out to WebSocket subscribers,
// bridging from the Redis pub/sub channel each worker publishes to.
package realtime

import (
	"time"

	"github.com/clipforge/clipforge/internal/render"
)

// Message types sent to subscribers. Clients answer ping with pong.
const (
	MessageProgress = "progress"
	MessageStatus   = "status"
	MessageError    = "error"
	MessagePing     = "ping"
	MessagePong     = "pong"
)

// Message is the wire shape for one WebSocket frame. Sequence is
// monotonic per subscription so clients can detect gaps after a
// reconnect.
type Message struct {
	Type          string  `json:"type"`
	CompositionID string  `json:"composition_id,omitempty"`
	Sequence      uint64  `json:"sequence"`
	Stage         string  `json:"stage,omitempty"`
	Percent       float64 `json:"percent,omitempty"`
	ETASeconds    float64 `json:"eta_seconds,omitempty"`
	Status        string  `json:"status,omitempty"`
	OutputURL     string  `json:"output_url,omitempty"`
	Code          string  `json:"code,omitempty"`
	Error         string  `json:"error,omitempty"`
	Recoverable   *bool   `json:"recoverable,omitempty"`
	Timestamp     int64   `json:"timestamp"`
}

// FromEvent converts a published progress event into a subscriber frame.
func FromEvent(event *render.ProgressEvent, sequence uint64) *Message {
	return &Message{
		Type:          event.Type,
		CompositionID: event.CompositionID,
		Sequence:      sequence,
		Stage:         event.Stage,
		Percent:       event.Percent,
		ETASeconds:    event.ETASeconds,
		Status:        event.Status,
		OutputURL:     event.OutputURL,
		Code:          event.Code,
		Error:         event.Error,
		Recoverable:   event.Recoverable,
		Timestamp:     event.Timestamp,
	}
}

// pingMessage builds one heartbeat frame.
func pingMessage(sequence uint64) *Message {
	return &Message{
		Type:      MessagePing,
		Sequence:  sequence,
		Timestamp: time.Now().UnixMilli(),
	}
}
