package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipforge/clipforge/internal/logger"
)

// ProgressChannel is the pub/sub channel carrying updates for one
// composition.
func ProgressChannel(compositionID string) string {
	return "compose:progress:" + compositionID
}

func stateKey(compositionID string) string {
	return "compose:state:" + compositionID
}

// ProgressEvent is the wire shape published to Redis. Type is one of
// progress, status, error.
type ProgressEvent struct {
	Type          string  `json:"type"`
	CompositionID string  `json:"composition_id"`
	JobID         string  `json:"job_id,omitempty"`
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

// Tracker publishes render progress over Redis pub/sub and keeps the
// last-known state in a plain key so late subscribers can catch up.
type Tracker struct {
	client   *redis.Client
	stateTTL time.Duration
}

func NewTracker(client *redis.Client, stateTTL time.Duration) *Tracker {
	return &Tracker{client: client, stateTTL: stateTTL}
}

// Progress publishes a percent update for one pipeline stage.
func (t *Tracker) Progress(ctx context.Context, compositionID, jobID, stage string, percent, etaSeconds float64) {
	t.publish(ctx, &ProgressEvent{
		Type:          "progress",
		CompositionID: compositionID,
		JobID:         jobID,
		Stage:         stage,
		Percent:       percent,
		ETASeconds:    etaSeconds,
		Timestamp:     time.Now().UnixMilli(),
	})
}

// Status publishes a lifecycle change, with the output URL on completion.
func (t *Tracker) Status(ctx context.Context, compositionID, jobID, status, outputURL string) {
	t.publish(ctx, &ProgressEvent{
		Type:          "status",
		CompositionID: compositionID,
		JobID:         jobID,
		Status:        status,
		OutputURL:     outputURL,
		Timestamp:     time.Now().UnixMilli(),
	})
}

// Error publishes a terminal failure: the status it resolved to, a
// stable code, the message, and whether the queue will retry.
func (t *Tracker) Error(ctx context.Context, compositionID, jobID, status, code, message string, recoverable bool) {
	t.publish(ctx, &ProgressEvent{
		Type:          "error",
		CompositionID: compositionID,
		JobID:         jobID,
		Status:        status,
		Code:          code,
		Error:         message,
		Recoverable:   &recoverable,
		Timestamp:     time.Now().UnixMilli(),
	})
}

// LastState returns the most recent event published for a composition,
// or nil when none survives.
func (t *Tracker) LastState(ctx context.Context, compositionID string) (*ProgressEvent, error) {
	data, err := t.client.Get(ctx, stateKey(compositionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last state for %s: %w", compositionID, err)
	}
	var event ProgressEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode last state for %s: %w", compositionID, err)
	}
	return &event, nil
}

// publish is best-effort: a dropped update must not fail the render.
func (t *Tracker) publish(ctx context.Context, event *ProgressEvent) {
	log := logger.FromContext(ctx)

	data, err := json.Marshal(event)
	if err != nil {
		log.Error("marshal progress event", "error", err)
		return
	}
	if err := t.client.Publish(ctx, ProgressChannel(event.CompositionID), data).Err(); err != nil {
		log.Warn("publish progress event", "composition_id", event.CompositionID, "error", err)
	}
	if err := t.client.Set(ctx, stateKey(event.CompositionID), data, t.stateTTL).Err(); err != nil {
		log.Warn("persist progress state", "composition_id", event.CompositionID, "error", err)
	}
}
