package render

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/clipforge/internal/fault"
)

func newTestTracker(t *testing.T) (*Tracker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTracker(client, time.Minute), client
}

func TestFailureStatus(t *testing.T) {
	timedOut := fault.Timeout("engine_timeout", "render exceeded deadline", nil)
	if got := failureStatus(fault.From(timedOut)); got != StatusTimeout {
		t.Errorf("failureStatus(timeout fault) = %q, want %q", got, StatusTimeout)
	}

	crashed := fault.Engine("engine_failed", "exit status 1", nil)
	if got := failureStatus(fault.From(crashed)); got != StatusFailed {
		t.Errorf("failureStatus(engine fault) = %q, want %q", got, StatusFailed)
	}
}

func TestTrackerErrorEvent(t *testing.T) {
	tracker, client := newTestTracker(t)
	ctx := context.Background()

	pubsub := client.Subscribe(ctx, ProgressChannel("comp-1"))
	t.Cleanup(func() { pubsub.Close() })
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	tracker.Error(ctx, "comp-1", "job-1", StatusTimeout, "engine_timeout", "render exceeded 30m", false)

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := pubsub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatalf("no error event published: %v", err)
	}

	var event ProgressEvent
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		t.Fatal(err)
	}
	if event.Type != "error" {
		t.Errorf("type = %q, want error", event.Type)
	}
	if event.Status != StatusTimeout {
		t.Errorf("status = %q, want %q", event.Status, StatusTimeout)
	}
	if event.Code != "engine_timeout" {
		t.Errorf("code = %q, want engine_timeout", event.Code)
	}
	if event.Error != "render exceeded 30m" {
		t.Errorf("error = %q", event.Error)
	}
	if event.Recoverable == nil || *event.Recoverable {
		t.Errorf("recoverable = %v, want false", event.Recoverable)
	}
}

func TestTrackerLastState(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	state, err := tracker.LastState(ctx, "comp-1")
	if err != nil {
		t.Fatal(err)
	}
	if state != nil {
		t.Fatalf("LastState before any publish = %+v, want nil", state)
	}

	tracker.Error(ctx, "comp-1", "job-1", StatusFailed, "source_download_failed", "cannot download source", true)

	state, err = tracker.LastState(ctx, "comp-1")
	if err != nil {
		t.Fatal(err)
	}
	if state == nil {
		t.Fatal("LastState = nil after publish")
	}
	if state.Code != "source_download_failed" || state.Status != StatusFailed {
		t.Errorf("state = %+v", state)
	}
	if state.Recoverable == nil || !*state.Recoverable {
		t.Errorf("recoverable = %v, want true", state.Recoverable)
	}
}
