package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/logger"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/render"
	"github.com/clipforge/clipforge/internal/store"
	"github.com/clipforge/clipforge/internal/tracing"
)

// Broker enqueues render jobs onto a priority lane.
type Broker interface {
	Enqueue(ctx context.Context, jobType, queue string, payload any) (string, error)
}

// CompositionStore is the record store surface the handlers need.
type CompositionStore interface {
	Upsert(ctx context.Context, comp *store.Composition) error
	Get(ctx context.Context, id string) (*store.Composition, error)
}

// ProgressReader exposes the last-known progress event.
type ProgressReader interface {
	LastState(ctx context.Context, compositionID string) (*render.ProgressEvent, error)
}

// JobIndex maps queue job ids back to composition ids.
type JobIndex interface {
	Set(ctx context.Context, jobID, compositionID string) error
	Get(ctx context.Context, jobID string) (string, bool, error)
}

// redisJobIndex keeps the mapping in Redis with the result TTL.
type redisJobIndex struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJobIndex(client *redis.Client, ttl time.Duration) JobIndex {
	return &redisJobIndex{client: client, ttl: ttl}
}

func (idx *redisJobIndex) Set(ctx context.Context, jobID, compositionID string) error {
	return idx.client.Set(ctx, "compose:job:"+jobID, compositionID, idx.ttl).Err()
}

func (idx *redisJobIndex) Get(ctx context.Context, jobID string) (string, bool, error) {
	val, err := idx.client.Get(ctx, "compose:job:"+jobID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

type CompositionConfig struct {
	Broker   Broker
	Store    CompositionStore
	Progress ProgressReader
	Jobs     JobIndex
}

type renderResponse struct {
	JobID         string `json:"job_id"`
	CompositionID string `json:"composition_id"`
	Status        string `json:"status"`
	Queue         string `json:"queue"`
}

// RenderCompositionHandler accepts a declarative composition and queues
// it for rendering on the lane matching its priority.
func RenderCompositionHandler(cfg *CompositionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		compositionID := r.PathValue("id")

		var payload render.ComposePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			fault.WriteJSON(w, r, fault.Validation("bad_body", "request body is not valid JSON", err))
			return
		}

		p, err := render.NewComposePayload(compositionID, payload.Clips, payload.Output)
		if err != nil {
			fault.WriteJSON(w, r, err)
			return
		}
		p.Transitions = payload.Transitions
		p.AudioTracks = payload.AudioTracks
		p.Overlays = payload.Overlays
		if payload.Priority != "" {
			p.Priority = payload.Priority
		}
		if err := p.Validate(); err != nil {
			fault.WriteJSON(w, r, err)
			return
		}

		ctx, span := tracing.StartEnqueueSpan(r.Context(), compositionID, p.Priority)
		defer span.End()

		jobID, err := cfg.Broker.Enqueue(ctx, render.JobTypeCompose, p.Priority, p)
		if err != nil {
			tracing.RecordError(ctx, err)
			fault.WriteJSON(w, r, fault.Transport("enqueue_failed", "could not queue the render", err))
			return
		}

		if err := cfg.Store.Upsert(ctx, &store.Composition{
			ID:        compositionID,
			Status:    render.StatusPending,
			CreatedAt: time.Now(),
		}); err != nil {
			log.Error("failed to record pending composition", "composition_id", compositionID, "error", err)
		}
		if err := cfg.Jobs.Set(ctx, jobID, compositionID); err != nil {
			log.Warn("failed to index job id", "job_id", jobID, "error", err)
		}

		metrics.RecordJobEnqueued(render.JobTypeCompose, p.Priority)
		log.Info("render queued", "composition_id", compositionID, "job_id", jobID, "queue", p.Priority)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(renderResponse{
			JobID:         jobID,
			CompositionID: compositionID,
			Status:        render.StatusPending,
			Queue:         p.Priority,
		})
	}
}

type compositionResponse struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	OutputURL   string                `json:"output_url,omitempty"`
	Error       string                `json:"error,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	DurationSec float64               `json:"duration_seconds,omitempty"`
	Progress    *render.ProgressEvent `json:"progress,omitempty"`
}

// GetCompositionHandler reports the stored record plus the most recent
// progress event, when one survives.
func GetCompositionHandler(cfg *CompositionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compositionID := r.PathValue("id")

		comp, err := cfg.Store.Get(r.Context(), compositionID)
		if errors.Is(err, store.ErrNotFound) {
			fault.NotFound(w, "composition not found")
			return
		}
		if err != nil {
			fault.WriteJSON(w, r, err)
			return
		}

		resp := compositionResponse{
			ID:          comp.ID,
			Status:      comp.Status,
			OutputURL:   comp.OutputURL,
			Error:       comp.ErrorMessage,
			CreatedAt:   comp.CreatedAt,
			CompletedAt: comp.CompletedAt,
			DurationSec: comp.GetDuration().Seconds(),
		}
		if event, err := cfg.Progress.LastState(r.Context(), compositionID); err == nil && event != nil {
			resp.Progress = event
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// GetJobHandler resolves a job id to its composition and reports that.
func GetJobHandler(cfg *CompositionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.PathValue("id")

		compositionID, found, err := cfg.Jobs.Get(r.Context(), jobID)
		if err != nil {
			fault.WriteJSON(w, r, fault.Transport("job_lookup_failed", "could not resolve job", err))
			return
		}
		if !found {
			fault.NotFound(w, "job not found")
			return
		}

		r.SetPathValue("id", compositionID)
		GetCompositionHandler(cfg)(w, r)
	}
}
