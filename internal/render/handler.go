package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/job-queue/pkg/job"
	"github.com/abdul-hamid-achik/job-queue/pkg/middleware"

	"github.com/clipforge/clipforge/internal/engine"
	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/logger"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/progress"
	"github.com/clipforge/clipforge/internal/storage"
	"github.com/clipforge/clipforge/internal/store"
	"github.com/clipforge/clipforge/internal/timeline"
	"github.com/clipforge/clipforge/internal/tracing"
)

// JobTypeCompose is the queue job type for full composition renders.
const JobTypeCompose = "compose"

// Stage names reported over the progress channel.
const (
	StageNormalize = "normalize"
	StageCompose   = "compose"
	StageEncode    = "encode"
	StageUpload    = "upload"
)

// renderStages weights each pipeline stage by its typical share of wall
// time. Encoding dominates.
func renderStages() []progress.Stage {
	return []progress.Stage{
		{Name: StageNormalize, Weight: 0.25},
		{Name: StageCompose, Weight: 0.05},
		{Name: StageEncode, Weight: 0.60},
		{Name: StageUpload, Weight: 0.10},
	}
}

type Dependencies struct {
	Storage       storage.Storage
	Store         *store.CompositionStore
	Normalizer    *media.Normalizer
	Runner        *engine.Runner
	Tracker       *Tracker
	WorkDir       string
	RenderTimeout time.Duration
	URLExpiry     time.Duration
}

// ComposeHandler renders one composition end to end: download sources,
// normalize, compile the filter graph, encode, upload, record the result.
// Validation and assembly failures are permanent; transport and transient
// engine failures bubble up plain so the queue retries them.
func ComposeHandler(deps *Dependencies) func(context.Context, *job.Job) error {
	return func(ctx context.Context, j *job.Job) error {
		log := logger.FromContext(ctx).With("job_id", j.ID, "job_type", JobTypeCompose)
		log.Info("job started")
		start := time.Now()

		var payload ComposePayload
		if err := j.UnmarshalPayload(&payload); err != nil {
			log.Error("invalid payload", "error", err)
			return middleware.Permanent(fmt.Errorf("invalid payload: %w", err))
		}
		payload.applyDefaults()

		log = log.With("composition_id", payload.CompositionID)
		ctx = logger.WithCompositionID(logger.WithJobID(ctx, j.ID), payload.CompositionID)

		ctx, span := tracing.StartRenderSpan(ctx, j.ID, payload.CompositionID)
		defer span.End()

		jc := NewJobContext(payload.CompositionID, j.ID)
		if err := jc.Transition(StatusInProgress); err != nil {
			return middleware.Permanent(err)
		}
		if err := deps.Store.Upsert(ctx, &store.Composition{
			ID:        payload.CompositionID,
			Status:    StatusInProgress,
			CreatedAt: time.Now(),
		}); err != nil {
			log.Error("failed to record job start", "error", err)
			return fmt.Errorf("record job start: %w", err)
		}
		deps.Tracker.Status(ctx, payload.CompositionID, j.ID, StatusInProgress, "")

		outputURL, err := deps.render(ctx, j, &payload)
		if err != nil {
			return deps.fail(ctx, log, jc, &payload, j, err)
		}

		now := time.Now()
		if err := jc.Transition(StatusCompleted); err != nil {
			return middleware.Permanent(err)
		}
		if err := deps.Store.Upsert(ctx, &store.Composition{
			ID:          payload.CompositionID,
			Status:      StatusCompleted,
			OutputURL:   outputURL,
			CreatedAt:   start,
			CompletedAt: &now,
		}); err != nil {
			log.Error("failed to record completion", "error", err)
			return fmt.Errorf("record completion: %w", err)
		}
		deps.Tracker.Status(ctx, payload.CompositionID, j.ID, StatusCompleted, outputURL)
		metrics.RecordRender(StatusCompleted)

		log.Info("job completed", "duration_ms", time.Since(start).Milliseconds(), "output_url", outputURL)
		return nil
	}
}

func (deps *Dependencies) render(ctx context.Context, j *job.Job, payload *ComposePayload) (string, error) {
	log := logger.FromContext(ctx)

	if err := payload.Validate(); err != nil {
		return "", err
	}

	tl, err := timeline.Assemble(payload.Clips, timeline.Options{Sort: true})
	if err != nil {
		return "", err
	}

	stages, err := progress.NewMultiStage(renderStages())
	if err != nil {
		return "", err
	}
	report := deps.reporter(ctx, payload.CompositionID, j.ID, stages)

	workDir := filepath.Join(deps.WorkDir, j.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fault.Transport("workdir_failed", "cannot create work directory", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("failed to clean work directory", "path", workDir, "error", err)
		}
	}()

	width, height, err := payload.Output.Dimensions()
	if err != nil {
		return "", err
	}
	settings := media.NormalizationSettings{
		Width:     width,
		Height:    height,
		FPS:       payload.Output.FPS,
		ScaleMode: media.ScaleFit,
		PadColor:  "black",
	}

	// Download and normalize sources. Cache hits skip the re-encode.
	normalizeStart := time.Now()
	normalizeCtx, normalizeSpan := tracing.StartStageSpan(ctx, StageNormalize)
	clipPaths := make([]string, len(tl.Clips))
	for i, clip := range tl.Clips {
		local := filepath.Join(workDir, fmt.Sprintf("src_%d%s", i, filepath.Ext(clip.SourcePath)))
		downloadStart := time.Now()
		if err := storage.DownloadToFile(normalizeCtx, deps.Storage, clip.SourcePath, local); err != nil {
			normalizeSpan.End()
			return "", fault.Transport("source_download_failed",
				fmt.Sprintf("cannot download source %q", clip.SourcePath), err)
		}
		log.Debug("source downloaded", "key", clip.SourcePath, "duration_ms", time.Since(downloadStart).Milliseconds())

		result, err := deps.Normalizer.Normalize(normalizeCtx, local, settings)
		if err != nil {
			normalizeSpan.End()
			return "", err
		}
		clipPaths[i] = result.OutputPath
		metrics.RecordNormalizeCache(result.CacheHit)
		log.Debug("source normalized", "clip_id", clip.ClipID, "cache_hit", result.CacheHit)

		report(StageNormalize, float64(i+1)/float64(len(tl.Clips))*100, 0)
	}
	normalizeSpan.End()
	metrics.RecordRenderStage(StageNormalize, time.Since(normalizeStart).Seconds())

	musicPaths := make([]string, len(payload.AudioTracks))
	for i, track := range payload.AudioTracks {
		local := filepath.Join(workDir, fmt.Sprintf("aud_%d%s", i, filepath.Ext(track.SourceKey)))
		if err := storage.DownloadToFile(ctx, deps.Storage, track.SourceKey, local); err != nil {
			return "", fault.Transport("audio_download_failed",
				fmt.Sprintf("cannot download audio track %q", track.SourceKey), err)
		}
		musicPaths[i] = local
	}

	outputPath := filepath.Join(workDir, "output."+payload.Output.Format)
	args, err := BuildCommand(payload, tl, clipPaths, musicPaths, outputPath)
	if err != nil {
		return "", err
	}
	report(StageCompose, 100, 0)

	parser := progress.NewParser(tl.TotalDuration)
	encodeStart := time.Now()
	encodeCtx, encodeSpan := tracing.StartStageSpan(ctx, StageEncode)
	err = deps.Runner.Run(encodeCtx, engine.Command{
		Args:    args,
		Timeout: deps.RenderTimeout,
		OnLine: func(line string) {
			if sample, ok := parser.ParseLine(line); ok {
				report(StageEncode, sample.Percent, sample.ETASeconds)
			}
		},
	})
	encodeSpan.End()
	if err != nil {
		return "", err
	}
	report(StageEncode, 100, 0)
	metrics.RecordRenderStage(StageEncode, time.Since(encodeStart).Seconds())
	log.Debug("composition encoded", "duration_ms", time.Since(encodeStart).Milliseconds())

	outputKey := fmt.Sprintf("renders/%s/output.%s", payload.CompositionID, payload.Output.Format)
	uploadStart := time.Now()
	uploadCtx, uploadSpan := tracing.StartStageSpan(ctx, StageUpload)
	err = storage.UploadFile(uploadCtx, deps.Storage, outputKey, outputPath)
	uploadSpan.End()
	if err != nil {
		return "", fault.Transport("output_upload_failed",
			fmt.Sprintf("cannot upload output %q", outputKey), err)
	}
	report(StageUpload, 100, 0)
	metrics.RecordRenderStage(StageUpload, time.Since(uploadStart).Seconds())

	outputURL, err := deps.Storage.GetPresignedURL(ctx, outputKey, deps.URLExpiry)
	if err != nil {
		return "", fault.Transport("presign_failed", "cannot presign output URL", err)
	}
	return outputURL, nil
}

// reporter publishes stage progress, deduplicated to whole-percent steps
// of the overall figure.
func (deps *Dependencies) reporter(ctx context.Context, compositionID, jobID string, stages *progress.MultiStage) func(stage string, percent, etaSeconds float64) {
	lastPublished := -1
	return func(stage string, percent, etaSeconds float64) {
		if err := stages.Update(stage, percent); err != nil {
			return
		}
		overall := stages.Overall()
		if int(overall) == lastPublished {
			return
		}
		lastPublished = int(overall)
		deps.Tracker.Progress(ctx, compositionID, jobID, stage, overall, etaSeconds)
	}
}

// failureStatus maps a fault to the terminal status it resolves to.
// Wall-clock timeouts stay distinguishable from other failures.
func failureStatus(f *fault.Error) string {
	if f.Kind == fault.KindTimeout {
		return StatusTimeout
	}
	return StatusFailed
}

// fail records the failure and converts non-retryable faults into
// permanent queue errors.
func (deps *Dependencies) fail(ctx context.Context, log *slog.Logger, jc *JobContext, payload *ComposePayload, j *job.Job, err error) error {
	f := fault.From(err)
	log.Error("job failed", "kind", f.Kind.String(), "code", f.Code, "retryable", f.Retryable(), "error", err)
	tracing.RecordError(ctx, err)

	status := failureStatus(f)
	_ = jc.Fail(status, f.Message)
	now := time.Now()
	if storeErr := deps.Store.UpdateStatus(ctx, payload.CompositionID, status, "", f.Message, &now); storeErr != nil {
		log.Error("failed to record failure", "error", storeErr)
	}
	deps.Tracker.Error(ctx, payload.CompositionID, j.ID, status, f.Code, f.Message, f.Retryable())
	metrics.RecordRender(status)
	metrics.RecordRenderFailure(f.Kind.String())

	if !f.Retryable() {
		return middleware.Permanent(f)
	}
	return f
}
