package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/clipforge/internal/engine"
	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/logger"
)

// ScaleMode selects how a source is mapped onto the target frame.
type ScaleMode string

const (
	// ScaleForce stretches to the exact target size.
	ScaleForce ScaleMode = "force"
	// ScaleFit letterboxes, preserving aspect ratio with padding.
	ScaleFit ScaleMode = "fit"
	// ScaleFill scales then center-crops, preserving aspect ratio.
	ScaleFill ScaleMode = "fill"
)

// NormalizationSettings is the canonical target every clip is re-encoded to
// before composition.
type NormalizationSettings struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	FPS       float64   `json:"fps"`
	ScaleMode ScaleMode `json:"scale_mode"`
	PadColor  string    `json:"pad_color"`
}

func (s NormalizationSettings) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fault.Validation("invalid_normalization",
			fmt.Sprintf("target resolution %dx%d must be positive", s.Width, s.Height), nil)
	}
	if s.FPS <= 0 {
		return fault.Validation("invalid_normalization",
			fmt.Sprintf("target fps %.3f must be positive", s.FPS), nil)
	}
	switch s.ScaleMode {
	case ScaleForce, ScaleFit, ScaleFill:
		return nil
	default:
		return fault.Validation("invalid_normalization",
			fmt.Sprintf("unknown scale mode %q", s.ScaleMode), nil)
	}
}

// filterChain builds the per-mode scale filter followed by frame-rate and
// sample-aspect-ratio normalization.
func (s NormalizationSettings) filterChain() string {
	padColor := s.PadColor
	if padColor == "" {
		padColor = "black"
	}

	var scale string
	switch s.ScaleMode {
	case ScaleFit:
		scale = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s",
			s.Width, s.Height, s.Width, s.Height, padColor)
	case ScaleFill:
		scale = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
			s.Width, s.Height, s.Width, s.Height)
	default:
		scale = fmt.Sprintf("scale=%d:%d", s.Width, s.Height)
	}

	return fmt.Sprintf("%s,fps=%g,setsar=1", scale, s.FPS)
}

// NormalizationResult records one normalization outcome.
type NormalizationResult struct {
	InputPath      string
	OutputPath     string
	CacheHit       bool
	OriginalWidth  int
	OriginalHeight int
	OriginalFPS    float64
	ProcessingTime time.Duration
	FileSize       int64
}

// Normalizer re-encodes clips to the canonical target, content-addressed by
// a (path, size, mtime, settings) cache key. The stat-based key is a
// heuristic, not a content hash; it is kept deliberately cheap.
type Normalizer struct {
	runner   *engine.Runner
	prober   *Prober
	cacheDir string
	timeout  time.Duration
}

func NewNormalizer(runner *engine.Runner, prober *Prober, cacheDir string, timeout time.Duration) *Normalizer {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Normalizer{
		runner:   runner,
		prober:   prober,
		cacheDir: cacheDir,
		timeout:  timeout,
	}
}

// CacheEnabled reports whether results are shared across jobs.
func (n *Normalizer) CacheEnabled() bool {
	return n.cacheDir != ""
}

// cacheKey derives the cache identity from filesystem stat plus settings.
func cacheKey(absPath string, info os.FileInfo, settings NormalizationSettings) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%dx%d|%g|%s|%s",
		absPath, info.Size(), info.ModTime().UnixNano(),
		settings.Width, settings.Height, settings.FPS, settings.ScaleMode, settings.PadColor)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// encodeArgs builds the engine invocation for one normalization.
// Audio-less sources get a silent bed muxed in so every normalized clip
// carries the same stream layout for the downstream filter graph.
func encodeArgs(input, output string, settings NormalizationSettings, hasAudio bool) []string {
	args := []string{"-i", input}
	if !hasAudio {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
	}
	args = append(args, "-vf", settings.filterChain(), "-pix_fmt", "yuv420p",
		"-c:v", "libx264", "-preset", "fast", "-crf", "18",
		"-c:a", "aac", "-b:a", "192k")
	if !hasAudio {
		args = append(args, "-map", "0:v:0", "-map", "1:a:0", "-shortest")
	}
	return append(args, "-y", output)
}

// Normalize re-encodes input to the target settings, returning the cached
// result when one exists.
func (n *Normalizer) Normalize(ctx context.Context, input string, settings NormalizationSettings) (*NormalizationResult, error) {
	log := logger.FromContext(ctx)

	if err := settings.validate(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(input)
	if err != nil {
		return nil, fault.Validation("invalid_input", fmt.Sprintf("unresolvable input path %q", input), err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fault.Validation("input_not_found", fmt.Sprintf("input file does not exist: %s", absPath), err)
	}

	meta, err := n.prober.Probe(ctx, absPath)
	if err != nil {
		return nil, fault.DeterministicEngine("probe_failed", fmt.Sprintf("cannot probe input %s", absPath), err)
	}
	if !meta.HasVideo {
		return nil, fault.DeterministicEngine("no_video_stream",
			fmt.Sprintf("input %s has no video stream", absPath), nil)
	}

	result := &NormalizationResult{
		InputPath:      absPath,
		OriginalWidth:  meta.Width,
		OriginalHeight: meta.Height,
		OriginalFPS:    meta.FrameRate,
	}

	var outputPath string
	if n.CacheEnabled() {
		key := cacheKey(absPath, info, settings)
		outputPath = filepath.Join(n.cacheDir, fmt.Sprintf("norm_%s.mp4", key))
		if cached, err := os.Stat(outputPath); err == nil {
			log.Debug("normalization cache hit", "input", absPath, "output", outputPath)
			result.OutputPath = outputPath
			result.CacheHit = true
			result.FileSize = cached.Size()
			return result, nil
		}
		if err := os.MkdirAll(n.cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	} else {
		tmp, err := os.CreateTemp("", "norm-*.mp4")
		if err != nil {
			return nil, fmt.Errorf("create normalize output: %w", err)
		}
		outputPath = tmp.Name()
		_ = tmp.Close()
	}

	args := encodeArgs(absPath, outputPath, settings, meta.HasAudio)

	start := time.Now()
	if err := n.runner.Run(ctx, engine.Command{Args: args, Timeout: n.timeout}); err != nil {
		_ = os.Remove(outputPath)
		return nil, err
	}

	out, err := os.Stat(outputPath)
	if err != nil {
		return nil, fault.Engine("output_missing",
			fmt.Sprintf("normalized output missing after engine success: %s", outputPath), err)
	}

	result.OutputPath = outputPath
	result.ProcessingTime = time.Since(start)
	result.FileSize = out.Size()

	log.Debug("normalized", "input", absPath, "output", outputPath,
		"duration_ms", result.ProcessingTime.Milliseconds(), "size", result.FileSize)
	return result, nil
}

// PruneCache removes cached normalized outputs whose modification time is
// older than the cutoff. It returns the number of files removed.
func (n *Normalizer) PruneCache(cutoff time.Time) (int, error) {
	if !n.CacheEnabled() {
		return 0, nil
	}

	entries, err := os.ReadDir(n.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "norm_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(n.cacheDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove cached file %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// NormalizeBatch processes each input independently, skipping failures and
// returning only the successes.
func (n *Normalizer) NormalizeBatch(ctx context.Context, inputs []string, settings NormalizationSettings) []*NormalizationResult {
	log := logger.FromContext(ctx)

	results := make([]*NormalizationResult, 0, len(inputs))
	for _, input := range inputs {
		res, err := n.Normalize(ctx, input, settings)
		if err != nil {
			log.Warn("skipping input in batch normalize", "input", input, "error", err)
			continue
		}
		results = append(results, res)
	}
	return results
}
