// Package engine supervises ffmpeg subprocesses: one process per render
// operation, stderr streamed line by line, hard wall-clock timeout.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/logger"
)

var (
	ErrFFmpegNotFound  = errors.New("engine: ffmpeg binary not found")
	ErrFFprobeNotFound = errors.New("engine: ffprobe binary not found")
)

// stderrTailLines bounds how much engine output is attached to failures.
const stderrTailLines = 40

// Command is one engine invocation. OnLine receives every stderr line as it
// arrives; the full stream is never buffered.
type Command struct {
	Args    []string
	Timeout time.Duration
	OnLine  func(line string)
}

type Runner struct {
	ffmpegPath string
}

func NewRunner(ffmpegPath string) (*Runner, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	return &Runner{ffmpegPath: ffmpegPath}, nil
}

// Run executes ffmpeg and blocks until exit, timeout or cancellation. On
// timeout the process is killed and a timeout fault is returned; on non-zero
// exit the captured stderr tail is attached to an engine fault.
func (r *Runner) Run(ctx context.Context, command Command) error {
	log := logger.FromContext(ctx)

	runCtx := ctx
	var cancel context.CancelFunc
	if command.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, command.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.ffmpegPath, command.Args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fault.Engine("engine_start", "failed to open engine stderr pipe", err)
	}

	start := time.Now()
	log.Debug("engine starting", "args", strings.Join(command.Args, " "))

	if err := cmd.Start(); err != nil {
		return fault.Engine("engine_start", "failed to start engine process", err)
	}

	tail := make([]string, 0, stderrTailLines)
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanCRLF)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(tail) == stderrTailLines {
			copy(tail, tail[1:])
			tail = tail[:stderrTailLines-1]
		}
		tail = append(tail, line)
		if command.OnLine != nil {
			command.OnLine(line)
		}
	}

	err = cmd.Wait()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		log.Warn("engine timed out", "timeout", command.Timeout, "elapsed", elapsed)
		return fault.Timeout("engine_timeout",
			fmt.Sprintf("engine exceeded %s wall-clock timeout", command.Timeout), runCtx.Err())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		stderrText := strings.Join(tail, "\n")
		log.Error("engine failed", "error", err, "elapsed", elapsed)
		if isDeterministicFailure(stderrText) {
			return fault.DeterministicEngine("engine_bad_input",
				fmt.Sprintf("engine rejected input: %s", lastLine(tail)), err)
		}
		return fault.Engine("engine_failed",
			fmt.Sprintf("engine exited with error: %s", lastLine(tail)), err)
	}

	log.Debug("engine finished", "elapsed", elapsed)
	return nil
}

// scanCRLF splits on \n or \r so ffmpeg's carriage-return progress updates
// arrive as individual lines.
func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// deterministicPatterns are stderr fragments that indicate the input itself
// is bad and a retry will fail identically.
var deterministicPatterns = []string{
	"invalid data found when processing input",
	"no such file or directory",
	"does not contain any stream",
	"invalid argument",
	"unknown encoder",
	"error parsing filterchain",
	"no option name near",
	"matches no streams",
	"invalid stream specifier",
}

func isDeterministicFailure(stderrText string) bool {
	lower := strings.ToLower(stderrText)
	for _, p := range deterministicPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return "no engine output captured"
	}
	return lines[len(lines)-1]
}
