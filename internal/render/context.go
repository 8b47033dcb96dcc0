package render

import (
	"fmt"
	"sync"
	"time"

	"github.com/clipforge/clipforge/internal/fault"
)

// Status values a render job can move through. pending and in_progress
// are transient; the rest are terminal. timeout is kept distinct from
// failed so wall-clock kills stay identifiable downstream.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusTimeout    = "timeout"
	StatusCancelled  = "cancelled"
)

var statusTransitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusTimeout, StatusCancelled},
}

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusTimeout, StatusCancelled:
		return true
	}
	return false
}

// JobContext tracks the lifecycle of one render job. Transitions are
// validated: terminal states cannot be left, and pending cannot jump
// straight to completed.
type JobContext struct {
	mu            sync.Mutex
	CompositionID string
	JobID         string
	status        string
	startedAt     time.Time
	completedAt   time.Time
	errMessage    string
}

func NewJobContext(compositionID, jobID string) *JobContext {
	return &JobContext{
		CompositionID: compositionID,
		JobID:         jobID,
		status:        StatusPending,
	}
}

func (jc *JobContext) Status() string {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	return jc.status
}

func (jc *JobContext) ErrorMessage() string {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	return jc.errMessage
}

// Transition moves the job to the next status, recording timestamps on
// the in_progress and terminal edges.
func (jc *JobContext) Transition(next string) error {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	allowed := statusTransitions[jc.status]
	ok := false
	for _, s := range allowed {
		if s == next {
			ok = true
			break
		}
	}
	if !ok {
		return fault.Validation("bad_transition",
			fmt.Sprintf("cannot transition job %s from %s to %s", jc.JobID, jc.status, next), nil)
	}

	jc.status = next
	now := time.Now()
	switch next {
	case StatusInProgress:
		jc.startedAt = now
	case StatusCompleted, StatusFailed, StatusTimeout, StatusCancelled:
		jc.completedAt = now
	}
	return nil
}

// Fail moves the job to the given terminal failure status and records
// the message.
func (jc *JobContext) Fail(status, message string) error {
	if err := jc.Transition(status); err != nil {
		return err
	}
	jc.mu.Lock()
	jc.errMessage = message
	jc.mu.Unlock()
	return nil
}

// GetDuration is the elapsed processing time: zero before start, running
// time while in progress, and the final span once terminal.
func (jc *JobContext) GetDuration() time.Duration {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	if jc.startedAt.IsZero() {
		return 0
	}
	if jc.completedAt.IsZero() {
		return time.Since(jc.startedAt)
	}
	return jc.completedAt.Sub(jc.startedAt)
}
