package client

import "time"

type RenderAccepted struct {
	JobID         string `json:"job_id"`
	CompositionID string `json:"composition_id"`
	Status        string `json:"status"`
	Queue         string `json:"queue"`
}

type ProgressState struct {
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

type Composition struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	OutputURL   string         `json:"output_url,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DurationSec float64        `json:"duration_seconds,omitempty"`
	Progress    *ProgressState `json:"progress,omitempty"`
}

// ProgressMessage is one frame from the progress stream. Sequence is
// server-assigned and monotonic per subscription.
type ProgressMessage struct {
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

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
