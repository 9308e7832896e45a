package model

import "time"

// RunStatus is the lifecycle state of an estimation run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// FailureKind classifies why a run failed.
type FailureKind string

// Failure kinds. Unauthorized means the engine rejected the service
// account; unavailable means it stayed unreachable after retries.
const (
	FailureUnauthorized     FailureKind = "unauthorized"
	FailureInvalidRequest   FailureKind = "invalid_request"
	FailureInsufficientData FailureKind = "insufficient_data"
	FailureUnavailable      FailureKind = "unavailable"
	FailureInternal         FailureKind = "internal"
)

// Run sources.
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// Run is one recorded estimation, from request to result or failure.
// FailureKind is set only on failed runs.
type Run struct {
	ID          string      `json:"id"`
	Source      string      `json:"source"`
	Request     Request     `json:"request"`
	Status      RunStatus   `json:"status"`
	Result      *Result     `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
