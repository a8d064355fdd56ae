// Package datasync pulls learning data from an external system through an Adaptor and records every run.
package datasync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/volatiletech/null/v8"
)

// Run statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type (
	// Adaptor is the lifecycle of an external learning system: connect, run its extract/transform/load step, then
	// fetch the outcome.
	Adaptor interface {
		Name() string
		Connect(ctx context.Context) error
		Prepare(ctx context.Context) error
		Fetch(ctx context.Context) (Result, error)
	}

	// Result is what an adaptor reports once its data is ready.
	Result struct {
		Status  string          `json:"status"`
		Records int             `json:"records"`
		Message string          `json:"message,omitempty"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	Run struct {
		ID         int       `json:"id" db:"id"`
		Adaptor    string    `json:"adaptor" db:"adaptor"`
		Status     string    `json:"status" db:"status"`
		Records    int       `json:"records" db:"records"`
		Message    string    `json:"message" db:"message"`
		Payload    null.JSON `json:"payload" db:"payload"`
		StartedAt  time.Time `json:"started_at" db:"started_at"`
		FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	}

	// Recorder persists sync runs.
	Recorder interface {
		RecordRun(ctx context.Context, run Run) (Run, error)
		// QueryRuns returns the latest runs, newest first.
		QueryRuns(ctx context.Context, limit int) ([]Run, error)
	}
)

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
