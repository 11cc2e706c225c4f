// Package store persists run history: which model ran, with which
// parameters, and the summary results. Grids are not persisted; the store
// keeps the decision record, not the rasters.
package store

import (
	"context"
	"time"

	"github.com/sells-group/ecoflow/internal/engine"
)

// RunStatus is the lifecycle state of a stored run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one stored analysis run.
type Run struct {
	ID     string            `json:"id"`
	Model  engine.ModelKey   `json:"model"`
	Status RunStatus         `json:"status"`
	Params engine.Parameters `json:"params"`
	// Result holds the summary bundle for complete runs, and the validation
	// report for runs that failed validation.
	Result *engine.Result `json:"result,omitempty"`
	// Error is the failure message for failed runs.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Model  engine.ModelKey
	Status RunStatus
	Limit  int
	Offset int
}

// Store is the run-history backend.
type Store interface {
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	Close() error
}
