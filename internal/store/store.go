// Package store persists analysis runs in SQLite or Postgres.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/access"
	"github.com/sells-group/access-cli/internal/model"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = eris.New("store: run not found")

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Facilities used by a run, including approximated locations.
	SaveFacilities(ctx context.Context, runID string, facilities []access.Facility) error
	ListFacilities(ctx context.Context, runID string) ([]access.Facility, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
