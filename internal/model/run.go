// Package model defines the persisted analysis run.
package model

import (
	"time"

	"github.com/sells-group/access-cli/internal/access"
)

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusRunning, RunStatusComplete, RunStatusFailed:
		return true
	}
	return false
}

// RunInput records what an analysis run was asked to do.
type RunInput struct {
	PopulationPath    string `json:"population_path"`
	FacilitiesPath    string `json:"facilities_path"`
	SampleSize        int    `json:"sample_size"`
	Seed              int64  `json:"seed"`
	Workers           int    `json:"workers,omitempty"`
	PopulationRead    int    `json:"population_read"`
	PopulationDropped int    `json:"population_dropped"`
	Facilities        int    `json:"facilities"`
	Approximated      int    `json:"approximated,omitempty"`
}

// Run is a single accessibility analysis.
type Run struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Input     RunInput   `json:"input"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Duration returns the time between creation and the last update.
func (r Run) Duration() time.Duration {
	return r.UpdatedAt.Sub(r.CreatedAt)
}

// RunResult holds the aggregates produced by a completed run.
type RunResult struct {
	Metrics access.Metrics          `json:"metrics"`
	Regions []access.RegionSummary  `json:"regions"`
	Demand  []access.FacilityDemand `json:"demand,omitempty"`

	// Vulnerability is set when at least one person could be scored.
	Vulnerability *access.VulnerabilitySummary `json:"vulnerability,omitempty"`
}
