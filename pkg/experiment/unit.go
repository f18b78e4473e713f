// Package experiment materializes parameter tuples into self-contained,
// idempotently named experiment units and tracks their lifecycle.
package experiment

import (
	"github.com/allpaul0/tpg-nextflow/pkg/sweep"
)

// Status is the lifecycle state of an experiment unit. Transitions are driven
// solely by dispatch outcome.
type Status int

const (
	// StatusCreated means the unit's work directory has been materialized.
	StatusCreated Status = iota
	// StatusSubmitted means a job request has been handed to the scheduler.
	StatusSubmitted
	// StatusRunning means the external trainer has been observed running.
	StatusRunning
	// StatusCompleted means the trainer exited zero.
	StatusCompleted
	// StatusFailed means the trainer exited non-zero. Failed units are
	// excluded from aggregation and never retried automatically.
	StatusFailed
)

// String returns a user-friendly status name.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSubmitted:
		return "submitted"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Unit is one materialized, schedulable work item corresponding to exactly
// one parameter tuple.
type Unit struct {
	ID      string
	Tuple   sweep.Tuple
	WorkDir string
	Status  Status
}
