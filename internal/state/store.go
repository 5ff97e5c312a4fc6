// Package state records pipeline runs and their per-table steps in SQLite.
//
// Core types are defined in pkg/core. This package re-exports them via type
// aliases so callers can work with state.Run without importing pkg/core.
package state

import (
	"github.com/leapstack-labs/songplays/pkg/core"
)

type (
	// Store is an alias for core.Store.
	Store = core.Store

	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus

	// Run is an alias for core.Run.
	Run = core.Run

	// TableRunStatus is an alias for core.TableRunStatus.
	TableRunStatus = core.TableRunStatus

	// TableRun is an alias for core.TableRun.
	TableRun = core.TableRun
)

// Re-export status constants from core.
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusFailed    = core.RunStatusFailed
	RunStatusCancelled = core.RunStatusCancelled

	TableRunStatusPending = core.TableRunStatusPending
	TableRunStatusRunning = core.TableRunStatusRunning
	TableRunStatusSuccess = core.TableRunStatusSuccess
	TableRunStatusFailed  = core.TableRunStatusFailed
	TableRunStatusSkipped = core.TableRunStatusSkipped
)
