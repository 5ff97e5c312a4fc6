package core

import "time"

// Store defines the interface for run bookkeeping.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(inputRoot, outputRoot string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun() (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Table run operations
	RecordTableRun(tableRun *TableRun) error
	UpdateTableRun(id string, status TableRunStatus, rows int64, errMsg string, executionMS int64) error
	GetTableRunsForRun(runID string) ([]*TableRun, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents a pipeline execution session.
type Run struct {
	ID          string
	InputRoot   string
	OutputRoot  string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// TableRunStatus represents the status of an individual step execution.
type TableRunStatus string

// Table run status constants.
const (
	TableRunStatusPending TableRunStatus = "pending"
	TableRunStatusRunning TableRunStatus = "running"
	TableRunStatusSuccess TableRunStatus = "success"
	TableRunStatusFailed  TableRunStatus = "failed"
	TableRunStatusSkipped TableRunStatus = "skipped"
)

// TableRun represents a single step execution within a run.
type TableRun struct {
	ID          string
	RunID       string
	Step        string
	Status      TableRunStatus
	Rows        int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	ExecutionMS int64
}
