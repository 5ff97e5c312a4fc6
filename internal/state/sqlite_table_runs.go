package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/songplays/pkg/core"
)

// RecordTableRun records the start of a step. ID and StartedAt are filled in
// when empty.
func (s *SQLiteStore) RecordTableRun(tableRun *core.TableRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if tableRun.ID == "" {
		tableRun.ID = generateID()
	}
	if tableRun.StartedAt.IsZero() {
		tableRun.StartedAt = time.Now().UTC()
	}
	if tableRun.Status == "" {
		tableRun.Status = core.TableRunStatusPending
	}

	_, err := s.db.Exec(
		`INSERT INTO table_runs (id, run_id, step, status, row_count, started_at, error, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tableRun.ID, tableRun.RunID, tableRun.Step, string(tableRun.Status), tableRun.Rows,
		tableRun.StartedAt, nullString(tableRun.Error), tableRun.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record table run: %w", err)
	}

	s.logger.Debug("table run recorded", slog.String("id", tableRun.ID), slog.String("step", tableRun.Step))
	return nil
}

// UpdateTableRun sets the final status of a step.
func (s *SQLiteStore) UpdateTableRun(id string, status core.TableRunStatus, rows int64, errMsg string, executionMS int64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var completedAt *time.Time
	if status != core.TableRunStatusPending && status != core.TableRunStatusRunning {
		now := time.Now().UTC()
		completedAt = &now
	}

	result, err := s.db.Exec(
		`UPDATE table_runs SET status = ?, row_count = ?, error = ?, execution_ms = ?, completed_at = ? WHERE id = ?`,
		string(status), rows, nullString(errMsg), executionMS, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update table run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("table run not found: %s", id)
	}

	return nil
}

// GetTableRunsForRun returns the steps of a run in the order they started.
func (s *SQLiteStore) GetTableRunsForRun(runID string) ([]*core.TableRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, step, status, row_count, started_at, completed_at, error, execution_ms
		 FROM table_runs WHERE run_id = ? ORDER BY started_at, rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get table runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tableRuns []*core.TableRun
	for rows.Next() {
		tr := &core.TableRun{}
		var status string
		var completedAt sql.NullTime
		var errMsg sql.NullString

		if err := rows.Scan(&tr.ID, &tr.RunID, &tr.Step, &status, &tr.Rows, &tr.StartedAt, &completedAt, &errMsg, &tr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan table run: %w", err)
		}

		tr.Status = core.TableRunStatus(status)
		if completedAt.Valid {
			tr.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			tr.Error = errMsg.String
		}
		tableRuns = append(tableRuns, tr)
	}

	return tableRuns, rows.Err()
}
