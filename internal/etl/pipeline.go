package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/songplays/internal/dag"
	"github.com/leapstack-labs/songplays/internal/publish"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Config holds the collaborators of a Pipeline.
type Config struct {
	Adapter   core.Adapter
	Store     core.Store
	Publisher publish.Publisher
	Paths     Paths // OutputRoot is the published root; runs write to staging
	Logger    *slog.Logger
}

// Result summarises a successful run.
type Result struct {
	RunID    string
	Tables   []publish.ManifestTable
	Duration time.Duration
}

// Pipeline runs the song and log extractors against a staging root, records
// every step in the state store and publishes the staged tables.
type Pipeline struct {
	adapter   core.Adapter
	store     core.Store
	publisher publish.Publisher
	paths     Paths
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. A nil logger discards all output.
func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		adapter:   cfg.Adapter,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		paths:     cfg.Paths,
		logger:    logger,
	}
}

// Run executes one full batch. On failure the previous output is left in
// place and the run is recorded as failed.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	run, err := p.store.CreateRun(p.paths.InputRoot, p.paths.OutputRoot)
	if err != nil {
		return nil, err
	}
	logger := p.logger.With(slog.String("run_id", run.ID))
	logger.Info("run started", slog.String("input", p.paths.InputRoot), slog.String("output", p.paths.OutputRoot))

	staging := p.publisher.StagingRoot(run.ID)
	stagedPaths := p.paths
	stagedPaths.OutputRoot = staging

	tables, err := p.execute(ctx, logger, run.ID, stagedPaths)
	if err == nil {
		err = p.publish(ctx, logger, run.ID, staging, tables)
	}

	if err != nil {
		if discardErr := p.publisher.Discard(context.WithoutCancel(ctx), staging); discardErr != nil {
			logger.Warn("failed to discard staging", slog.String("path", staging), slog.Any("error", discardErr))
		}

		status := core.RunStatusFailed
		if errors.Is(err, context.Canceled) {
			status = core.RunStatusCancelled
		}
		if completeErr := p.store.CompleteRun(run.ID, status, err.Error()); completeErr != nil {
			err = errors.Join(err, completeErr)
		}
		logger.Error("run failed", slog.Any("error", err))
		return nil, err
	}

	if err := p.store.CompleteRun(run.ID, core.RunStatusCompleted, ""); err != nil {
		return nil, err
	}

	result := &Result{RunID: run.ID, Tables: tables, Duration: time.Since(start)}
	logger.Info("run completed", slog.Duration("duration", result.Duration))
	return result, nil
}

// Graph builds the step graph for the given paths.
func (p *Pipeline) Graph(paths Paths) (*dag.Graph[Step], error) {
	writer := NewWriter(p.adapter, p.logger)
	extractors := []Extractor{
		NewSongExtractor(p.adapter, writer, paths, p.logger),
		NewLogExtractor(p.adapter, writer, paths, p.logger),
	}

	g := dag.NewGraph[Step]()
	var steps []Step
	for _, e := range extractors {
		for _, step := range e.Steps() {
			g.AddNode(step.Name, step)
			steps = append(steps, step)
		}
	}
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if err := g.AddEdge(dep, step.Name); err != nil {
				return nil, fmt.Errorf("invalid step graph: %w", err)
			}
		}
	}
	return g, nil
}

// execute runs every step in dependency order and returns the written
// tables. A failed step marks its dependents skipped.
func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, runID string, paths Paths) ([]publish.ManifestTable, error) {
	g, err := p.Graph(paths)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	var tables []publish.ManifestTable
	for i, node := range order {
		step := node.Data

		rows, err := p.runStep(ctx, logger, runID, step)
		if err != nil {
			for _, rest := range order[i+1:] {
				p.recordSkipped(logger, runID, rest.ID, "")
			}
			return nil, fmt.Errorf("%s: %w", step.Name, err)
		}

		if step.Table != nil {
			tables = append(tables, publish.ManifestTable{
				Name:        step.Table.Name,
				Path:        step.Table.Dir,
				Rows:        rows,
				PartitionBy: step.Table.PartitionBy,
			})
		}
	}

	return tables, nil
}

// runStep records and runs one step. A step reached after cancellation is
// recorded as skipped with the context error.
func (p *Pipeline) runStep(ctx context.Context, logger *slog.Logger, runID string, step Step) (int64, error) {
	if err := ctx.Err(); err != nil {
		p.recordSkipped(logger, runID, step.Name, err.Error())
		return 0, err
	}

	tableRun := &core.TableRun{RunID: runID, Step: step.Name, Status: core.TableRunStatusRunning}
	if err := p.store.RecordTableRun(tableRun); err != nil {
		return 0, err
	}

	logger.Debug("step started", slog.String("step", step.Name))
	start := time.Now()
	rows, err := step.Run(ctx)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		if updateErr := p.store.UpdateTableRun(tableRun.ID, core.TableRunStatusFailed, 0, err.Error(), elapsed); updateErr != nil {
			return 0, errors.Join(err, updateErr)
		}
		return 0, err
	}

	if err := p.store.UpdateTableRun(tableRun.ID, core.TableRunStatusSuccess, rows, "", elapsed); err != nil {
		return 0, err
	}

	logger.Info("step completed", slog.String("step", step.Name), slog.Int64("rows", rows), slog.Int64("ms", elapsed))
	return rows, nil
}

func (p *Pipeline) recordSkipped(logger *slog.Logger, runID, step, reason string) {
	tableRun := &core.TableRun{RunID: runID, Step: step, Status: core.TableRunStatusSkipped, Error: reason}
	if err := p.store.RecordTableRun(tableRun); err != nil {
		logger.Warn("failed to record skipped step", slog.String("step", step), slog.Any("error", err))
	}
}

// publish writes the manifest and moves the staged tables into place.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, runID, staging string, tables []publish.ManifestTable) error {
	manifest := &publish.Manifest{
		RunID:       runID,
		InputRoot:   p.paths.InputRoot,
		CompletedAt: time.Now().UTC(),
		Tables:      tables,
	}

	rows, err := p.runStep(ctx, logger, runID, Step{
		Name: "publish",
		Run: func(ctx context.Context) (int64, error) {
			if err := p.publisher.Publish(ctx, staging, manifest); err != nil {
				return 0, err
			}
			return int64(len(tables)), nil
		},
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	logger.Debug("tables published", slog.Int64("tables", rows))
	return nil
}
