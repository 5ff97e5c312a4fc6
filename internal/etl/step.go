package etl

import (
	"context"

	"github.com/leapstack-labs/songplays/pkg/core"
)

// Paths locates the job's inputs and the root tables are written under.
type Paths struct {
	InputRoot  string
	OutputRoot string
	SongGlob   string
	LogGlob    string
}

// SongPattern returns the glob matching song-catalog files.
func (p Paths) SongPattern() string {
	return core.JoinPath(p.InputRoot, p.SongGlob)
}

// LogPattern returns the glob matching event-log files.
func (p Paths) LogPattern() string {
	return core.JoinPath(p.InputRoot, p.LogGlob)
}

// Step is a unit of pipeline work. Run returns the number of rows the step
// produced.
type Step struct {
	Name      string
	DependsOn []string
	Table     *core.Table // nil for staging steps
	Run       func(ctx context.Context) (int64, error)
}

// Extractor contributes steps to a pipeline.
type Extractor interface {
	Steps() []Step
}

// runSteps executes steps in slice order, stopping at the first failure.
func runSteps(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := step.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}
