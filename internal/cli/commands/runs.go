package commands

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/songplays/pkg/core"
	"github.com/spf13/cobra"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
	Steps bool
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent runs",
		Long: `List recent runs recorded in the state database, newest first.

Use --steps to include the per-step breakdown of the latest run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&opts.Steps, "steps", false, "Show the steps of the latest run")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) (err error) {
	cmdCtx, cleanup, err := NewStoreContext(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, cleanup())
	}()

	runs, err := cmdCtx.Store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	renderRuns(w, runs)

	if !opts.Steps || len(runs) == 0 {
		return nil
	}

	steps, err := cmdCtx.Store.GetTableRunsForRun(runs[0].ID)
	if err != nil {
		return err
	}
	renderSteps(w, steps)
	return nil
}

func renderRuns(w io.Writer, runs []*core.Run) {
	if len(runs) == 0 {
		_, _ = io.WriteString(w, "(no runs)\n")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"id", "status", "started", "duration", "error"})

	for _, r := range runs {
		duration := "-"
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{r.ID, r.Status, r.StartedAt.Format(time.RFC3339), duration, truncate(r.Error, 60)})
	}
	t.Render()
}

func renderSteps(w io.Writer, steps []*core.TableRun) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"step", "status", "rows", "ms", "error"})

	for _, s := range steps {
		t.AppendRow(table.Row{s.Step, s.Status, s.Rows, s.ExecutionMS, truncate(s.Error, 60)})
	}
	t.Render()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
