package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/songplays/internal/etl"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the ETL job",
		Long: `Load song and event-log JSON from the input root, derive the star schema
and publish it as partitioned Parquet under the output root.

The previous output stays in place until every table has been written.`,
		Example: `  # Run against local directories
  songplays run --input ./data --output ./warehouse

  # Run against S3
  songplays run --input s3://udacity-dend --output s3://my-bucket/warehouse`,
		Args: cobra.NoArgs,
		RunE: RunJob,
	}
}

// RunJob executes one batch with the configuration from cmd's context.
func RunJob(cmd *cobra.Command, _ []string) (err error) {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, cleanup())
	}()

	pipeline := etl.NewPipeline(etl.Config{
		Adapter:   cmdCtx.Adapter,
		Store:     cmdCtx.Store,
		Publisher: cmdCtx.Publisher,
		Paths:     cmdCtx.Paths(),
		Logger:    cmdCtx.Logger,
	})

	result, err := pipeline.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	renderResult(cmd.OutOrStdout(), result)
	return nil
}

func renderResult(w io.Writer, result *etl.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"table", "rows", "partitioned by"})

	var total int64
	for _, tbl := range result.Tables {
		t.AppendRow(table.Row{tbl.Name, tbl.Rows, joinOrDash(tbl.PartitionBy)})
		total += tbl.Rows
	}
	t.AppendFooter(table.Row{"total", total, ""})
	t.Render()

	_, _ = fmt.Fprintf(w, "Run %s completed in %s\n", result.RunID, result.Duration.Round(time.Millisecond))
}
