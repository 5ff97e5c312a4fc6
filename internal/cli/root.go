// Package cli provides the command-line interface for songplays.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/songplays/internal/cli/commands"
	"github.com/leapstack-labs/songplays/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command. Without a subcommand it
// runs the job.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "songplays",
		Short: "songplays - song play star schema ETL",
		Long: `songplays loads song-catalog and event-log JSON, derives a star schema
for song play analytics and writes it as partitioned Parquet.

Configuration is read from songplays.yaml, SONGPLAYS_* environment
variables and flags, in increasing order of precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, used, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Verbose)
			if used != "" {
				logger.Debug("using config file", slog.String("path", used))
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		Args:          cobra.NoArgs,
		RunE:          commands.RunJob,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./songplays.yaml)")
	rootCmd.PersistentFlags().String("input", "", "Input root holding song_data/ and log_data/ (local path or s3://)")
	rootCmd.PersistentFlags().String("output", "", "Output root for the Parquet tables (local path or s3://)")
	rootCmd.PersistentFlags().String("state", "", "Path to state database")
	rootCmd.PersistentFlags().String("database", "", "Path to DuckDB database (default in-memory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewDAGCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger writes text logs to the command's stderr.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
