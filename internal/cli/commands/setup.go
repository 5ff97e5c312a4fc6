package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/songplays/internal/config"
	"github.com/leapstack-labs/songplays/internal/etl"
	"github.com/leapstack-labs/songplays/internal/publish"
	"github.com/leapstack-labs/songplays/internal/state"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
	"github.com/spf13/cobra"

	// Register the duckdb adapter.
	_ "github.com/leapstack-labs/songplays/pkg/adapters/duckdb"
)

// CommandContext holds the shared resources a command works with.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Adapter   core.Adapter
	Store     core.Store
	Publisher publish.Publisher
}

// Paths returns the pipeline paths described by the configuration.
func (c *CommandContext) Paths() etl.Paths {
	return etl.Paths{
		InputRoot:  c.Cfg.InputRoot,
		OutputRoot: c.Cfg.OutputRoot,
		SongGlob:   c.Cfg.SongGlob,
		LogGlob:    c.Cfg.LogGlob,
	}
}

// NewCommandContext validates the configuration and opens the engine
// session, the state store and the publisher. The returned cleanup closes
// whatever was opened.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func() error, error) {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	cmdCtx, cleanup, err := NewStoreContext(cmd)
	if err != nil {
		return nil, nil, err
	}

	adp, err := adapter.NewAdapter(cfg.AdapterConfig(), logger)
	if err != nil {
		return nil, nil, errors.Join(err, cleanup())
	}
	if err := adp.Connect(ctx, cfg.AdapterConfig()); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to open engine session: %w", err), cleanup())
	}
	cmdCtx.Adapter = adp

	pub, err := publish.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, errors.Join(err, adp.Close(), cleanup())
	}
	cmdCtx.Publisher = pub

	return cmdCtx, func() error {
		return errors.Join(adp.Close(), cleanup())
	}, nil
}

// NewStoreContext opens only the state store. Useful for commands that
// inspect run history.
func NewStoreContext(cmd *cobra.Command) (*CommandContext, func() error, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to initialize state schema: %w", err), store.Close())
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Store:  store,
	}, store.Close, nil
}
