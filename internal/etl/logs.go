package etl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/songplays/pkg/core"
)

// LogExtractor derives the user and time dimensions and the songplay fact
// table from event-log records. The fact step reads the song and artist
// dimensions back from the written output.
type LogExtractor struct {
	adapter core.Adapter
	writer  *Writer
	paths   Paths
	logger  *slog.Logger
}

// NewLogExtractor creates a log extractor. A nil logger discards all output.
func NewLogExtractor(adp core.Adapter, writer *Writer, paths Paths, logger *slog.Logger) *LogExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogExtractor{adapter: adp, writer: writer, paths: paths, logger: logger}
}

// Steps returns the extractor's steps. Loading waits for the song
// dimensions so the catalog is fully written before log processing starts.
func (e *LogExtractor) Steps() []Step {
	users, times, plays := UsersTable, TimeTable, SongplaysTable
	return []Step{
		{Name: stagePlays, DependsOn: []string{SongsTable.Name, ArtistsTable.Name}, Run: e.stage},
		{Name: users.Name, DependsOn: []string{stagePlays}, Table: &users, Run: e.derive(users, usersSQL)},
		{Name: times.Name, DependsOn: []string{stagePlays}, Table: &times, Run: e.derive(times, timeSQL)},
		{Name: plays.Name, DependsOn: []string{stagePlays, SongsTable.Name, ArtistsTable.Name}, Table: &plays, Run: e.songplays},
	}
}

// Extract runs every step in order. The song and artist dimensions must
// already exist under the output root.
func (e *LogExtractor) Extract(ctx context.Context) error {
	return runSteps(ctx, e.Steps())
}

// stage loads the event log and keeps the play events.
func (e *LogExtractor) stage(ctx context.Context) (int64, error) {
	pattern := e.paths.LogPattern()
	e.logger.Info("loading log data", slog.String("pattern", pattern))

	if err := e.adapter.LoadJSON(ctx, stageLogs, pattern, LogSourceColumns); err != nil {
		return 0, fmt.Errorf("%s: %w", stagePlays, err)
	}
	if err := e.adapter.Exec(ctx, playsSQL); err != nil {
		return 0, fmt.Errorf("%s: %w", stagePlays, err)
	}
	if err := e.adapter.Exec(ctx, "DROP TABLE IF EXISTS "+stageLogs); err != nil {
		return 0, fmt.Errorf("%s: %w", stagePlays, err)
	}

	rows, err := e.adapter.CountRows(ctx, stagePlays)
	if err != nil {
		return 0, err
	}
	e.logger.Debug("play events staged", slog.Int64("rows", rows))
	return rows, nil
}

func (e *LogExtractor) derive(table core.Table, query string) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		if err := e.adapter.Exec(ctx, query); err != nil {
			return 0, fmt.Errorf("%s: %w", table.Name, err)
		}
		return e.writer.Write(ctx, table, e.paths.OutputRoot)
	}
}

// songplays reads the persisted dimensions back, resolves foreign keys and
// writes the fact table.
func (e *LogExtractor) songplays(ctx context.Context) (int64, error) {
	if err := e.writer.ReadBack(ctx, SongsTable, e.paths.OutputRoot, lookupSongs); err != nil {
		return 0, err
	}
	if err := e.writer.ReadBack(ctx, ArtistsTable, e.paths.OutputRoot, lookupArtists); err != nil {
		return 0, err
	}

	return e.derive(SongplaysTable, songplaysSQL)(ctx)
}
