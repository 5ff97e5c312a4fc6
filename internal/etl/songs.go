package etl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/songplays/pkg/core"
)

// SongExtractor derives the song and artist dimensions from song-catalog
// records.
type SongExtractor struct {
	adapter core.Adapter
	writer  *Writer
	paths   Paths
	logger  *slog.Logger
}

// NewSongExtractor creates a song extractor. A nil logger discards all output.
func NewSongExtractor(adp core.Adapter, writer *Writer, paths Paths, logger *slog.Logger) *SongExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SongExtractor{adapter: adp, writer: writer, paths: paths, logger: logger}
}

// Steps returns the extractor's steps: load the catalog, then derive and
// write each dimension.
func (e *SongExtractor) Steps() []Step {
	songs, artists := SongsTable, ArtistsTable
	return []Step{
		{Name: stageSongs, Run: e.stage},
		{Name: songs.Name, DependsOn: []string{stageSongs}, Table: &songs, Run: e.derive(songs, songsSQL)},
		{Name: artists.Name, DependsOn: []string{stageSongs}, Table: &artists, Run: e.derive(artists, artistsSQL)},
	}
}

// Extract runs every step in order.
func (e *SongExtractor) Extract(ctx context.Context) error {
	return runSteps(ctx, e.Steps())
}

func (e *SongExtractor) stage(ctx context.Context) (int64, error) {
	pattern := e.paths.SongPattern()
	e.logger.Info("loading song data", slog.String("pattern", pattern))

	if err := e.adapter.LoadJSON(ctx, stageSongs, pattern, SongSourceColumns); err != nil {
		return 0, fmt.Errorf("%s: %w", stageSongs, err)
	}
	return e.adapter.CountRows(ctx, stageSongs)
}

func (e *SongExtractor) derive(table core.Table, query string) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		if err := e.adapter.Exec(ctx, query); err != nil {
			return 0, fmt.Errorf("%s: %w", table.Name, err)
		}
		return e.writer.Write(ctx, table, e.paths.OutputRoot)
	}
}
