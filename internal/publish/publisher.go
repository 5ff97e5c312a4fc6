package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/songplays/internal/config"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Publisher moves a run's staging tree into the output root.
type Publisher interface {
	// StagingRoot returns where a run writes its tables before publication.
	StagingRoot(runID string) string
	// Publish replaces the output tables with the staged ones and writes the
	// manifest. Staging is removed on success.
	Publish(ctx context.Context, staging string, m *Manifest) error
	// Discard removes a staging tree left by a failed run.
	Discard(ctx context.Context, staging string) error
}

// New returns the publisher for outputRoot: S3 for s3:// roots, local
// otherwise.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Publisher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if !core.IsRemotePath(cfg.OutputRoot) {
		return NewLocalPublisher(cfg.OutputRoot, logger), nil
	}
	if !strings.HasPrefix(cfg.OutputRoot, "s3://") {
		return nil, fmt.Errorf("unsupported output root %s", cfg.OutputRoot)
	}

	client, err := NewS3Client(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	return NewS3Publisher(client, cfg.OutputRoot, cfg.Publish.Concurrency, logger)
}
