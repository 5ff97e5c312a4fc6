package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalPublisher swaps a staging directory in for the output directory.
// Staging is a sibling of the output root so the swap is a rename on one
// filesystem. The output root is owned by the job: it is replaced whole.
type LocalPublisher struct {
	root   string
	logger *slog.Logger
}

// NewLocalPublisher creates a publisher for a local output root.
func NewLocalPublisher(root string, logger *slog.Logger) *LocalPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LocalPublisher{root: filepath.Clean(root), logger: logger}
}

// StagingRoot implements Publisher.
func (p *LocalPublisher) StagingRoot(runID string) string {
	return p.root + ".staging-" + runID
}

// Publish implements Publisher.
func (p *LocalPublisher) Publish(ctx context.Context, staging string, m *Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(staging, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", staging, err)
	}
	if err := os.WriteFile(filepath.Join(staging, ManifestFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.root), 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(p.root), err)
	}

	previous := p.root + ".previous-" + m.RunID
	hadPrevious := false
	if _, err := os.Stat(p.root); err == nil {
		if err := os.Rename(p.root, previous); err != nil {
			return fmt.Errorf("failed to move aside %s: %w", p.root, err)
		}
		hadPrevious = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", p.root, err)
	}

	if err := os.Rename(staging, p.root); err != nil {
		if hadPrevious {
			if rbErr := os.Rename(previous, p.root); rbErr != nil {
				return errors.Join(fmt.Errorf("failed to publish %s: %w", staging, err), rbErr)
			}
		}
		return fmt.Errorf("failed to publish %s: %w", staging, err)
	}

	if hadPrevious {
		if err := os.RemoveAll(previous); err != nil {
			p.logger.Warn("failed to remove previous output", slog.String("path", previous), slog.Any("error", err))
		}
	}

	p.logger.Info("output published", slog.String("path", p.root), slog.Int("tables", len(m.Tables)))
	return nil
}

// Discard implements Publisher.
func (p *LocalPublisher) Discard(_ context.Context, staging string) error {
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("failed to remove staging %s: %w", staging, err)
	}
	return nil
}
