package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/songplays/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManifest(runID string) *Manifest {
	return &Manifest{
		RunID:       runID,
		InputRoot:   "/data/input",
		CompletedAt: time.Date(2018, 11, 12, 2, 37, 38, 0, time.UTC),
		Tables: []ManifestTable{
			{Name: "dim_users", Path: "dim_users", Rows: 2},
			{Name: "dim_time", Path: "dim_time", Rows: 3, PartitionBy: []string{"year", "month"}},
		},
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
}

func readManifest(t *testing.T, root string) *Manifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, ManifestFile))
	require.NoError(t, err)
	m, err := ParseManifest(data)
	require.NoError(t, err)
	return m
}

func TestLocalPublisher_StagingRoot(t *testing.T) {
	p := NewLocalPublisher("/data/output/", nil)
	assert.Equal(t, "/data/output.staging-run1", p.StagingRoot("run1"))
}

func TestLocalPublisher_Publish(t *testing.T) {
	tests := []struct {
		name     string
		existing map[string]string
	}{
		{name: "first publication"},
		{
			name: "replaces previous output",
			existing: map[string]string{
				ManifestFile:                        "run_id: old\n",
				"dim_users/data_0.parquet":          "old",
				"dim_artists/data_0.parquet":        "old",
				"dim_time/year=2017/data_0.parquet": "old",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			root := filepath.Join(dir, "output")
			if tt.existing != nil {
				writeTree(t, root, tt.existing)
			}

			p := NewLocalPublisher(root, testutil.NewTestLogger(t))
			staging := p.StagingRoot("run1")
			writeTree(t, staging, map[string]string{
				"dim_users/data_0.parquet":                   "new",
				"dim_time/year=2018/month=11/data_0.parquet": "new",
			})

			require.NoError(t, p.Publish(context.Background(), staging, testManifest("run1")))

			m := readManifest(t, root)
			assert.Equal(t, "run1", m.RunID)
			assert.Len(t, m.Tables, 2)

			data, err := os.ReadFile(filepath.Join(root, "dim_users", "data_0.parquet"))
			require.NoError(t, err)
			assert.Equal(t, "new", string(data))

			assert.NoFileExists(t, filepath.Join(root, "dim_artists", "data_0.parquet"))
			assert.NoFileExists(t, filepath.Join(root, "dim_time", "year=2017", "data_0.parquet"))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 1, "staging and previous trees should be gone")
			assert.Equal(t, "output", entries[0].Name())
		})
	}
}

func TestLocalPublisher_Publish_UnwritableStaging(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "output")
	writeTree(t, root, map[string]string{ManifestFile: "run_id: old\n"})
	writeTree(t, dir, map[string]string{"blocked": "file"})

	p := NewLocalPublisher(root, nil)
	staging := filepath.Join(dir, "blocked", "staging")

	require.Error(t, p.Publish(context.Background(), staging, testManifest("run1")))
	assert.Equal(t, "old", readManifest(t, root).RunID)
}

func TestLocalPublisher_Publish_Cancelled(t *testing.T) {
	p := NewLocalPublisher(filepath.Join(t.TempDir(), "output"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, p.Publish(ctx, p.StagingRoot("run1"), testManifest("run1")), context.Canceled)
}

func TestLocalPublisher_Discard(t *testing.T) {
	root := filepath.Join(t.TempDir(), "output")
	p := NewLocalPublisher(root, nil)
	staging := p.StagingRoot("run1")
	writeTree(t, staging, map[string]string{"dim_users/data_0.parquet": "partial"})

	require.NoError(t, p.Discard(context.Background(), staging))
	assert.NoDirExists(t, staging)

	require.NoError(t, p.Discard(context.Background(), staging), "discarding twice is a no-op")
}

func TestManifest(t *testing.T) {
	m := testManifest("run1")
	assert.Equal(t, []string{"dim_time", "dim_users"}, m.TableDirs())

	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: run1")
	assert.Contains(t, string(data), "partition_by:")

	parsed, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, m.Tables, parsed.Tables)
	assert.True(t, m.CompletedAt.Equal(parsed.CompletedAt))

	_, err = ParseManifest([]byte("tables: [unclosed"))
	require.Error(t, err)
}
