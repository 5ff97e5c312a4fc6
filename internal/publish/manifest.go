// Package publish moves a fully written staging tree into the output root.
// Local trees are swapped in by directory renames; S3 prefixes are copied
// object by object with the manifest written last as a completion marker.
package publish

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the name of the completion marker under the output root.
const ManifestFile = "_manifest.yaml"

// Manifest describes a published output tree.
type Manifest struct {
	RunID       string          `yaml:"run_id"`
	InputRoot   string          `yaml:"input_root"`
	CompletedAt time.Time       `yaml:"completed_at"`
	Tables      []ManifestTable `yaml:"tables"`
}

// ManifestTable describes one published table.
type ManifestTable struct {
	Name        string   `yaml:"name"`
	Path        string   `yaml:"path"`
	Rows        int64    `yaml:"rows"`
	PartitionBy []string `yaml:"partition_by,omitempty"`
}

// TableDirs returns the table directories named by the manifest, sorted.
func (m *Manifest) TableDirs() []string {
	dirs := make([]string, 0, len(m.Tables))
	for _, t := range m.Tables {
		dirs = append(dirs, t.Path)
	}
	sort.Strings(dirs)
	return dirs
}

// Marshal encodes the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// ParseManifest decodes a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}
