// Package adapter provides the tabular engine contract for the songplays
// pipeline.
//
// This package contains the public contract that all engine adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
//
// Core types (Config, Column, Metadata, Rows) are defined in pkg/core and
// re-exported here via type aliases.
package adapter

import (
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Type aliases for the engine types defined in pkg/core.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// ExportOptions is an alias for core.ExportOptions.
	ExportOptions = core.ExportOptions
)

// Adapter defines the interface that all engine adapters must implement.
// It is core.Adapter; the alias keeps call sites short.
type Adapter = core.Adapter
